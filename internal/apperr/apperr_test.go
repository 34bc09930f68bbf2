package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidation(t *testing.T) {
	err := Validation("question", "exceeds maximum length of %d characters", 1000)
	if !IsValidation(err) {
		t.Error("IsValidation should match")
	}
	if IsProvider(err) || IsBudget(err) {
		t.Error("validation error matched the wrong category")
	}
	if !strings.Contains(err.Error(), "question") || !strings.Contains(err.Error(), "1000") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestProvider(t *testing.T) {
	cause := errors.New("connection refused")
	err := Provider("embedding", cause)
	if !IsProvider(err) {
		t.Error("IsProvider should match")
	}
	if !errors.Is(err, cause) {
		t.Error("ProviderError should unwrap to its cause")
	}
	if Provider("embedding", nil) != nil {
		t.Error("Provider(nil) should be nil")
	}
}

func TestProvider_matchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("ask failed: %w", Provider("generation", errors.New("timeout")))
	if !IsProvider(err) {
		t.Error("IsProvider should match through fmt.Errorf wrapping")
	}
}

func TestBudget(t *testing.T) {
	err := &BudgetError{Reason: "hourly limit of 100000 tokens reached"}
	if !IsBudget(err) {
		t.Error("IsBudget should match")
	}
	if IsValidation(err) || IsProvider(err) {
		t.Error("budget error matched the wrong category")
	}
	if !strings.Contains(err.Error(), "token budget exceeded") {
		t.Errorf("unexpected message: %v", err)
	}
}
