package fingerprint

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "The Sky Is Blue.", "the sky is blue."},
		{"collapses whitespace", "the  sky\tis\nblue.", "the sky is blue."},
		{"trims edges", "  hello world  ", "hello world"},
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromText_equivalentTextsCollide(t *testing.T) {
	a := FromText("The sky is blue.")
	b := FromText("the  sky   is blue.")
	if a != b {
		t.Errorf("fingerprints differ for equivalent text: %s vs %s", a, b)
	}
	c := FromText("The sky is green.")
	if a == c {
		t.Error("different content must not share a fingerprint")
	}
}

func TestFromText_isStable(t *testing.T) {
	if FromText("water boils at 100 c") != FromText("water boils at 100 c") {
		t.Error("fingerprint must be deterministic")
	}
	if len(FromText("x")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(FromText("x")))
	}
}
