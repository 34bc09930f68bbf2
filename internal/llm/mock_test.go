package llm

import (
	"context"
	"math"
	"testing"

	"github.com/kotae-ai/kotae/internal/vector"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(8)
	ctx := context.Background()

	a1, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatal(err)
	}
	a2, _ := e.Embed(ctx, "same text")
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("same text produced different vectors")
		}
	}

	b, _ := e.Embed(ctx, "different text")
	same := true
	for i := range a1 {
		if a1[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	e := NewMockEmbedder(16)
	emb, err := e.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(vector.L2Norm(emb)-1) > 1e-5 {
		t.Errorf("norm = %f, want 1", vector.L2Norm(emb))
	}
}

func TestMockEmbedder_Preset(t *testing.T) {
	e := NewMockEmbedder(2)
	e.Preset("pinned", []float32{0, 1})
	emb, err := e.Embed(context.Background(), "pinned")
	if err != nil {
		t.Fatal(err)
	}
	if emb[0] != 0 || emb[1] != 1 {
		t.Errorf("preset vector = %v, want [0 1]", emb)
	}

	// Preset returns a copy; mutating the result must not poison later calls.
	emb[1] = 5
	again, _ := e.Embed(context.Background(), "pinned")
	if again[1] != 1 {
		t.Error("preset vector was mutated through a returned slice")
	}
}

func TestMockGenerator(t *testing.T) {
	g := &MockGenerator{Response: "canned"}
	ctx := context.Background()

	out, err := g.Generate(ctx, "prompt one", 100)
	if err != nil || out != "canned" {
		t.Errorf("Generate = %q, %v", out, err)
	}
	_, _ = g.Generate(ctx, "prompt two", 100)

	if g.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", g.Calls())
	}
	if g.LastPrompt() != "prompt two" {
		t.Errorf("LastPrompt() = %q", g.LastPrompt())
	}
}
