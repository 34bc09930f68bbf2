package vector

import (
	"context"
	"math"
	"testing"
)

func TestMemoryIndex_SearchOrdering(t *testing.T) {
	idx, err := NewMemoryIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// Query along the x axis: scores 0.9, 0.5, 0.1 by construction.
	err = idx.Add(ctx,
		[]string{"low", "high", "mid"},
		[][]float32{{0.1, 0}, {0.9, 0}, {0.5, 0}},
	)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	wantOrder := []string{"high", "mid", "low"}
	wantScore := []float64{0.9, 0.5, 0.1}
	for i, hit := range hits {
		if hit.ID != wantOrder[i] {
			t.Errorf("hit %d = %s, want %s", i, hit.ID, wantOrder[i])
		}
		if math.Abs(hit.Score-wantScore[i]) > 1e-6 {
			t.Errorf("hit %d score = %f, want %f", i, hit.Score, wantScore[i])
		}
	}
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()

	// All three score identically against the query.
	if err := idx.Add(ctx,
		[]string{"first", "second", "third"},
		[][]float32{{1, 0}, {1, 0}, {1, 0}},
	); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	for i, hit := range hits {
		if hit.ID != want[i] {
			t.Errorf("tie order broken: hit %d = %s, want %s", i, hit.ID, want[i])
		}
	}
}

func TestMemoryIndex_DimensionMismatchFailsFast(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()

	// Second vector is wrong: nothing may be added.
	err := idx.Add(ctx,
		[]string{"ok", "bad"},
		[][]float32{{1, 0, 0}, {1, 0}},
	)
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if idx.Size() != 0 {
		t.Errorf("index mutated despite failed add: size %d", idx.Size())
	}

	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected query dimension mismatch error")
	}
}

func TestMemoryIndex_KBounds(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}})

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("k larger than index should clamp, got %d hits", len(hits))
	}

	hits, err = idx.Search(ctx, []float32{1, 0}, 0)
	if err != nil || hits != nil {
		t.Errorf("k=0 should return nothing, got %v, %v", hits, err)
	}
}

func TestMemoryIndex_RemoveAndReset(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a", "b", "c"}, [][]float32{{1, 0}, {0, 1}, {1, 0}})

	if err := idx.Remove(ctx, []string{"b"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 2 {
		t.Errorf("size after remove = %d, want 2", idx.Size())
	}
	hits, _ := idx.Search(ctx, []float32{0, 1}, 3)
	for _, hit := range hits {
		if hit.ID == "b" {
			t.Error("removed entry still searchable")
		}
	}

	if err := idx.Reset(); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 0 {
		t.Errorf("size after reset = %d, want 0", idx.Size())
	}
}

func TestMemoryIndex_AddCopiesVectors(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	vec := []float32{1, 0}
	_ = idx.Add(ctx, []string{"a"}, [][]float32{vec})

	// Mutating the caller's slice must not corrupt the index.
	vec[0] = 0
	hits, _ := idx.Search(ctx, []float32{1, 0}, 1)
	if hits[0].Score != 1 {
		t.Errorf("index shares caller memory: score %f", hits[0].Score)
	}
}
