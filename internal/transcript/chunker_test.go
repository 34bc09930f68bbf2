package transcript

import (
	"strings"
	"testing"
)

func TestChunk_SentenceBoundaries(t *testing.T) {
	text := "First sentence. Second sentence. Third sentence."
	chunks := Chunk(text, 35)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks: %v", len(chunks), chunks)
	}
	if chunks[0] != "First sentence. Second sentence." {
		t.Errorf("chunk 0 = %q", chunks[0])
	}
	if chunks[1] != "Third sentence." {
		t.Errorf("chunk 1 = %q", chunks[1])
	}
}

func TestChunk_RespectsBound(t *testing.T) {
	text := strings.Repeat("Some sentence here. ", 100)
	for i, c := range Chunk(text, 50) {
		if len(c) > 50 {
			t.Errorf("chunk %d is %d chars, over the bound: %q", i, len(c), c)
		}
	}
}

func TestChunk_HardSplitsOversizeSentence(t *testing.T) {
	// One "sentence" with no terminal punctuation, longer than the bound.
	text := strings.Repeat("word ", 50)
	chunks := Chunk(text, 30)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	for i, c := range chunks {
		if len(c) > 30 {
			t.Errorf("chunk %d is %d chars: %q", i, len(c), c)
		}
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestChunk_UnbreakableRun(t *testing.T) {
	text := strings.Repeat("x", 100)
	for i, c := range Chunk(text, 30) {
		if len(c) > 30 {
			t.Errorf("chunk %d is %d chars", i, len(c))
		}
	}
}

func TestChunk_Empty(t *testing.T) {
	if got := Chunk("", 100); got != nil {
		t.Errorf("empty text = %v, want nil", got)
	}
	if got := Chunk("   \n ", 100); got != nil {
		t.Errorf("blank text = %v, want nil", got)
	}
}

func TestChunk_DefaultBound(t *testing.T) {
	chunks := Chunk("Short text.", 0)
	if len(chunks) != 1 || chunks[0] != "Short text." {
		t.Errorf("got %v", chunks)
	}
}
