package knowledge

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kotae-ai/kotae/internal/apperr"
	"github.com/kotae-ai/kotae/internal/llm"
	"github.com/kotae-ai/kotae/internal/models"
	"github.com/kotae-ai/kotae/internal/storage"
	"github.com/kotae-ai/kotae/internal/vector"
)

func newTestBase(t *testing.T, maxChunkChars int) (*Base, storage.Store, *llm.MockEmbedder) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	index, err := vector.NewMemoryIndex(4)
	if err != nil {
		t.Fatal(err)
	}
	embedder := llm.NewMockEmbedder(4)
	return NewBase(store, index, embedder, maxChunkChars), store, embedder
}

func TestIngest(t *testing.T) {
	kb, store, _ := newTestBase(t, 0)
	ctx := context.Background()

	accepted, duplicates, err := kb.Ingest(ctx,
		[]string{"The sky is blue.", "Water boils at 100 C."},
		"video-1", models.VideoMetadata{Title: "Facts"})
	if err != nil {
		t.Fatal(err)
	}
	if accepted != 2 || duplicates != 0 {
		t.Errorf("accepted=%d duplicates=%d, want 2/0", accepted, duplicates)
	}
	if kb.Size() != 2 {
		t.Errorf("index size = %d, want 2", kb.Size())
	}
	count, _ := store.CountRecords(ctx)
	if count != 2 {
		t.Errorf("record count = %d, want 2", count)
	}
}

func TestIngest_DuplicatesAreNeverReEmbedded(t *testing.T) {
	kb, _, embedder := newTestBase(t, 0)
	ctx := context.Background()

	chunks := []string{"The sky is blue.", "Water boils at 100 C."}
	if _, _, err := kb.Ingest(ctx, chunks, "video-1", models.VideoMetadata{}); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := embedder.Calls()

	// Same text from a different video: all duplicates, zero provider work.
	accepted, duplicates, err := kb.Ingest(ctx, chunks, "video-2", models.VideoMetadata{})
	if err != nil {
		t.Fatal(err)
	}
	if accepted != 0 || duplicates != 2 {
		t.Errorf("accepted=%d duplicates=%d, want 0/2", accepted, duplicates)
	}
	if embedder.Calls() != callsAfterFirst {
		t.Errorf("duplicates were re-embedded: %d calls after, %d before",
			embedder.Calls(), callsAfterFirst)
	}
	if kb.Size() != 2 {
		t.Errorf("index grew on duplicate ingest: size %d", kb.Size())
	}
}

func TestIngest_NormalizedDuplicatesCollapse(t *testing.T) {
	kb, _, _ := newTestBase(t, 0)
	ctx := context.Background()

	if _, _, err := kb.Ingest(ctx, []string{"The sky is blue."}, "video-1", models.VideoMetadata{}); err != nil {
		t.Fatal(err)
	}
	// Case and spacing differences normalize to the same fingerprint.
	accepted, duplicates, err := kb.Ingest(ctx, []string{"the  SKY is blue."}, "video-1", models.VideoMetadata{})
	if err != nil {
		t.Fatal(err)
	}
	if accepted != 0 || duplicates != 1 {
		t.Errorf("accepted=%d duplicates=%d, want 0/1", accepted, duplicates)
	}
}

func TestIngest_WithinBatchDedup(t *testing.T) {
	kb, _, embedder := newTestBase(t, 0)

	accepted, duplicates, err := kb.Ingest(context.Background(),
		[]string{"repeated chunk", "repeated chunk", "unique chunk"},
		"video-1", models.VideoMetadata{})
	if err != nil {
		t.Fatal(err)
	}
	if accepted != 2 || duplicates != 1 {
		t.Errorf("accepted=%d duplicates=%d, want 2/1", accepted, duplicates)
	}
	if embedder.Calls() != 2 {
		t.Errorf("embedded %d texts, want 2", embedder.Calls())
	}
}

func TestIngest_BlankChunksSkippedSilently(t *testing.T) {
	kb, _, _ := newTestBase(t, 0)

	accepted, duplicates, err := kb.Ingest(context.Background(),
		[]string{"", "  \t ", "real content"}, "video-1", models.VideoMetadata{})
	if err != nil {
		t.Fatal(err)
	}
	if accepted != 1 || duplicates != 0 {
		t.Errorf("accepted=%d duplicates=%d, want 1/0", accepted, duplicates)
	}
}

func TestIngest_AllBlankIsNoop(t *testing.T) {
	kb, _, embedder := newTestBase(t, 0)
	accepted, duplicates, err := kb.Ingest(context.Background(),
		[]string{"", "   "}, "video-1", models.VideoMetadata{})
	if err != nil || accepted != 0 || duplicates != 0 {
		t.Errorf("got %d/%d/%v, want 0/0/nil", accepted, duplicates, err)
	}
	if embedder.Calls() != 0 {
		t.Error("blank-only ingest should not touch the provider")
	}
}

func TestIngest_OversizeChunkRejectsWholeCall(t *testing.T) {
	kb, store, embedder := newTestBase(t, 10)
	ctx := context.Background()

	_, _, err := kb.Ingest(ctx,
		[]string{"short", "this chunk is far too long for the bound"},
		"video-1", models.VideoMetadata{})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if embedder.Calls() != 0 {
		t.Error("rejected call still reached the embedding provider")
	}
	count, _ := store.CountRecords(ctx)
	if count != 0 {
		t.Errorf("rejected call stored %d records", count)
	}
}

func TestIngest_LengthBoundCountsRunes(t *testing.T) {
	kb, store, _ := newTestBase(t, 10)
	ctx := context.Background()

	// Ten kana are thirty bytes but only ten characters; the bound must
	// count characters, or non-ASCII captions lose two thirds of the limit.
	accepted, _, err := kb.Ingest(ctx,
		[]string{strings.Repeat("あ", 10)}, "video-1", models.VideoMetadata{})
	if err != nil || accepted != 1 {
		t.Fatalf("got %d/%v, want 1/nil", accepted, err)
	}
	_, _, err = kb.Ingest(ctx,
		[]string{strings.Repeat("あ", 11)}, "video-1", models.VideoMetadata{})
	if !apperr.IsValidation(err) {
		t.Errorf("eleven-rune chunk: got %v, want validation error", err)
	}
	count, _ := store.CountRecords(ctx)
	if count != 1 {
		t.Errorf("stored %d records, want 1", count)
	}
}

func TestIngest_EmbedFailureIsProviderError(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	index, _ := vector.NewMemoryIndex(4)
	kb := NewBase(store, index, failingEmbedder{}, 0)

	_, _, err = kb.Ingest(context.Background(), []string{"text"}, "video-1", models.VideoMetadata{})
	if !apperr.IsProvider(err) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestIngest_IndexFailureCompensatesStore(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	embedder := llm.NewMockEmbedder(4)
	inner, _ := vector.NewMemoryIndex(4)
	idx := &failAfterIndex{Index: inner, failAfter: 1}
	kb := NewBase(store, idx, embedder, 0)
	ctx := context.Background()

	accepted, _, err := kb.Ingest(ctx, []string{"first", "second"}, "video-1", models.VideoMetadata{})
	if err == nil {
		t.Fatal("expected index failure")
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1 (first chunk committed)", accepted)
	}
	// The failed chunk's record must not linger in the store.
	count, _ := store.CountRecords(ctx)
	if count != 1 {
		t.Errorf("record count = %d, want 1 after compensation", count)
	}
}

func TestDeleteVideo_UnknownVideoIsNoop(t *testing.T) {
	kb, _, _ := newTestBase(t, 0)
	removed, err := kb.DeleteVideo(context.Background(), "nope")
	if err != nil || removed != 0 {
		t.Errorf("got %d, %v; want 0, nil", removed, err)
	}
}

func TestReset(t *testing.T) {
	kb, store, _ := newTestBase(t, 0)
	ctx := context.Background()
	if _, _, err := kb.Ingest(ctx, []string{"a", "b"}, "video-1", models.VideoMetadata{}); err != nil {
		t.Fatal(err)
	}

	if err := kb.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if kb.Size() != 0 {
		t.Errorf("index size after reset = %d", kb.Size())
	}
	count, _ := store.CountRecords(ctx)
	if count != 0 {
		t.Errorf("record count after reset = %d", count)
	}
}

func TestRebuild(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	embedder := llm.NewMockEmbedder(4)
	ctx := context.Background()

	index1, _ := vector.NewMemoryIndex(4)
	kb1 := NewBase(store, index1, embedder, 0)
	if _, _, err := kb1.Ingest(ctx, []string{"a", "b", "c"}, "video-1", models.VideoMetadata{}); err != nil {
		t.Fatal(err)
	}

	index2, _ := vector.NewMemoryIndex(4)
	kb2 := NewBase(store, index2, embedder, 0)
	if err := kb2.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}
	if kb2.Size() != 3 {
		t.Errorf("rebuilt size = %d, want 3", kb2.Size())
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("provider down")
}
func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}
func (failingEmbedder) Dimensions() int { return 4 }
func (failingEmbedder) Close() error    { return nil }

// failAfterIndex lets failAfter Add calls through, then fails.
type failAfterIndex struct {
	vector.Index
	failAfter int
	calls     int
}

func (f *failAfterIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	f.calls++
	if f.calls > f.failAfter {
		return errors.New("index full")
	}
	return f.Index.Add(ctx, ids, vectors)
}
