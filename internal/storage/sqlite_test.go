package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/kotae-ai/kotae/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &models.EmbeddingRecord{
		Fingerprint: "fp-1",
		VideoID:     "dQw4w9WgXcQ",
		ChunkIndex:  3,
		Content:     "The sky is blue.",
		Vector:      []float32{0.1, -0.25, float32(math.Pi), 1e-7},
		Metadata: models.VideoMetadata{
			Title:    "Sky facts",
			Uploader: "nature channel",
			URL:      "https://youtu.be/dQw4w9WgXcQ",
			Language: "en",
		},
	}
	if err := store.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	got, err := store.GetRecord(ctx, "fp-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.VideoID != rec.VideoID || got.ChunkIndex != rec.ChunkIndex || got.Content != rec.Content {
		t.Errorf("record fields changed: %+v", got)
	}
	if got.Metadata != rec.Metadata {
		t.Errorf("metadata changed: %+v", got.Metadata)
	}
	// The index is rebuilt from these vectors; they must survive bit-for-bit.
	if len(got.Vector) != len(rec.Vector) {
		t.Fatalf("vector length %d, want %d", len(got.Vector), len(rec.Vector))
	}
	for i := range rec.Vector {
		if got.Vector[i] != rec.Vector[i] {
			t.Errorf("vector[%d] = %v, want %v (exact)", i, got.Vector[i], rec.Vector[i])
		}
	}
}

func TestSQLiteStore_DuplicateFingerprintRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &models.EmbeddingRecord{Fingerprint: "fp-1", VideoID: "v1", Content: "a", Vector: []float32{1}}
	if err := store.CreateRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateRecord(ctx, rec); err == nil {
		t.Error("duplicate fingerprint insert should fail")
	}
}

func TestSQLiteStore_HasFingerprint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.HasFingerprint(ctx, "missing")
	if err != nil || exists {
		t.Errorf("HasFingerprint(missing) = %v, %v", exists, err)
	}
	_ = store.CreateRecord(ctx, &models.EmbeddingRecord{Fingerprint: "fp-1", VideoID: "v1", Content: "a", Vector: []float32{1}})
	exists, err = store.HasFingerprint(ctx, "fp-1")
	if err != nil || !exists {
		t.Errorf("HasFingerprint(fp-1) = %v, %v", exists, err)
	}
}

func TestSQLiteStore_GetRecordMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetRecord(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing record")
	}
}

func TestSQLiteStore_ListRecordsInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, fp := range []string{"c", "a", "b"} {
		rec := &models.EmbeddingRecord{Fingerprint: fp, VideoID: "v1", Content: fp, Vector: []float32{1}}
		if err := store.CreateRecord(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "a", "b"}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, rec := range records {
		if rec.Fingerprint != want[i] {
			t.Errorf("record %d = %s, want %s (insertion order)", i, rec.Fingerprint, want[i])
		}
	}
}

func TestSQLiteStore_DeleteByVideoID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, fp := range []string{"a", "b"} {
		_ = store.CreateRecord(ctx, &models.EmbeddingRecord{
			Fingerprint: fp, VideoID: "v1", ChunkIndex: i, Content: fp, Vector: []float32{1},
		})
	}
	_ = store.CreateRecord(ctx, &models.EmbeddingRecord{
		Fingerprint: "c", VideoID: "v2", Content: "c", Vector: []float32{1},
	})

	fps, err := store.DeleteByVideoID(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(fps) != 2 {
		t.Errorf("deleted fingerprints = %v, want 2", fps)
	}
	count, _ := store.CountRecords(ctx)
	if count != 1 {
		t.Errorf("count after delete = %d, want 1", count)
	}

	fps, err = store.DeleteByVideoID(ctx, "v1")
	if err != nil || fps != nil {
		t.Errorf("second delete = %v, %v; want nil, nil", fps, err)
	}
}

func TestSQLiteStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_ = store.CreateRecord(ctx, &models.EmbeddingRecord{Fingerprint: "a", VideoID: "v1", Content: "a", Vector: []float32{1}})

	if err := store.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	count, _ := store.CountRecords(ctx)
	if count != 0 {
		t.Errorf("count after reset = %d, want 0", count)
	}
}

func TestVectorCodec_ExactRoundTrip(t *testing.T) {
	in := []float32{0, -0, 1, -1, float32(math.SmallestNonzeroFloat32), float32(math.MaxFloat32), 0.30000001}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("length %d, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Float32bits(out[i]) != math.Float32bits(in[i]) {
			t.Errorf("bit pattern changed at %d: %x vs %x", i, math.Float32bits(out[i]), math.Float32bits(in[i]))
		}
	}
}
