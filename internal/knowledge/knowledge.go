// Package knowledge owns the knowledge base aggregate: the embedding-record
// store plus the vector index. Ingestion is its only growth path, and an
// explicit reset its only shrink path besides per-video deletion.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/apperr"
	"github.com/kotae-ai/kotae/internal/fingerprint"
	"github.com/kotae-ai/kotae/internal/llm"
	"github.com/kotae-ai/kotae/internal/models"
	"github.com/kotae-ai/kotae/internal/storage"
	"github.com/kotae-ai/kotae/internal/vector"
)

// Base is the knowledge base. Writes are serialized by a single mutex around
// check-fingerprint, embed, and insert, so two concurrent ingests of the same
// new chunk cannot both pay for an embedding.
type Base struct {
	store         storage.Store
	index         vector.Index
	embedder      llm.Embedder
	maxChunkChars int
	logger        *zap.Logger // optional; when set, logs debug events

	mu sync.Mutex
}

// Option configures a Base.
type Option func(*Base)

// WithLogger sets a logger for debug output (chunks accepted, duplicates skipped).
func WithLogger(l *zap.Logger) Option {
	return func(b *Base) { b.logger = l }
}

// NewBase creates a knowledge base over the given store, index, and embedder.
// maxChunkChars bounds accepted chunk length; 0 disables the bound.
func NewBase(store storage.Store, index vector.Index, embedder llm.Embedder, maxChunkChars int, opts ...Option) *Base {
	b := &Base{
		store:         store,
		index:         index,
		embedder:      embedder,
		maxChunkChars: maxChunkChars,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Rebuild loads every persisted record into the vector index, in insertion
// order. Called once at startup before the base serves requests.
func (b *Base) Rebuild(ctx context.Context) error {
	records, err := b.store.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	for i, rec := range records {
		ids[i] = rec.Fingerprint
		vectors[i] = rec.Vector
	}
	if err := b.index.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if b.logger != nil {
		b.logger.Info("knowledge base rebuilt", zap.Int("records", len(records)))
	}
	return nil
}

type pendingChunk struct {
	text        string
	fingerprint string
	chunkIndex  int
}

// Ingest deduplicates, embeds, and stores the given chunks for a video.
// Blank chunks are skipped silently. A chunk over the configured length bound
// rejects the whole call before any provider work. Chunks whose normalized
// text was ever ingested before (any video) are counted as duplicates and
// never re-embedded. Each accepted chunk is committed atomically to both the
// store and the index; chunks committed before a failure stay committed.
func (b *Base) Ingest(ctx context.Context, chunks []string, videoID string, meta models.VideoMetadata) (accepted, duplicates int, err error) {
	// Batch ID ties together the log lines of one ingest call.
	batchID := uuid.NewString()
	candidates := make([]pendingChunk, 0, len(chunks))
	for i, text := range chunks {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if b.maxChunkChars > 0 && utf8.RuneCountInString(text) > b.maxChunkChars {
			return 0, 0, apperr.Validation("chunks",
				"chunk %d exceeds maximum length of %d characters", i, b.maxChunkChars)
		}
		candidates = append(candidates, pendingChunk{
			text:        text,
			fingerprint: fingerprint.FromText(text),
			chunkIndex:  i,
		})
	}
	if len(candidates) == 0 {
		return 0, 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]bool, len(candidates))
	pending := make([]pendingChunk, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.fingerprint] {
			duplicates++
			continue
		}
		seen[c.fingerprint] = true
		exists, err := b.store.HasFingerprint(ctx, c.fingerprint)
		if err != nil {
			return 0, duplicates, fmt.Errorf("check fingerprint: %w", err)
		}
		if exists {
			duplicates++
			continue
		}
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		if b.logger != nil {
			b.logger.Debug("ingest: all chunks were duplicates",
				zap.String("batch_id", batchID),
				zap.String("video_id", videoID),
				zap.Int("duplicates", duplicates))
		}
		return 0, duplicates, nil
	}

	texts := make([]string, len(pending))
	for i, c := range pending {
		texts[i] = c.text
	}
	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, duplicates, apperr.Provider("embedding", err)
	}

	for i, c := range pending {
		rec := &models.EmbeddingRecord{
			Fingerprint: c.fingerprint,
			VideoID:     videoID,
			ChunkIndex:  c.chunkIndex,
			Content:     c.text,
			Vector:      embeddings[i],
			Metadata:    meta,
		}
		if err := b.store.CreateRecord(ctx, rec); err != nil {
			return accepted, duplicates, fmt.Errorf("store record: %w", err)
		}
		if err := b.index.Add(ctx, []string{c.fingerprint}, [][]float32{embeddings[i]}); err != nil {
			// Keep store and index consistent: the record only exists
			// if both inserts succeeded.
			_ = b.store.DeleteRecord(ctx, c.fingerprint)
			return accepted, duplicates, fmt.Errorf("index record: %w", err)
		}
		accepted++
	}

	if b.logger != nil {
		b.logger.Debug("ingest complete",
			zap.String("batch_id", batchID),
			zap.String("video_id", videoID),
			zap.Int("accepted", accepted),
			zap.Int("duplicates", duplicates))
	}
	return accepted, duplicates, nil
}

// DeleteVideo removes every record first ingested for videoID from the store
// and the index, returning how many were removed.
func (b *Base) DeleteVideo(ctx context.Context, videoID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fingerprints, err := b.store.DeleteByVideoID(ctx, videoID)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	if len(fingerprints) == 0 {
		return 0, nil
	}
	if err := b.index.Remove(ctx, fingerprints); err != nil {
		return 0, fmt.Errorf("remove from index: %w", err)
	}
	return len(fingerprints), nil
}

// Reset drops every record. Admin operation only.
func (b *Base) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	if err := b.index.Reset(); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	if b.logger != nil {
		b.logger.Info("knowledge base reset")
	}
	return nil
}

// Size returns the number of records in the index.
func (b *Base) Size() int {
	return b.index.Size()
}
