// Package storage defines persistence for embedding records.
package storage

import (
	"context"

	"github.com/kotae-ai/kotae/internal/models"
)

// Store persists embedding records keyed by content fingerprint. It is the
// durable snapshot of the knowledge base: the vector index is rebuilt from it
// at startup, so writing a record and reading it back must reconstruct the
// vector bit-for-bit.
type Store interface {
	CreateRecord(ctx context.Context, rec *models.EmbeddingRecord) error
	DeleteRecord(ctx context.Context, fingerprint string) error
	GetRecord(ctx context.Context, fingerprint string) (*models.EmbeddingRecord, error)
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)

	// ListRecords returns all records in insertion order, for index rebuild.
	ListRecords(ctx context.Context) ([]*models.EmbeddingRecord, error)
	// DeleteByVideoID removes all records first ingested for the given video
	// and returns their fingerprints.
	DeleteByVideoID(ctx context.Context, videoID string) ([]string, error)

	CountRecords(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error

	Close() error
}
