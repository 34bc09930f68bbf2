package models

import "time"

// EmbeddingRecord is one stored chunk with its embedding vector. There is
// exactly one record per unique normalized chunk text; re-ingesting the same
// text (for any video) does not create a second record.
type EmbeddingRecord struct {
	Fingerprint string        `json:"fingerprint" db:"fingerprint"`
	VideoID     string        `json:"video_id" db:"video_id"`
	ChunkIndex  int           `json:"chunk_index" db:"chunk_index"`
	Content     string        `json:"content" db:"content"`
	Vector      []float32     `json:"-" db:"-"`
	Metadata    VideoMetadata `json:"metadata" db:"metadata"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// QueryResult is a single retrieval hit returned alongside an answer.
// Constructed per question, never persisted.
type QueryResult struct {
	Text     string        `json:"text"`
	Score    float64       `json:"score"`
	Metadata VideoMetadata `json:"metadata"`
}
