// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kotae-ai/kotae/internal/models"
)

// SQLiteStore implements Store using SQLite. Vectors are stored as
// little-endian float32 blobs so round-tripping loses no precision.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embedding_records (
		fingerprint TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		vector BLOB NOT NULL,
		metadata TEXT,
		seq INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_video_id ON embedding_records(video_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateRecord inserts a record. Fails if the fingerprint already exists;
// the ingestion pipeline checks HasFingerprint first under its own lock.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec *models.EmbeddingRecord) error {
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	rec.CreatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO embedding_records (fingerprint, video_id, chunk_index, content, vector, metadata, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM embedding_records), ?)`,
		rec.Fingerprint, rec.VideoID, rec.ChunkIndex, rec.Content,
		encodeVector(rec.Vector), string(metadataJSON), rec.CreatedAt,
	)
	return err
}

// DeleteRecord removes a record by fingerprint. Used to compensate when the
// vector index rejects the paired insert.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embedding_records WHERE fingerprint = ?`, fingerprint)
	return err
}

// GetRecord returns a record by fingerprint.
func (s *SQLiteStore) GetRecord(ctx context.Context, fingerprint string) (*models.EmbeddingRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, video_id, chunk_index, content, vector, metadata, created_at
		 FROM embedding_records WHERE fingerprint = ?`, fingerprint,
	)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record not found: %s", fingerprint)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// HasFingerprint reports whether a record with the given fingerprint exists.
func (s *SQLiteStore) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM embedding_records WHERE fingerprint = ?`, fingerprint,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListRecords returns all records in insertion order.
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]*models.EmbeddingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint, video_id, chunk_index, content, vector, metadata, created_at
		 FROM embedding_records ORDER BY seq`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.EmbeddingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteByVideoID removes all records first ingested for videoID and returns
// their fingerprints so the caller can evict them from the vector index.
func (s *SQLiteStore) DeleteByVideoID(ctx context.Context, videoID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint FROM embedding_records WHERE video_id = ?`, videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fingerprints []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		fingerprints = append(fingerprints, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fingerprints) == 0 {
		return nil, nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embedding_records WHERE video_id = ?`, videoID); err != nil {
		return nil, err
	}
	return fingerprints, nil
}

// CountRecords returns the total number of records.
func (s *SQLiteStore) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embedding_records`).Scan(&count)
	return count, err
}

// Reset removes every record. Admin operation only.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embedding_records`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.EmbeddingRecord, error) {
	var rec models.EmbeddingRecord
	var vectorBlob []byte
	var metadataJSON string
	err := row.Scan(&rec.Fingerprint, &rec.VideoID, &rec.ChunkIndex, &rec.Content,
		&vectorBlob, &metadataJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Vector = decodeVector(vectorBlob)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}
