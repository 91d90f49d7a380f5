package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// SQLiteStore persists the model slot in an embedded SQLite database for
// local single-process deployments that carry no Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path and
// ensures the slot table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	// The slot is read and written by one process; a single connection
	// avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS model_slot (
			slot       TEXT PRIMARY KEY,
			model_blob BLOB NOT NULL,
			metadata   TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating model_slot table: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save implements ModelStore. A single INSERT OR REPLACE keeps the
// blob/metadata swap atomic.
func (s *SQLiteStore) Save(ctx context.Context, m SavedModel) error {
	metaJSON, err := json.Marshal(m.Metadata)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore,
			"marshaling model metadata", err)
	}
	compressed, err := Compress(m.Blob)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore,
			"compressing model blob", err)
	}
	updatedAt := m.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO model_slot (slot, model_blob, metadata, updated_at)
		VALUES (?, ?, ?, ?)`,
		SlotLatest, compressed, string(metaJSON), updatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore,
			"writing model slot", err)
	}
	return nil
}

// Load implements ModelStore.
func (s *SQLiteStore) Load(ctx context.Context) (*SavedModel, error) {
	var (
		compressed []byte
		metaJSON   string
		updatedRaw string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT model_blob, metadata, updated_at
		FROM model_slot WHERE slot = ?`, SlotLatest).
		Scan(&compressed, &metaJSON, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoModel()
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore,
			"reading model slot", err)
	}

	blob, err := Decompress(compressed)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore,
			"decompressing model blob", err)
	}
	var meta types.ModelMetadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore,
			"unmarshaling model metadata", err)
	}
	updatedAt, _ := time.Parse(time.RFC3339Nano, updatedRaw)
	return &SavedModel{Blob: blob, Metadata: meta, UpdatedAt: updatedAt}, nil
}
