package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx, so the
// store works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the model slot in a single-row Postgres table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a PostgresStore backed by the given connection.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the slot table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS model_slot (
			slot       TEXT PRIMARY KEY,
			model_blob BYTEA NOT NULL,
			metadata   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating model_slot table: %w", err)
	}
	return nil
}

// Save implements ModelStore. Blob and metadata land in one upsert
// statement; readers see either the old pair or the new pair, never a mix.
func (s *PostgresStore) Save(ctx context.Context, m SavedModel) error {
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

	_, err = s.db.Exec(ctx, `
		INSERT INTO model_slot (slot, model_blob, metadata, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slot) DO UPDATE
		SET model_blob = EXCLUDED.model_blob,
		    metadata   = EXCLUDED.metadata,
		    updated_at = EXCLUDED.updated_at`,
		SlotLatest, compressed, metaJSON, updatedAt)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore,
			"writing model slot", err)
	}
	return nil
}

// Load implements ModelStore.
func (s *PostgresStore) Load(ctx context.Context) (*SavedModel, error) {
	var (
		compressed []byte
		metaJSON   []byte
		updatedAt  time.Time
	)
	err := s.db.QueryRow(ctx, `
		SELECT model_blob, metadata, updated_at
		FROM model_slot WHERE slot = $1`, SlotLatest).
		Scan(&compressed, &metaJSON, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
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
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore,
			"unmarshaling model metadata", err)
	}
	return &SavedModel{Blob: blob, Metadata: meta, UpdatedAt: updatedAt}, nil
}
