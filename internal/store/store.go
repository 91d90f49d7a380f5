// Package store persists the trained model slot: a single "latest"
// (estimator blob, metadata) pair written by training and read by inference.
//
// The slot is last-writer-wins. Every backend swaps blob and metadata
// together in one atomic operation so a concurrent reader never observes a
// half-written model.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// SlotLatest is the fixed slot key. This spec keeps no model-version
// history, only the most recent training run.
const SlotLatest = "latest"

// SavedModel is the persisted pair: the serialized estimator and the
// calibration metadata it must always travel with.
type SavedModel struct {
	Blob      []byte
	Metadata  types.ModelMetadata
	UpdatedAt time.Time
}

// ModelStore is the abstract single-slot model persistence capability the
// core requires. Implementations must swap blob and metadata atomically.
type ModelStore interface {
	// Save replaces the slot contents.
	Save(ctx context.Context, m SavedModel) error
	// Load returns the slot contents, or a not_found_model AppError when
	// nothing has been trained yet.
	Load(ctx context.Context) (*SavedModel, error)
}

// ErrNoModel constructs the canonical "train first" error.
func ErrNoModel() *types.AppError {
	return types.NewAppError(types.ErrCodeNotFoundModel,
		"no trained model available; run training first", nil)
}

// MemoryStore is an in-process ModelStore used by tests and embedded runs
// without any persistence backend.
type MemoryStore struct {
	mu    sync.RWMutex
	saved *SavedModel
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements ModelStore. The single pointer assignment under the lock
// is the atomic pair swap.
func (s *MemoryStore) Save(_ context.Context, m SavedModel) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}
	cp := m
	cp.Blob = append([]byte(nil), m.Blob...)
	s.mu.Lock()
	s.saved = &cp
	s.mu.Unlock()
	return nil
}

// Load implements ModelStore.
func (s *MemoryStore) Load(_ context.Context) (*SavedModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.saved == nil {
		return nil, ErrNoModel()
	}
	cp := *s.saved
	cp.Blob = append([]byte(nil), s.saved.Blob...)
	return &cp, nil
}
