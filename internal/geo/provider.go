package geo

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Provider owns the current neighborhood index and supports atomic
// replacement when the reference file changes on disk. Readers always see
// a fully built index, never a partially loaded one.
type Provider struct {
	path      string
	districts []District
	logger    *slog.Logger

	mu  sync.RWMutex
	idx *Index
}

// NewProvider loads the initial index from path. districts may be nil to use
// the built-in catalog.
func NewProvider(path string, districts []District, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idx, err := LoadIndexCSV(path, districts)
	if err != nil {
		return nil, err
	}
	return &Provider{
		path:      path,
		districts: districts,
		logger:    logger,
		idx:       idx,
	}, nil
}

// NewStaticProvider wraps an already built index; Watch is a no-op source
// for it since there is no backing file. Used by tests and embedded callers.
func NewStaticProvider(idx *Index) *Provider {
	return &Provider{idx: idx, logger: slog.Default()}
}

// Current returns the active index.
func (p *Provider) Current() *Index {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.idx
}

// reload builds a fresh index from disk and swaps it in. A load failure
// leaves the previous index in place.
func (p *Provider) reload() {
	idx, err := LoadIndexCSV(p.path, p.districts)
	if err != nil {
		p.logger.Error("reference data reload failed, keeping previous index",
			"path", p.path, "error", err)
		return
	}
	p.mu.Lock()
	p.idx = idx
	p.mu.Unlock()
	p.logger.Info("reference data reloaded",
		"path", p.path, "barrios", len(idx.Entries()))
}

// Watch blocks until ctx is cancelled, reloading the index whenever the
// reference file is written or replaced. Intended to run in its own goroutine.
func (p *Provider) Watch(ctx context.Context) error {
	if p.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(p.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				p.reload()
			}
			// Editors often replace files via rename; re-arm the watch.
			if ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Remove) {
				_ = watcher.Add(p.path)
				p.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("reference data watcher error", "error", err)
		}
	}
}
