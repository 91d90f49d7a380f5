package handlers

import (
	"fmt"
	"sync"
	"time"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// maxSessionLogs bounds the visible processing history.
const maxSessionLogs = 200

// Session is the explicit state of the current pipeline run: configuration,
// the pushed article batch, the latest result, the lifecycle stage, and the
// processing log. All access goes through its methods; the mutex makes the
// session safe for concurrent HTTP handlers.
type Session struct {
	mu sync.Mutex

	config    *types.PipelineConfig
	articles  []types.ArticleRecord
	cleaning  *types.CleaningStats
	result    *types.PredictionResult
	stage     types.PipelineStage
	logs      []types.ProcessingLog
	nextLogID int
	now       func() time.Time
}

// NewSession creates an idle session.
func NewSession() *Session {
	return &Session{
		stage:     types.StageIdle,
		nextLogID: 1,
		now:       time.Now,
	}
}

// SetConfig stores the run configuration and resets downstream state: a new
// configuration invalidates any previously pushed batch and result.
func (s *Session) SetConfig(cfg types.PipelineConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = &cfg
	s.articles = nil
	s.cleaning = nil
	s.result = nil
	s.stage = types.StageConfiguration
	s.appendLog(types.StageConfiguration, "pipeline configured", "ok")
}

// Config returns a copy of the session configuration, if set.
func (s *Session) Config() (types.PipelineConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return types.PipelineConfig{}, false
	}
	return *s.config, true
}

// SetArticles stores a cleaned article batch and its cleaning stats.
func (s *Session) SetArticles(items []types.ArticleRecord, stats types.CleaningStats, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.articles = items
	s.cleaning = &stats
	s.stage = types.StageDataPreview
	s.appendLog(types.StageIngest, fmt.Sprintf(
		"%s batch accepted: %d of %d records kept", source, stats.FinalCount, stats.TotalScraped), "ok")
}

// Articles returns the stored batch and its cleaning stats.
func (s *Session) Articles() ([]types.ArticleRecord, *types.CleaningStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]types.ArticleRecord, len(s.articles))
	copy(items, s.articles)
	var stats *types.CleaningStats
	if s.cleaning != nil {
		c := *s.cleaning
		stats = &c
	}
	return items, stats
}

// SetResult stores the latest pipeline result.
func (s *Session) SetResult(result *types.PredictionResult, stage types.PipelineStage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.result = result
	s.stage = types.StageDashboard
	s.appendLog(stage, "run completed with status "+string(result.Status), "ok")
}

// Result returns the latest result, if any.
func (s *Session) Result() (*types.PredictionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return nil, false
	}
	return s.result, true
}

// MarkStage advances the lifecycle stage and records a log line.
func (s *Session) MarkStage(stage types.PipelineStage, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stage = stage
	s.appendLog(stage, message, "ok")
}

// MarkFailure records a failed step without changing the stage.
func (s *Session) MarkFailure(stage types.PipelineStage, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLog(stage, message, "error")
}

// Status returns the current stage and a copy of the processing log.
func (s *Session) Status() (types.PipelineStage, []types.ProcessingLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := make([]types.ProcessingLog, len(s.logs))
	copy(logs, s.logs)
	return s.stage, logs
}

// appendLog adds a log line; callers must hold the mutex.
func (s *Session) appendLog(stage types.PipelineStage, message, status string) {
	s.logs = append(s.logs, types.ProcessingLog{
		ID:        s.nextLogID,
		Timestamp: s.now().UTC(),
		Stage:     stage,
		Message:   message,
		Status:    status,
	})
	s.nextLogID++
	if len(s.logs) > maxSessionLogs {
		s.logs = s.logs[len(s.logs)-maxSessionLogs:]
	}
}
