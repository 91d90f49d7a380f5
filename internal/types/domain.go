// Package types defines the shared domain model for the Sentinela Aburrá
// risk pipeline: article records, pipeline configuration, trained-model
// metadata, prediction results, and the application error taxonomy.
package types

import (
	"strings"
	"time"
)

// ArticleType partitions ingested articles into leading indicators and outcomes.
type ArticleType string

const (
	// ArticleTrigger marks proactive state actions (captures, raids, seizures).
	ArticleTrigger ArticleType = "TRIGGER_EVENT"
	// ArticleCrime marks reactive reports of completed crimes (homicides, extortion).
	ArticleCrime ArticleType = "CRIME_STAT"
)

// Granularity is the time-bucket size used to aggregate article timestamps
// into a regular series.
type Granularity string

const (
	GranularityDay   Granularity = "D"
	GranularityWeek  Granularity = "W"
	GranularityMonth Granularity = "M"
)

// Valid reports whether g is one of the supported bucket sizes.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// MinSamples is the minimum number of feature rows required before training
// is attempted at this granularity. Daily series need more history because
// individual days are noisy.
func (g Granularity) MinSamples() int {
	if g == GranularityDay {
		return 10
	}
	return 5
}

// HorizonUnits converts a horizon expressed in days into this granularity's
// native period units, never returning less than one period.
func (g Granularity) HorizonUnits(horizonDays int) int {
	var units int
	switch g {
	case GranularityWeek:
		units = int(float64(horizonDays)/7.0 + 0.5)
	case GranularityMonth:
		units = int(float64(horizonDays)/30.0 + 0.5)
	default:
		units = horizonDays
	}
	if units < 1 {
		units = 1
	}
	return units
}

// UnitSuffix is the short unit label used in feature names and model metadata
// ("d", "w" or "m").
func (g Granularity) UnitSuffix() string {
	switch g {
	case GranularityWeek:
		return "w"
	case GranularityMonth:
		return "m"
	default:
		return "d"
	}
}

// FeatureOverride is the manual "what-if" escape hatch: when present on an
// inference item it bypasses text-derived feature computation entirely.
type FeatureOverride struct {
	TriggerVolume float64 `json:"trigger_volume"`
	Relevance     float64 `json:"relevance"`
	Velocity      float64 `json:"velocity"`
}

// ArticleRecord is a single timestamped, typed, scored news record produced
// by upstream acquisition. The core consumes it read-only; records with
// unparseable dates are dropped (and counted) rather than rejected.
type ArticleRecord struct {
	ID             string           `json:"id"`
	Source         string           `json:"source,omitempty"`
	Date           string           `json:"date"`
	Headline       string           `json:"headline"`
	Snippet        string           `json:"snippet"`
	URL            string           `json:"url"`
	RelevanceScore float64          `json:"relevance_score" validate:"min=0,max=1"`
	Type           ArticleType      `json:"type" validate:"required,oneof=TRIGGER_EVENT CRIME_STAT"`
	Overrides      *FeatureOverride `json:"manual_overrides,omitempty"`
}

// articleDateLayouts are the accepted date formats, tried in order.
var articleDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParsedDate parses the record's date field, normalized to UTC midnight of
// the calendar day. ok is false when no layout matches.
func (a ArticleRecord) ParsedDate() (time.Time, bool) {
	raw := strings.TrimSpace(a.Date)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range articleDateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// Text returns the combined free text used for neighborhood mention matching.
func (a ArticleRecord) Text() string {
	if a.Snippet == "" {
		return a.Headline
	}
	return a.Headline + " " + a.Snippet
}

// PipelineConfig is the user-supplied configuration for one pipeline run.
// The keyword lists steer upstream acquisition; the core consumes only the
// date cutoff, horizon and granularity.
type PipelineConfig struct {
	TargetOrganizations []string    `json:"target_organizations"`
	LocalCombos         []string    `json:"local_combos"`
	DateRangeStart      string      `json:"date_range_start"`
	PredictorEvents     []string    `json:"predictor_events"`
	PredictorRanks      []string    `json:"predictor_ranks"`
	TargetCrimes        []string    `json:"target_crimes"`
	ForecastHorizonDays int         `json:"forecast_horizon" validate:"omitempty,min=1,max=365"`
	Granularity         Granularity `json:"granularity" validate:"omitempty,oneof=D W M"`
}

// Default pipeline parameters applied when the caller omits them.
const (
	DefaultHorizonDays = 7
	DefaultGranularity = GranularityWeek
)

// Normalized returns a copy with defaults applied for omitted fields.
func (c PipelineConfig) Normalized() PipelineConfig {
	if c.ForecastHorizonDays <= 0 {
		c.ForecastHorizonDays = DefaultHorizonDays
	}
	if !c.Granularity.Valid() {
		c.Granularity = DefaultGranularity
	}
	return c
}

// DateCutoff parses the optional date_range_start field. ok is false when the
// field is empty or unparseable (callers treat both as "no cutoff").
func (c PipelineConfig) DateCutoff() (time.Time, bool) {
	if strings.TrimSpace(c.DateRangeStart) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(c.DateRangeStart))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// ModelMetadata is the calibration context persisted alongside a trained
// estimator. Inference always uses these values, never the caller's config,
// so feature engineering stays consistent with what the model saw in training.
type ModelMetadata struct {
	RunID                   string      `json:"run_id"`
	Granularity             Granularity `json:"granularity"`
	HorizonDays             int         `json:"horizon_days"`
	HorizonUnits            int         `json:"horizon_units"`
	HorizonSuffix           string      `json:"horizon_suffix"`
	ModelName               string      `json:"model_name"`
	MaxObservedCrimes       float64     `json:"max_observed_crimes"`
	MaxObservedZoneActivity float64     `json:"max_observed_zone_activity"`
	TrainedAt               time.Time   `json:"trained_at"`
}

// CleaningStats reports what the ingest cleaning pass did to a raw batch.
type CleaningStats struct {
	TotalScraped      int `json:"total_scraped"`
	FilteredRelevance int `json:"filtered_relevance"`
	FilteredDate      int `json:"filtered_date"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	FinalCount        int `json:"final_count"`
}

// PipelineStage tracks where a session currently is in the run lifecycle.
type PipelineStage string

const (
	StageIdle          PipelineStage = "IDLE"
	StageConfiguration PipelineStage = "CONFIGURATION"
	StageIngest        PipelineStage = "INGEST"
	StageDataPreview   PipelineStage = "DATA_PREVIEW"
	StageTraining      PipelineStage = "TRAINING"
	StageInference     PipelineStage = "INFERENCE"
	StageDashboard     PipelineStage = "DASHBOARD"
)

// ProcessingLog is one line of the session's visible processing history.
type ProcessingLog struct {
	ID        int           `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Stage     PipelineStage `json:"stage"`
	Message   string        `json:"message"`
	Status    string        `json:"status"`
}
