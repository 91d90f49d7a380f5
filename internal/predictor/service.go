// Package predictor orchestrates the full risk pipeline: series building,
// multi-model training and selection, zone attribution, risk composition,
// and model-slot persistence. It exposes the two entry points used by the
// outside world, TrainAndPredict and PredictOnDemand.
package predictor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vaskiax/sentinela-aburr--ai/internal/geo"
	"github.com/vaskiax/sentinela-aburr--ai/internal/mlearn"
	"github.com/vaskiax/sentinela-aburr--ai/internal/risk"
	"github.com/vaskiax/sentinela-aburr--ai/internal/store"
	"github.com/vaskiax/sentinela-aburr--ai/internal/timeseries"
	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
	"github.com/vaskiax/sentinela-aburr--ai/internal/zonerisk"
)

// MinTrainingItems is the smallest batch the full training path accepts;
// below it the service returns the heuristic fallback result instead.
const MinTrainingItems = 20

// FallbackRiskScore is the fixed low score of the heuristic fallback result.
const FallbackRiskScore = 10.0

// maxSampleRows caps how many feature rows are attached to a result for
// inspection/download.
const maxSampleRows = 10

// maxAffectedZones caps the affected-zones summary list.
const maxAffectedZones = 5

// featureSource is the resolved origin of the inference feature vector:
// either text-derived from the input articles or a manual what-if override.
// Resolved once at the start of PredictOnDemand, not probed per item.
type featureSource struct {
	override *types.FeatureOverride
}

// Service is the prediction orchestrator. Single-threaded and batch
// oriented: one call in, one result out; the only shared state between
// calls is the persisted model slot.
type Service struct {
	geoProvider *geo.Provider
	modelStore  store.ModelStore
	seed        int64
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSeed fixes the estimator seed, making runs reproducible.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.seed = seed }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(geoProvider *geo.Provider, modelStore store.ModelStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		geoProvider: geoProvider,
		modelStore:  modelStore,
		seed:        mlearn.DefaultSeed,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrainAndPredict runs the full pipeline on a training batch. Undersized or
// temporally thin batches degrade into a valid fallback result, never an
// error; only infrastructure failures (model persistence, estimator fitting)
// propagate as errors.
func (s *Service) TrainAndPredict(ctx context.Context, cfg types.PipelineConfig, items []types.ArticleRecord) (*types.PredictionResult, error) {
	cfg = cfg.Normalized()

	if len(items) < MinTrainingItems {
		s.logger.Info("falling back to heuristic result",
			"items", len(items), "required", MinTrainingItems)
		return s.fallbackResult(cfg, fmt.Sprintf(
			"only %d articles available; at least %d are required for model training",
			len(items), MinTrainingItems)), nil
	}

	cutoff, _ := cfg.DateCutoff()
	ds, err := timeseries.Build(items, timeseries.Params{
		Granularity: cfg.Granularity,
		HorizonDays: cfg.ForecastHorizonDays,
		DateCutoff:  cutoff,
		Training:    true,
	})
	if err != nil {
		if types.HasCode(err, types.ErrCodeInsufficientData) {
			s.logger.Info("insufficient periods after feature engineering, falling back",
				"error", err)
			return s.fallbackResult(cfg, err.Error()), nil
		}
		return nil, err
	}

	trainX, trainY, testX, testY := mlearn.SplitChrono(ds.X, ds.Y)
	sel, err := mlearn.SelectBest(ctx, mlearn.DefaultRoster(s.seed), trainX, trainY, testX, testY, s.logger)
	if err != nil {
		return nil, err
	}

	lastRow, _ := ds.LastRow()
	features := []float64{lastRow.TriggersLastH, lastRow.RelevanceLastH, lastRow.Velocity}
	predictedVolume := nonNegative(sel.Best.Predict(features))

	maxObserved := maxOf(trainY)

	// Zone attribution over the same date-filtered records the series saw.
	filtered := filterByCutoff(items, cutoff)
	engine := zonerisk.New(s.geoProvider.Current(), s.logger)
	benchmark := engine.HistoricalMaxZoneActivity(filtered)
	zoneRisks, maxZone := engine.CalculateZoneRisks(filtered, benchmark)

	comp := risk.Compose(predictedVolume, maxObserved, maxZone)

	horizonUnits := cfg.Granularity.HorizonUnits(cfg.ForecastHorizonDays)
	meta := types.ModelMetadata{
		RunID:                   uuid.NewString(),
		Granularity:             cfg.Granularity,
		HorizonDays:             cfg.ForecastHorizonDays,
		HorizonUnits:            horizonUnits,
		HorizonSuffix:           fmt.Sprintf("%d%s", horizonUnits, cfg.Granularity.UnitSuffix()),
		ModelName:               sel.BestName,
		MaxObservedCrimes:       maxObserved,
		MaxObservedZoneActivity: benchmark,
		TrainedAt:               s.now().UTC(),
	}

	blob, err := mlearn.MarshalEstimator(sel.Best)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore,
			"serializing trained model", err)
	}
	if err := s.modelStore.Save(ctx, store.SavedModel{Blob: blob, Metadata: meta}); err != nil {
		return nil, err
	}

	result := s.baseResult(comp, predictedVolume, cfg.TargetCrimes, cfg.ForecastHorizonDays)
	result.Status = types.ResultStatusSuccess
	result.ZoneRisks = zoneRisks
	result.AffectedZones = affectedZones(zoneRisks)
	result.FeatureImportance = importanceList(sel.Best, horizonUnits, cfg.Granularity)
	result.Timeline = s.timeline(ds, sel.Best, maxObserved)
	result.TrainingMetrics = types.TrainingMetrics{
		F1Score:     sel.Scores[sel.BestName].RMSE,
		DatasetSize: len(ds.X),
		TestSize:    len(testY),
	}
	result.ModelComparison = sel.Scores
	result.ModelMetadata = &meta
	result.DataSamples = buildSamples(ds, trainX, trainY, testX, testY, features, cfg.Granularity)
	result.CalculationBreakdown["zone_benchmark"] = benchmark
	result.CalculationBreakdown["horizon_units"] = horizonUnits
	result.CalculationBreakdown["dropped_unparseable_dates"] = ds.DroppedDates
	result.CalculationBreakdown["duplicates_removed"] = ds.DuplicatesRemoved

	s.logger.Info("training run complete",
		"run_id", meta.RunID,
		"model", meta.ModelName,
		"risk_score", result.RiskScore,
		"level", result.RiskLevel,
	)
	return result, nil
}

// PredictOnDemand runs inference with the persisted model. Feature
// engineering uses the persisted metadata's granularity and horizon, never
// the caller's config, so inference stays consistent with training.
func (s *Service) PredictOnDemand(ctx context.Context, newItems []types.ArticleRecord, cfg types.PipelineConfig) (*types.PredictionResult, error) {
	saved, err := s.modelStore.Load(ctx)
	if err != nil {
		// Includes the not_found_model case: the one condition expected to
		// surface as an error so the caller can prompt "train first".
		return nil, err
	}
	meta := saved.Metadata
	est, err := mlearn.UnmarshalEstimator(saved.Blob)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore,
			"deserializing persisted model", err)
	}

	src := resolveFeatureSource(newItems)
	var (
		features  []float64
		zoneRisks []types.ZoneRisk
		maxZone   float64
		warnings  []types.ResultWarning
		sample    *types.FeatureSample
	)

	if src.override != nil {
		// Manual what-if: no text to attribute to a zone, so zone risk is
		// forced to zero.
		o := src.override
		features = []float64{o.TriggerVolume, o.Relevance, clampVelocity(o.Velocity)}
		sample = &types.FeatureSample{
			Period:         "manual_override",
			TriggersLastH:  features[0],
			RelevanceLastH: features[1],
			Velocity:       features[2],
		}
	} else {
		if !hasTriggers(newItems) {
			return s.neutralResult(meta), nil
		}
		ds, err := timeseries.Build(newItems, timeseries.Params{
			Granularity: meta.Granularity,
			HorizonDays: meta.HorizonDays,
		})
		if err != nil {
			return nil, err
		}
		lastRow, ok := ds.LastRow()
		if !ok {
			return s.neutralResult(meta), nil
		}
		features = []float64{lastRow.TriggersLastH, lastRow.RelevanceLastH, lastRow.Velocity}
		sample = &types.FeatureSample{
			Period:         lastRow.Period.Format("2006-01-02"),
			TriggersLastH:  lastRow.TriggersLastH,
			RelevanceLastH: lastRow.RelevanceLastH,
			Velocity:       lastRow.Velocity,
		}
		if ds.SpanDays() < meta.HorizonDays {
			warnings = append(warnings, types.ResultWarning{
				Code: types.ErrCodeDataScarcity,
				Message: fmt.Sprintf(
					"input spans %d days, shorter than the trained %d-day horizon; risk may be underestimated",
					ds.SpanDays(), meta.HorizonDays),
			})
		}

		engine := zonerisk.New(s.geoProvider.Current(), s.logger)
		zoneRisks, maxZone = engine.CalculateZoneRisks(newItems, meta.MaxObservedZoneActivity)
	}

	predictedVolume := nonNegative(est.Predict(features))
	comp := risk.Compose(predictedVolume, meta.MaxObservedCrimes, maxZone)

	result := s.baseResult(comp, predictedVolume, cfg.TargetCrimes, meta.HorizonDays)
	result.Status = types.ResultStatusSuccess
	result.Warnings = warnings
	result.ZoneRisks = zoneRisks
	result.AffectedZones = affectedZones(zoneRisks)
	result.FeatureImportance = importanceList(est, meta.HorizonUnits, meta.Granularity)
	result.ModelMetadata = &meta
	result.DataSamples = &types.DataSamples{Inference: sample}
	result.CalculationBreakdown["zone_benchmark"] = meta.MaxObservedZoneActivity
	result.CalculationBreakdown["horizon_units"] = meta.HorizonUnits
	if src.override != nil {
		result.CalculationBreakdown["feature_source"] = "manual_override"
	} else {
		result.CalculationBreakdown["feature_source"] = "text_derived"
	}

	s.logger.Info("on-demand prediction complete",
		"model", meta.ModelName,
		"risk_score", result.RiskScore,
		"feature_source", result.CalculationBreakdown["feature_source"],
	)
	return result, nil
}

// baseResult assembles the fields shared by every result shape.
func (s *Service) baseResult(comp risk.Composition, predictedVolume float64, targetCrimes []string, horizonDays int) *types.PredictionResult {
	return &types.PredictionResult{
		RiskScore:            comp.FinalRisk,
		RiskLevel:            comp.Level,
		RiskColor:            comp.Color,
		ModelRisk:            comp.ModelRisk,
		ZoneRiskMax:          comp.ZoneRisk,
		PredictedVolume:      predictedVolume,
		ExpectedCrimeType:    expectedCrime(targetCrimes),
		DurationDays:         horizonDays,
		ConfidenceInterval:   comp.ConfidenceInterval,
		CalculationBreakdown: comp.Breakdown,
		GeneratedAt:          s.now().UTC(),
	}
}

// fallbackResult is the degenerate terminal state for undersized input:
// a fixed low-risk score with an explanatory message, not an error. The
// level is pinned to LOW regardless of where the fixed score sits in the
// threshold table: a heuristic guess must never read as a real elevation.
func (s *Service) fallbackResult(cfg types.PipelineConfig, message string) *types.PredictionResult {
	return &types.PredictionResult{
		RiskScore:         FallbackRiskScore,
		RiskLevel:         types.RiskLevelLow,
		RiskColor:         risk.Color(types.RiskLevelLow),
		ModelRisk:         FallbackRiskScore,
		ExpectedCrimeType: expectedCrime(cfg.TargetCrimes),
		DurationDays:      cfg.ForecastHorizonDays,
		ConfidenceInterval: types.ConfidenceInterval{
			Low:  0,
			High: FallbackRiskScore + risk.ConfidenceMargin,
		},
		Status:  types.ResultStatusFallback,
		Message: message,
		CalculationBreakdown: map[string]any{
			"mode":       "heuristic_fallback",
			"risk_score": FallbackRiskScore,
			"reason":     message,
		},
		GeneratedAt: s.now().UTC(),
	}
}

// neutralResult is the zero-risk result returned when inference input holds
// no trigger events. Flagged distinctly from full success.
func (s *Service) neutralResult(meta types.ModelMetadata) *types.PredictionResult {
	return &types.PredictionResult{
		RiskLevel:    types.RiskLevelLow,
		RiskColor:    risk.Color(types.RiskLevelLow),
		DurationDays: meta.HorizonDays,
		Status:       types.ResultStatusNeutral,
		Message:      "no trigger events in input; returning neutral zero-risk result",
		Warnings: []types.ResultWarning{{
			Code:    types.ErrCodeNoTriggerEvents,
			Message: "input contains no trigger-type records",
		}},
		ModelMetadata: &meta,
		CalculationBreakdown: map[string]any{
			"mode": "neutral_no_triggers",
		},
		GeneratedAt: s.now().UTC(),
	}
}

// timeline builds the historical per-period risk trace: the model-risk
// component recomputed at every period from that period's features.
func (s *Service) timeline(ds *timeseries.Dataset, est mlearn.Estimator, maxObserved float64) []types.TimelinePoint {
	points := make([]types.TimelinePoint, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		pred := nonNegative(est.Predict([]float64{row.TriggersLastH, row.RelevanceLastH, row.Velocity}))
		comp := risk.Compose(pred, maxObserved, 0)
		points = append(points, types.TimelinePoint{
			Period:       row.Period.Format("2006-01-02"),
			RiskScore:    comp.ModelRisk,
			TriggerCount: row.TriggerCount,
			CrimeCount:   row.CrimeCount,
		})
	}
	return points
}

// resolveFeatureSource scans the input once for a manual override bundle;
// the first one found wins.
func resolveFeatureSource(items []types.ArticleRecord) featureSource {
	for _, it := range items {
		if it.Overrides != nil {
			return featureSource{override: it.Overrides}
		}
	}
	return featureSource{}
}

func hasTriggers(items []types.ArticleRecord) bool {
	for _, it := range items {
		if it.Type == types.ArticleTrigger {
			return true
		}
	}
	return false
}

func filterByCutoff(items []types.ArticleRecord, cutoff time.Time) []types.ArticleRecord {
	if cutoff.IsZero() {
		return items
	}
	out := make([]types.ArticleRecord, 0, len(items))
	for _, it := range items {
		d, ok := it.ParsedDate()
		if !ok || d.Before(cutoff) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func affectedZones(zoneRisks []types.ZoneRisk) []string {
	zones := make([]string, 0, maxAffectedZones)
	for _, z := range zoneRisks {
		if z.Mentions == 0 {
			continue
		}
		zones = append(zones, z.District)
		if len(zones) == maxAffectedZones {
			break
		}
	}
	return zones
}

func importanceList(est mlearn.Estimator, horizonUnits int, g types.Granularity) []types.FeatureImportance {
	names := timeseries.FeatureNames(horizonUnits, g)
	imps := est.Importances()
	out := make([]types.FeatureImportance, 0, len(names))
	for i, name := range names {
		v := 0.0
		if i < len(imps) {
			v = imps[i] * 100
		}
		out = append(out, types.FeatureImportance{Feature: name, Importance: v})
	}
	return out
}

func buildSamples(ds *timeseries.Dataset, trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, inference []float64, g types.Granularity) *types.DataSamples {
	samples := &types.DataSamples{}

	// Period labels line up with the supervised rows: ds.Rows with a valid
	// target map one-to-one onto ds.X in order.
	periods := make([]string, 0, len(ds.X))
	for _, row := range ds.Rows {
		if row.TargetValid {
			periods = append(periods, row.Period.Format("2006-01-02"))
		}
	}

	toSample := func(offset int, X [][]float64, y []float64) []types.FeatureSample {
		n := len(X)
		if n > maxSampleRows {
			X, y = X[n-maxSampleRows:], y[n-maxSampleRows:]
			offset += n - maxSampleRows
		}
		out := make([]types.FeatureSample, 0, len(X))
		for i := range X {
			period := ""
			if offset+i < len(periods) {
				period = periods[offset+i]
			}
			out = append(out, types.FeatureSample{
				Period:         period,
				TriggersLastH:  X[i][0],
				RelevanceLastH: X[i][1],
				Velocity:       X[i][2],
				Target:         y[i],
			})
		}
		return out
	}
	samples.Train = toSample(0, trainX, trainY)
	samples.Test = toSample(len(trainX), testX, testY)

	if last, ok := ds.LastRow(); ok {
		samples.Inference = &types.FeatureSample{
			Period:         last.Period.Format("2006-01-02"),
			TriggersLastH:  inference[0],
			RelevanceLastH: inference[1],
			Velocity:       inference[2],
		}
	}
	return samples
}

func expectedCrime(targetCrimes []string) string {
	if len(targetCrimes) > 0 {
		return targetCrimes[0]
	}
	return "Confrontación"
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func maxOf(vs []float64) float64 {
	max := 0.0
	for _, v := range vs {
		if v > max {
			max = v
		}
	}
	return max
}

func clampVelocity(v float64) float64 {
	if v > timeseries.VelocityClip {
		return timeseries.VelocityClip
	}
	if v < -timeseries.VelocityClip {
		return -timeseries.VelocityClip
	}
	return v
}
