package types

import "time"

// ResponseMeta carries non-blocking advisories alongside a successful
// API response body.
type ResponseMeta struct {
	Warnings []string `json:"warnings,omitempty"`
}

// RiskLevel is the categorical classification of a 0-100 composite risk score.
type RiskLevel string

const (
	RiskLevelCritical RiskLevel = "CRITICAL"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelElevated RiskLevel = "ELEVATED"
	RiskLevelModerate RiskLevel = "MODERATE"
	RiskLevelLow      RiskLevel = "LOW"
)

// ResultStatus distinguishes how a PredictionResult was produced.
type ResultStatus string

const (
	// ResultStatusSuccess means the full train/predict path ran.
	ResultStatusSuccess ResultStatus = "success"
	// ResultStatusFallback means the heuristic low-data path produced the result.
	ResultStatusFallback ResultStatus = "fallback"
	// ResultStatusNeutral means inference ran on input with no trigger events
	// and returned a zero/neutral result.
	ResultStatusNeutral ResultStatus = "neutral"
)

// ResultWarning is a non-fatal advisory attached to a result.
type ResultWarning struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ZoneRisk is one district's share of the recent trigger activity, normalized
// against the historical benchmark.
type ZoneRisk struct {
	District     string         `json:"district"`
	DistrictCode string         `json:"district_code,omitempty"`
	Risk         float64        `json:"risk"`
	Mentions     int            `json:"mention_count"`
	Barrios      map[string]int `json:"breakdown_by_barrio,omitempty"`
}

// TimelinePoint is one period of the historical per-period risk trace.
type TimelinePoint struct {
	Period       string  `json:"period"`
	RiskScore    float64 `json:"risk_score"`
	TriggerCount float64 `json:"trigger_count"`
	CrimeCount   float64 `json:"crime_count"`
}

// FeatureImportance reports one feature's share of the winning model's
// split gain, as a 0-100 percentage.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ModelScore holds the held-out error of one candidate estimator.
type ModelScore struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
}

// TrainingMetrics summarizes the winning model's evaluation.
//
// F1Score carries the winner's RMSE. The field name is a wire-format artifact
// inherited from the original dashboard contract and is preserved so existing
// clients keep working.
type TrainingMetrics struct {
	F1Score     float64 `json:"f1_score"`
	DatasetSize int     `json:"dataset_size"`
	TestSize    int     `json:"test_size"`
}

// FeatureSample is one feature row exposed for inspection/download.
type FeatureSample struct {
	Period         string  `json:"period"`
	TriggersLastH  float64 `json:"triggers_last_h"`
	RelevanceLastH float64 `json:"relevance_last_h"`
	Velocity       float64 `json:"trigger_velocity"`
	Target         float64 `json:"crimes_next_h"`
}

// DataSamples carries train/test/inference rows for display. Optional; nil
// slices mean the run did not reach that stage.
type DataSamples struct {
	Train     []FeatureSample `json:"train,omitempty"`
	Test      []FeatureSample `json:"test,omitempty"`
	Inference *FeatureSample  `json:"inference,omitempty"`
}

// ConfidenceInterval is a clamped [low, high] band around the composite score.
type ConfidenceInterval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// PredictionResult is the full output record of one training or inference
// call. Both entry points produce the same shape so callers can treat them
// interchangeably for display. Immutable after construction.
type PredictionResult struct {
	RiskScore          float64            `json:"risk_score"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	RiskColor          string             `json:"risk_color"`
	ModelRisk          float64            `json:"model_risk"`
	ZoneRiskMax        float64            `json:"zone_risk_max"`
	PredictedVolume    float64            `json:"predicted_volume"`
	ExpectedCrimeType  string             `json:"expected_crime_type"`
	AffectedZones      []string           `json:"affected_zones"`
	DurationDays       int                `json:"duration_days"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`

	FeatureImportance []FeatureImportance `json:"feature_importance"`
	Timeline          []TimelinePoint     `json:"timeline_data"`
	ZoneRisks         []ZoneRisk          `json:"zone_risks"`

	TrainingMetrics TrainingMetrics       `json:"training_metrics"`
	ModelComparison map[string]ModelScore `json:"model_comparison,omitempty"`
	ModelMetadata   *ModelMetadata        `json:"model_metadata,omitempty"`

	Status   ResultStatus    `json:"status"`
	Message  string          `json:"message,omitempty"`
	Warnings []ResultWarning `json:"warnings,omitempty"`

	// CalculationBreakdown names every intermediate number used to compute
	// the final score. The system's credibility depends on showing its
	// arithmetic, so this is part of the contract, not debug output.
	CalculationBreakdown map[string]any `json:"calculation_breakdown"`

	Cleaning    *CleaningStats `json:"cleaning_stats,omitempty"`
	DataSamples *DataSamples   `json:"data_samples,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
