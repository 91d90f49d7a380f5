// Package risk combines the model-predicted crime volume and the zone
// attribution into the calibrated 0-100 composite score, its categorical
// level, and the audit trail of the arithmetic behind it.
package risk

import (
	"fmt"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// Composition weights for the final score. Calibration constants with no
// derivation beyond the original tuning; recalibrate here, not inline.
const (
	ModelWeight = 0.7
	ZoneWeight  = 0.3
)

// MaxModelRisk caps the model-driven component.
const MaxModelRisk = 99.0

// NeutralModelRisk is the model-risk value used when the calibration ceiling
// is unusable (max observed crimes <= 0).
const NeutralModelRisk = 50.0

// ConfidenceMargin is the half-width of the reported confidence band.
const ConfidenceMargin = 10.0

// Composition is the fully broken down composite score.
type Composition struct {
	ModelRisk          float64
	ZoneRisk           float64
	FinalRisk          float64
	Level              types.RiskLevel
	Color              string
	ConfidenceInterval types.ConfidenceInterval
	// Breakdown names every intermediate number with the formulas it was
	// substituted into. Part of the output contract: the system has to show
	// its arithmetic.
	Breakdown map[string]any
}

// Compose applies the fixed composition formula:
//
//	model_risk = min(99, predicted_volume / max_observed_crimes * 100)
//	final_risk = 0.7*model_risk + 0.3*max_zone_risk
func Compose(predictedVolume, maxObservedCrimes, maxZoneRisk float64) Composition {
	var modelRisk float64
	if maxObservedCrimes <= 0 {
		modelRisk = NeutralModelRisk
	} else {
		modelRisk = predictedVolume / maxObservedCrimes * 100
		if modelRisk > MaxModelRisk {
			modelRisk = MaxModelRisk
		}
		if modelRisk < 0 {
			modelRisk = 0
		}
	}

	final := ModelWeight*modelRisk + ZoneWeight*maxZoneRisk
	level := Level(final)

	return Composition{
		ModelRisk: modelRisk,
		ZoneRisk:  maxZoneRisk,
		FinalRisk: final,
		Level:     level,
		Color:     Color(level),
		ConfidenceInterval: types.ConfidenceInterval{
			Low:  clamp(final-ConfidenceMargin, 0, 100),
			High: clamp(final+ConfidenceMargin, 0, 100),
		},
		Breakdown: map[string]any{
			"predicted_volume":    predictedVolume,
			"max_observed_crimes": maxObservedCrimes,
			"model_risk_formula": fmt.Sprintf("min(%.1f, %.2f / %.2f * 100)",
				MaxModelRisk, predictedVolume, maxObservedCrimes),
			"model_risk":    modelRisk,
			"max_zone_risk": maxZoneRisk,
			"final_risk_formula": fmt.Sprintf("%.1f * %.2f + %.1f * %.2f",
				ModelWeight, modelRisk, ZoneWeight, maxZoneRisk),
			"final_risk": final,
			"risk_level": string(level),
		},
	}
}

// Risk level thresholds (inclusive lower bounds). A second, superseded
// threshold table (75/50/25/10) existed in an earlier dashboard helper and
// is intentionally not merged here; this table is the one the prediction
// flow is calibrated against.
const (
	thresholdCritical = 70.0
	thresholdHigh     = 50.0
	thresholdElevated = 30.0
	thresholdModerate = 10.0
)

// Level classifies a 0-100 risk score into its categorical level.
func Level(score float64) types.RiskLevel {
	switch {
	case score >= thresholdCritical:
		return types.RiskLevelCritical
	case score >= thresholdHigh:
		return types.RiskLevelHigh
	case score >= thresholdElevated:
		return types.RiskLevelElevated
	case score >= thresholdModerate:
		return types.RiskLevelModerate
	default:
		return types.RiskLevelLow
	}
}

// Color maps a risk level to its UI rendering color.
func Color(level types.RiskLevel) string {
	switch level {
	case types.RiskLevelCritical:
		return "red"
	case types.RiskLevelHigh:
		return "orange"
	case types.RiskLevelElevated:
		return "yellow"
	case types.RiskLevelModerate:
		return "blue"
	case types.RiskLevelLow:
		return "green"
	default:
		return "gray"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
