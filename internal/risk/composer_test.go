package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

func TestCompose_ModelRiskFormula(t *testing.T) {
	// 21 predicted / 30 max observed = 70.
	c := Compose(21, 30, 0)
	assert.InDelta(t, 70.0, c.ModelRisk, 1e-9)
	assert.InDelta(t, 49.0, c.FinalRisk, 1e-9) // 0.7*70 + 0.3*0
}

func TestCompose_WeightsZoneIn(t *testing.T) {
	// model_risk 70, zone 40: final = 0.7*70 + 0.3*40 = 61 -> HIGH.
	c := Compose(21, 30, 40)
	assert.InDelta(t, 61.0, c.FinalRisk, 1e-9)
	assert.Equal(t, types.RiskLevelHigh, c.Level)
	assert.Equal(t, "orange", c.Color)
}

func TestCompose_ModelRiskCappedAt99(t *testing.T) {
	c := Compose(500, 10, 0)
	assert.InDelta(t, MaxModelRisk, c.ModelRisk, 1e-9)
}

func TestCompose_NeutralWhenNoObservedCrimes(t *testing.T) {
	// Unusable calibration ceiling: model risk pinned to 50.
	for _, maxObserved := range []float64{0, -3} {
		c := Compose(7, maxObserved, 0)
		assert.InDelta(t, NeutralModelRisk, c.ModelRisk, 1e-9)
	}
}

func TestCompose_NegativePredictionFloorsAtZero(t *testing.T) {
	c := Compose(-4, 30, 0)
	assert.Zero(t, c.ModelRisk)
	assert.Zero(t, c.FinalRisk)
	assert.Equal(t, types.RiskLevelLow, c.Level)
}

func TestCompose_ConfidenceIntervalClamped(t *testing.T) {
	low := Compose(0, 30, 0)
	assert.Zero(t, low.ConfidenceInterval.Low)
	assert.InDelta(t, ConfidenceMargin, low.ConfidenceInterval.High, 1e-9)

	high := Compose(3000, 10, 99)
	assert.LessOrEqual(t, high.ConfidenceInterval.High, 100.0)
	assert.InDelta(t, high.FinalRisk-ConfidenceMargin, high.ConfidenceInterval.Low, 1e-9)
}

func TestCompose_BreakdownShowsArithmetic(t *testing.T) {
	c := Compose(21, 30, 40)

	assert.Equal(t, 21.0, c.Breakdown["predicted_volume"])
	assert.Equal(t, 30.0, c.Breakdown["max_observed_crimes"])
	assert.Equal(t, 40.0, c.Breakdown["max_zone_risk"])
	assert.InDelta(t, 61.0, c.Breakdown["final_risk"].(float64), 1e-9)
	assert.Contains(t, c.Breakdown["model_risk_formula"], "min(99.0")
	assert.Contains(t, c.Breakdown["final_risk_formula"], "0.7")
}

func TestLevelThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  types.RiskLevel
	}{
		{score: 85, want: types.RiskLevelCritical},
		{score: 70, want: types.RiskLevelCritical},
		{score: 69.9, want: types.RiskLevelHigh},
		{score: 50, want: types.RiskLevelHigh},
		{score: 49.9, want: types.RiskLevelElevated},
		{score: 30, want: types.RiskLevelElevated},
		{score: 29.9, want: types.RiskLevelModerate},
		{score: 10, want: types.RiskLevelModerate},
		{score: 9.9, want: types.RiskLevelLow},
		{score: 0, want: types.RiskLevelLow},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, Level(tc.score), "score %.1f", tc.score)
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, "red", Color(types.RiskLevelCritical))
	assert.Equal(t, "orange", Color(types.RiskLevelHigh))
	assert.Equal(t, "yellow", Color(types.RiskLevelElevated))
	assert.Equal(t, "blue", Color(types.RiskLevelModerate))
	assert.Equal(t, "green", Color(types.RiskLevelLow))
	assert.Equal(t, "gray", Color(types.RiskLevel("unknown")))
}
