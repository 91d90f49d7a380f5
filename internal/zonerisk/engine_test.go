package zonerisk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaskiax/sentinela-aburr--ai/internal/geo"
	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	idx := geo.NewIndex([]geo.Entry{
		{Combo: "Los del Cerro", Barrio: "La Loma", DistrictName: "San Javier", DistrictCode: "C13"},
		{Combo: "La Terraza", Barrio: "El Raizal", DistrictName: "Manrique", DistrictCode: "C03"},
	}, geo.DefaultDistricts())
	return New(idx, nil)
}

func trigger(date, headline string) types.ArticleRecord {
	return types.ArticleRecord{
		Date:           date,
		Headline:       headline,
		URL:            "https://example.com/" + date + headline,
		RelevanceScore: 0.8,
		Type:           types.ArticleTrigger,
	}
}

func TestCalculateZoneRisks_CountsAndNormalizes(t *testing.T) {
	e := testEngine(t)
	items := []types.ArticleRecord{
		trigger("2025-06-10", "Captura en La Loma"),
		trigger("2025-06-11", "Allanamiento en La Loma deja detenidos"),
		trigger("2025-06-12", "Incautación en El Raizal"),
		{Date: "2025-06-12", Headline: "Homicidio en La Loma", URL: "https://example.com/x",
			Type: types.ArticleCrime}, // crime stats never count toward zone risk
	}

	risks, maxRisk := e.CalculateZoneRisks(items, 10)
	require.Len(t, risks, 2)

	// Two La Loma mentions -> San Javier leads.
	assert.Equal(t, "San Javier", risks[0].District)
	assert.Equal(t, "C13", risks[0].DistrictCode)
	assert.Equal(t, 2, risks[0].Mentions)
	assert.InDelta(t, 20.0, risks[0].Risk, 1e-9)
	assert.Equal(t, 2, risks[0].Barrios["La Loma"])

	assert.Equal(t, "Manrique", risks[1].District)
	assert.InDelta(t, 10.0, risks[1].Risk, 1e-9)

	assert.InDelta(t, 20.0, maxRisk, 1e-9)
}

func TestCalculateZoneRisks_WindowIsRelativeToLatestRecord(t *testing.T) {
	e := testEngine(t)
	items := []types.ArticleRecord{
		trigger("2025-01-01", "Captura en La Loma"), // far outside the window
		trigger("2025-06-12", "Operativo en El Raizal"),
	}

	risks, _ := e.CalculateZoneRisks(items, 10)
	require.Len(t, risks, 1)
	assert.Equal(t, "Manrique", risks[0].District)
}

func TestCalculateZoneRisks_BenchmarkFloor(t *testing.T) {
	e := testEngine(t)
	items := []types.ArticleRecord{trigger("2025-06-12", "Captura en La Loma")}

	// A benchmark below the floor is raised to it: 1 mention / 5 * 100 = 20.
	risks, maxRisk := e.CalculateZoneRisks(items, 1)
	require.Len(t, risks, 1)
	assert.InDelta(t, 20.0, risks[0].Risk, 1e-9)
	assert.InDelta(t, 20.0, maxRisk, 1e-9)
}

func TestCalculateZoneRisks_CapAt99(t *testing.T) {
	e := testEngine(t)
	var items []types.ArticleRecord
	for i := 0; i < 30; i++ {
		items = append(items, trigger("2025-06-12", "Otra captura en La Loma"))
	}

	risks, maxRisk := e.CalculateZoneRisks(items, 5)
	require.NotEmpty(t, risks)
	assert.InDelta(t, MaxZoneRisk, risks[0].Risk, 1e-9)
	assert.InDelta(t, MaxZoneRisk, maxRisk, 1e-9)
}

func TestCalculateZoneRisks_EmptyInput(t *testing.T) {
	e := testEngine(t)
	risks, maxRisk := e.CalculateZoneRisks(nil, 10)
	assert.Nil(t, risks)
	assert.Zero(t, maxRisk)
}

func TestHistoricalMaxZoneActivity_EmptyHistory(t *testing.T) {
	e := testEngine(t)
	assert.Equal(t, EmptyHistoryBenchmark, e.HistoricalMaxZoneActivity(nil))

	// Triggers that mention no known zone also count as no history.
	items := []types.ArticleRecord{trigger("2025-06-12", "sin lugar conocido")}
	assert.Equal(t, EmptyHistoryBenchmark, e.HistoricalMaxZoneActivity(items))
}

func TestHistoricalMaxZoneActivity_FindsPeakWindow(t *testing.T) {
	e := testEngine(t)

	// A burst of 6 mentions within one 14-day span, then a quieter month.
	items := []types.ArticleRecord{
		trigger("2025-03-01", "Captura en La Loma"),
		trigger("2025-03-03", "Redada en La Loma"),
		trigger("2025-03-05", "Operativo en La Loma"),
		trigger("2025-03-08", "Allanamiento en La Loma"),
		trigger("2025-03-10", "Captura en La Loma otra vez"),
		trigger("2025-03-12", "Golpe en La Loma"),
		trigger("2025-05-01", "Captura en La Loma"),
	}

	assert.InDelta(t, 6.0, e.HistoricalMaxZoneActivity(items), 1e-9)
}

func TestHistoricalMaxZoneActivity_Floor(t *testing.T) {
	e := testEngine(t)
	items := []types.ArticleRecord{trigger("2025-06-12", "Captura en La Loma")}

	// One mention in history: floored to BenchmarkFloor.
	assert.Equal(t, BenchmarkFloor, e.HistoricalMaxZoneActivity(items))
}
