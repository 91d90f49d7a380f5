package timeseries

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// dailyArticles produces one trigger per day starting at start, with the
// given relevance, plus optional crime records on the same days.
func dailyArticles(start time.Time, days int, triggersPerDay, crimesPerDay int) []types.ArticleRecord {
	var items []types.ArticleRecord
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		for i := 0; i < triggersPerDay; i++ {
			items = append(items, types.ArticleRecord{
				Date:           date,
				URL:            fmt.Sprintf("https://example.com/t/%d/%d", d, i),
				RelevanceScore: 0.5,
				Type:           types.ArticleTrigger,
			})
		}
		for i := 0; i < crimesPerDay; i++ {
			items = append(items, types.ArticleRecord{
				Date: date,
				URL:  fmt.Sprintf("https://example.com/c/%d/%d", d, i),
				Type: types.ArticleCrime,
			})
		}
	}
	return items
}

func TestPeriodStart(t *testing.T) {
	// 2025-01-08 is a Wednesday; its ISO week starts Monday 2025-01-06.
	wed := time.Date(2025, 1, 8, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		PeriodStart(wed, types.GranularityDay))
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		PeriodStart(wed, types.GranularityWeek))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodStart(wed, types.GranularityMonth))
}

func TestFeatureNames(t *testing.T) {
	assert.Equal(t,
		[]string{"triggers_last_2w", "relevance_last_2w", "trigger_velocity"},
		FeatureNames(2, types.GranularityWeek))
}

func TestBuild_RollingWindowBounds(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := dailyArticles(start, 14, 1, 0)

	ds, err := Build(items, Params{
		Granularity: types.GranularityDay,
		HorizonDays: 3,
	})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 14)

	// With one trigger per day and a 3-period window, the rolling trigger
	// count ramps 1,2,3 and then stays at 3.
	want := []float64{1, 2, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}
	for i, row := range ds.Rows {
		assert.Equalf(t, want[i], row.TriggersLastH, "row %d", i)
	}
}

func TestBuild_TargetIsStrictlyForward(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := dailyArticles(start, 20, 1, 2)

	ds, err := Build(items, Params{
		Granularity: types.GranularityDay,
		HorizonDays: 3,
		Training:    true,
	})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 20)

	// Recompute each target independently from the raw rows: the sum of
	// crime counts over periods (t, t+H].
	for i, row := range ds.Rows {
		if i+3 >= len(ds.Rows) {
			assert.Falsef(t, row.TargetValid, "row %d has no full forward window", i)
			continue
		}
		require.Truef(t, row.TargetValid, "row %d", i)
		var sum float64
		for j := i + 1; j <= i+3; j++ {
			sum += ds.Rows[j].CrimeCount
		}
		assert.Equalf(t, sum, row.Target, "row %d", i)
	}

	// Supervised set holds exactly the valid rows.
	assert.Len(t, ds.X, 17)
	assert.Len(t, ds.Y, 17)
}

func TestBuild_VelocityClipping(t *testing.T) {
	// Day 1: zero triggers, day 2: five triggers. The 0 -> positive jump
	// saturates at +VelocityClip.
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var items []types.ArticleRecord
	items = append(items, types.ArticleRecord{
		Date: "2025-03-01", URL: "https://example.com/c0", Type: types.ArticleCrime,
	})
	for i := 0; i < 5; i++ {
		items = append(items, types.ArticleRecord{
			Date:           start.AddDate(0, 0, 1).Format("2006-01-02"),
			URL:            fmt.Sprintf("https://example.com/t%d", i),
			RelevanceScore: 0.9,
			Type:           types.ArticleTrigger,
		})
	}

	ds, err := Build(items, Params{Granularity: types.GranularityDay, HorizonDays: 1})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)

	assert.Equal(t, 0.0, ds.Rows[0].Velocity)
	assert.Equal(t, VelocityClip, ds.Rows[1].Velocity)
}

func TestBuild_ZeroFillsGaps(t *testing.T) {
	items := []types.ArticleRecord{
		{Date: "2025-01-01", URL: "https://example.com/a", RelevanceScore: 0.5, Type: types.ArticleTrigger},
		{Date: "2025-01-05", URL: "https://example.com/b", RelevanceScore: 0.5, Type: types.ArticleTrigger},
	}

	ds, err := Build(items, Params{Granularity: types.GranularityDay, HorizonDays: 1})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 5)

	// The three silent days are real zeros, not missing periods.
	for i := 1; i <= 3; i++ {
		assert.Equal(t, 0.0, ds.Rows[i].TriggerCount)
	}
}

func TestBuild_DedupAndDroppedDates(t *testing.T) {
	items := []types.ArticleRecord{
		{Date: "2025-01-01", URL: "https://example.com/a", RelevanceScore: 0.5, Type: types.ArticleTrigger},
		{Date: "2025-01-01", URL: "https://example.com/a", RelevanceScore: 0.5, Type: types.ArticleTrigger},
		{Date: "not-a-date", URL: "https://example.com/b", RelevanceScore: 0.5, Type: types.ArticleTrigger},
	}

	ds, err := Build(items, Params{Granularity: types.GranularityDay, HorizonDays: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, ds.DuplicatesRemoved)
	assert.Equal(t, 1, ds.DroppedDates)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, 1.0, ds.Rows[0].TriggerCount)
}

func TestBuild_DateCutoff(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := dailyArticles(start, 10, 1, 0)

	cutoff := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	ds, err := Build(items, Params{
		Granularity: types.GranularityDay,
		HorizonDays: 1,
		DateCutoff:  cutoff,
	})
	require.NoError(t, err)

	require.Len(t, ds.Rows, 5)
	assert.Equal(t, cutoff, ds.Rows[0].Period)
}

func TestBuild_InsufficientDataForTraining(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := dailyArticles(start, 5, 1, 1)

	// Daily training needs 10 supervised rows; 5 days cannot provide them.
	_, err := Build(items, Params{
		Granularity: types.GranularityDay,
		HorizonDays: 1,
		Training:    true,
	})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrCodeInsufficientData))
}

func TestBuild_EmptyInputInference(t *testing.T) {
	ds, err := Build(nil, Params{Granularity: types.GranularityWeek, HorizonDays: 7})
	require.NoError(t, err)
	assert.Empty(t, ds.Rows)
}

func TestBuild_InvalidParams(t *testing.T) {
	_, err := Build(nil, Params{Granularity: "X", HorizonDays: 7})
	assert.True(t, types.HasCode(err, types.ErrCodeValidationInvalidGranule))

	_, err = Build(nil, Params{Granularity: types.GranularityWeek, HorizonDays: 0})
	assert.True(t, types.HasCode(err, types.ErrCodeValidationInvalidHorizon))
}

func TestDataset_SpanDaysAndMaxTarget(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := dailyArticles(start, 8, 1, 1)

	ds, err := Build(items, Params{Granularity: types.GranularityDay, HorizonDays: 2})
	require.NoError(t, err)

	assert.Equal(t, 7, ds.SpanDays())
	assert.Equal(t, 2.0, ds.MaxObservedTarget())

	last, ok := ds.LastRow()
	require.True(t, ok)
	assert.Equal(t, start.AddDate(0, 0, 7), last.Period)
}
