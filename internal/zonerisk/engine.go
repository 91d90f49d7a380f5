// Package zonerisk attributes recent trigger activity to administrative
// districts and normalizes it against the area's own historical worst case.
//
// Risk must be interpretable relative to local history, not an arbitrary
// fixed constant: three mentions of a neighborhood are "hot" in a quiet
// dataset but routine in a high-volume one.
package zonerisk

import (
	"log/slog"
	"sort"
	"time"

	"github.com/vaskiax/sentinela-aburr--ai/internal/geo"
	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

const (
	// RecentWindowDays is the lookback for current zone risk, relative to
	// the latest record date in the input, not wall clock.
	RecentWindowDays = 14

	// BenchmarkFloor prevents division blow-ups when history is sparse.
	BenchmarkFloor = 5.0

	// EmptyHistoryBenchmark is the benchmark used when there is no trigger
	// history at all.
	EmptyHistoryBenchmark = 10.0

	// MaxZoneRisk caps a single district's normalized risk.
	MaxZoneRisk = 99.0
)

// Engine counts neighborhood and district mentions in trigger text and
// converts them into per-district risk entries.
type Engine struct {
	index  *geo.Index
	logger *slog.Logger
}

// New creates an Engine over the given neighborhood index.
func New(index *geo.Index, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{index: index, logger: logger}
}

// CalculateZoneRisks restricts the input to trigger records from the last
// RecentWindowDays (relative to the latest record date in the input), counts
// barrio and district mentions per district, and normalizes each total
// against benchmarkMax. Districts with placeholder names are excluded.
// Returns the entries sorted descending by risk plus the maximum risk.
func (e *Engine) CalculateZoneRisks(items []types.ArticleRecord, benchmarkMax float64) ([]types.ZoneRisk, float64) {
	if benchmarkMax < BenchmarkFloor {
		benchmarkMax = BenchmarkFloor
	}

	latest, ok := latestDate(items)
	if !ok {
		return nil, 0
	}
	cutoff := latest.AddDate(0, 0, -RecentWindowDays)

	totals := make(map[string]int)
	breakdown := make(map[string]map[string]int)
	for _, it := range items {
		if it.Type != types.ArticleTrigger {
			continue
		}
		d, ok := it.ParsedDate()
		if !ok || d.Before(cutoff) {
			continue
		}
		byDistrict, byBarrio := e.index.MentionCounts(it.Text())
		for district, n := range byDistrict {
			totals[district] += n
		}
		for district, barrios := range byBarrio {
			if breakdown[district] == nil {
				breakdown[district] = make(map[string]int)
			}
			for barrio, n := range barrios {
				breakdown[district][barrio] += n
			}
		}
	}

	var risks []types.ZoneRisk
	maxRisk := 0.0
	for district, mentions := range totals {
		if geo.IsPlaceholderName(district) {
			continue
		}
		risk := 0.0
		if mentions > 0 {
			risk = float64(mentions) / benchmarkMax * 100
			if risk > MaxZoneRisk {
				risk = MaxZoneRisk
			}
		}
		if risk > maxRisk {
			maxRisk = risk
		}
		risks = append(risks, types.ZoneRisk{
			District:     district,
			DistrictCode: e.index.DistrictCode(district),
			Risk:         risk,
			Mentions:     mentions,
			Barrios:      breakdown[district],
		})
	}

	sort.Slice(risks, func(i, j int) bool {
		if risks[i].Risk != risks[j].Risk {
			return risks[i].Risk > risks[j].Risk
		}
		if risks[i].Mentions != risks[j].Mentions {
			return risks[i].Mentions > risks[j].Mentions
		}
		return risks[i].District < risks[j].District
	})
	return risks, maxRisk
}

// HistoricalMaxZoneActivity scans the entire available trigger history,
// buckets mentions per calendar day and district, computes a rolling
// RecentWindowDays-day sum for every district independently, and returns the
// single highest value any district ever reached in any window.
//
// The result is floored at BenchmarkFloor; an input with no usable trigger
// history yields EmptyHistoryBenchmark. Computed once at training time and
// persisted in model metadata so inference uses the same scale.
func (e *Engine) HistoricalMaxZoneActivity(items []types.ArticleRecord) float64 {
	// district -> day -> mention count
	daily := make(map[string]map[time.Time]int)
	for _, it := range items {
		if it.Type != types.ArticleTrigger {
			continue
		}
		day, ok := it.ParsedDate()
		if !ok {
			continue
		}
		byDistrict, _ := e.index.MentionCounts(it.Text())
		for district, n := range byDistrict {
			if geo.IsPlaceholderName(district) {
				continue
			}
			if daily[district] == nil {
				daily[district] = make(map[time.Time]int)
			}
			daily[district][day] += n
		}
	}
	if len(daily) == 0 {
		return EmptyHistoryBenchmark
	}

	max := 0.0
	for _, days := range daily {
		sorted := make([]time.Time, 0, len(days))
		for d := range days {
			sorted = append(sorted, d)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

		// Sliding window over the sorted days: lo trails so the window
		// spans at most RecentWindowDays calendar days.
		lo, sum := 0, 0
		for _, d := range sorted {
			sum += days[d]
			for d.Sub(sorted[lo]) >= RecentWindowDays*24*time.Hour {
				sum -= days[sorted[lo]]
				lo++
			}
			if float64(sum) > max {
				max = float64(sum)
			}
		}
	}
	if max < BenchmarkFloor {
		return BenchmarkFloor
	}
	return max
}

// latestDate returns the newest parseable record date in the input.
func latestDate(items []types.ArticleRecord) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, it := range items {
		d, ok := it.ParsedDate()
		if !ok {
			continue
		}
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found
}
