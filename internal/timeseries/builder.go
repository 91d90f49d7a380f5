// Package timeseries converts a heterogeneous stream of timestamped article
// records into regular trigger/crime series and derives the leakage-safe
// rolling-window features and forward-shifted regression target used for
// training and inference.
package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// VelocityClip bounds the period-over-period trigger velocity feature to
// [-VelocityClip, +VelocityClip] so a single outlier period cannot dominate
// the regression. The value is a calibration constant with no derivation
// beyond the original tuning; recalibrate here, not inline.
const VelocityClip = 2.0

// Params configures one build of the series.
type Params struct {
	Granularity types.Granularity
	HorizonDays int
	// DateCutoff drops records dated before it. Zero means no cutoff.
	// The cutoff is applied to the raw records AND re-applied to the
	// resampled index: week/month bucketing can otherwise reintroduce
	// periods that start before it.
	DateCutoff time.Time
	// Training enables the minimum-sample check. Inference builds skip it
	// because a short series only degrades features, it does not block them.
	Training bool
}

// Row is one period of the derived series with its features and target.
type Row struct {
	Period         time.Time
	TriggerCount   float64
	RelevanceSum   float64
	CrimeCount     float64
	TriggersLastH  float64
	RelevanceLastH float64
	Velocity       float64
	Target         float64
	TargetValid    bool
}

// Dataset is the result of one build: the full per-period rows plus the
// supervised matrices restricted to rows with a valid forward target.
type Dataset struct {
	Rows         []Row
	X            [][]float64
	Y            []float64
	HorizonUnits int

	// cleaning counters, reported not raised
	DroppedDates      int
	DuplicatesRemoved int
}

// LastRow returns the most recent feature row, target-valid or not.
// ok is false for an empty series.
func (d *Dataset) LastRow() (Row, bool) {
	if len(d.Rows) == 0 {
		return Row{}, false
	}
	return d.Rows[len(d.Rows)-1], true
}

// SpanDays is the number of calendar days between the first and last period.
func (d *Dataset) SpanDays() int {
	if len(d.Rows) < 2 {
		return 0
	}
	first := d.Rows[0].Period
	last := d.Rows[len(d.Rows)-1].Period
	return int(last.Sub(first).Hours() / 24)
}

// MaxObservedTarget is the largest target value seen in the supervised set,
// used as the model-risk calibration ceiling. Zero for an empty set.
func (d *Dataset) MaxObservedTarget() float64 {
	max := 0.0
	for _, y := range d.Y {
		if y > max {
			max = y
		}
	}
	return max
}

// FeatureNames returns the display names of the three feature columns for
// the given horizon, e.g. triggers_last_2w.
func FeatureNames(units int, g types.Granularity) []string {
	suffix := fmt.Sprintf("%d%s", units, g.UnitSuffix())
	return []string{
		"triggers_last_" + suffix,
		"relevance_last_" + suffix,
		"trigger_velocity",
	}
}

// PeriodStart truncates t to the start of its period at the given
// granularity: the day itself, the Monday of its ISO week, or the first of
// its month. Always UTC.
func PeriodStart(t time.Time, g types.Granularity) time.Time {
	t = t.UTC()
	switch g {
	case types.GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday=0
		return day.AddDate(0, 0, -offset)
	case types.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// nextPeriod advances a period boundary by one granularity step.
func nextPeriod(t time.Time, g types.Granularity) time.Time {
	switch g {
	case types.GranularityWeek:
		return t.AddDate(0, 0, 7)
	case types.GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// datedRecord pairs a record with its parsed date.
type datedRecord struct {
	rec  types.ArticleRecord
	date time.Time
}

// Build derives the regular series, features and target from raw article
// records. Given identical inputs the output is bit-for-bit identical.
//
// When Training is set and fewer than the granularity's minimum sample count
// survives feature engineering, Build returns an insufficient_data AppError;
// the caller is expected to fall back to a heuristic result rather than train.
func Build(items []types.ArticleRecord, p Params) (*Dataset, error) {
	if !p.Granularity.Valid() {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidGranule,
			fmt.Sprintf("unsupported granularity %q", p.Granularity), nil)
	}
	if p.HorizonDays <= 0 {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidHorizon,
			"forecast horizon must be a positive number of days", nil)
	}

	ds := &Dataset{HorizonUnits: p.Granularity.HorizonUnits(p.HorizonDays)}

	// Parse dates, dropping unparseable records. Dropped counts are reported,
	// never raised.
	dated := make([]datedRecord, 0, len(items))
	for _, it := range items {
		d, ok := it.ParsedDate()
		if !ok {
			ds.DroppedDates++
			continue
		}
		dated = append(dated, datedRecord{rec: it, date: d})
	}

	// De-duplicate on (url, date): upstream collection can ingest the same
	// article twice.
	type dupKey struct {
		url  string
		date time.Time
	}
	seen := make(map[dupKey]struct{}, len(dated))
	kept := dated[:0]
	for _, dr := range dated {
		k := dupKey{url: dr.rec.URL, date: dr.date}
		if _, dup := seen[k]; dup {
			ds.DuplicatesRemoved++
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, dr)
	}

	// Raw-record cutoff filter.
	if !p.DateCutoff.IsZero() {
		filtered := kept[:0]
		for _, dr := range kept {
			if dr.date.Before(p.DateCutoff) {
				continue
			}
			filtered = append(filtered, dr)
		}
		kept = filtered
	}

	if len(kept) == 0 {
		if p.Training {
			return nil, insufficientErr(0, p.Granularity.MinSamples())
		}
		return ds, nil
	}

	// Resample both subsets onto one continuous period index. A period with
	// no articles is a real zero, not missing data.
	buckets := make(map[time.Time]*Row)
	minPeriod, maxPeriod := time.Time{}, time.Time{}
	for _, dr := range kept {
		period := PeriodStart(dr.date, p.Granularity)
		row, ok := buckets[period]
		if !ok {
			row = &Row{Period: period}
			buckets[period] = row
		}
		if dr.rec.Type == types.ArticleTrigger {
			row.TriggerCount++
			row.RelevanceSum += dr.rec.RelevanceScore
		} else {
			row.CrimeCount++
		}
		if minPeriod.IsZero() || period.Before(minPeriod) {
			minPeriod = period
		}
		if maxPeriod.IsZero() || period.After(maxPeriod) {
			maxPeriod = period
		}
	}

	var rows []Row
	for period := minPeriod; !period.After(maxPeriod); period = nextPeriod(period, p.Granularity) {
		// Resampled-index cutoff: week/month boundaries can fall before the
		// raw cutoff even after the raw records were filtered.
		if !p.DateCutoff.IsZero() && period.Before(p.DateCutoff) {
			continue
		}
		if row, ok := buckets[period]; ok {
			rows = append(rows, *row)
		} else {
			rows = append(rows, Row{Period: period})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period.Before(rows[j].Period) })

	computeFeatures(rows, ds.HorizonUnits)
	computeTargets(rows, ds.HorizonUnits)
	ds.Rows = rows

	for _, r := range rows {
		if !r.TargetValid {
			continue
		}
		ds.X = append(ds.X, []float64{r.TriggersLastH, r.RelevanceLastH, r.Velocity})
		ds.Y = append(ds.Y, r.Target)
	}

	if p.Training {
		if min := p.Granularity.MinSamples(); len(ds.X) < min {
			return nil, insufficientErr(len(ds.X), min)
		}
	}
	return ds, nil
}

// computeFeatures fills the rolling sums and the clipped velocity in place.
// Rolling windows cover the past H periods inclusive with a minimum of one
// period of history, so the first period already produces a feature row.
func computeFeatures(rows []Row, horizonUnits int) {
	for i := range rows {
		start := i - horizonUnits + 1
		if start < 0 {
			start = 0
		}
		var trig, rel float64
		for j := start; j <= i; j++ {
			trig += rows[j].TriggerCount
			rel += rows[j].RelevanceSum
		}
		rows[i].TriggersLastH = trig
		rows[i].RelevanceLastH = rel
		rows[i].Velocity = velocity(rows, i)
	}
}

// velocity is the fractional period-over-period change in trigger count,
// zero-filled at the head of the series and clipped to ±VelocityClip.
func velocity(rows []Row, i int) float64 {
	if i == 0 {
		return 0
	}
	prev := rows[i-1].TriggerCount
	cur := rows[i].TriggerCount
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return VelocityClip
	}
	v := (cur - prev) / prev
	return math.Max(-VelocityClip, math.Min(VelocityClip, v))
}

// computeTargets fills the forward target in place: the crime count summed
// over the next H periods, i.e. the forward rolling sum shifted back by H.
// The target for period t must only contain information about periods
// strictly after t; trailing periods without a full forward window stay
// invalid and are excluded from the supervised set.
func computeTargets(rows []Row, horizonUnits int) {
	for i := range rows {
		end := i + horizonUnits
		if end >= len(rows) {
			continue
		}
		var sum float64
		for j := i + 1; j <= end; j++ {
			sum += rows[j].CrimeCount
		}
		rows[i].Target = sum
		rows[i].TargetValid = true
	}
}

func insufficientErr(have, want int) *types.AppError {
	return types.NewAppErrorWithDetails(
		types.ErrCodeInsufficientData,
		fmt.Sprintf("only %d usable periods after feature engineering, need at least %d", have, want),
		nil,
		map[string]any{"samples": have, "required": want},
	)
}
