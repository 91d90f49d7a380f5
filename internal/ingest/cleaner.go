// Package ingest handles article intake for the pipeline: batch cleaning
// with auditable counters, and the circuit-broken client for the upstream
// article feed.
package ingest

import (
	"time"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// DefaultMinRelevance is the relevance floor applied to incoming batches.
// Records scored below it are noise from upstream extraction.
const DefaultMinRelevance = 0.1

// Clean filters a raw article batch and reports exactly what it removed.
// Malformed records are dropped and counted, never raised. The returned
// slice preserves input order.
func Clean(items []types.ArticleRecord, minRelevance float64, cutoff time.Time) ([]types.ArticleRecord, types.CleaningStats) {
	stats := types.CleaningStats{TotalScraped: len(items)}

	seen := make(map[string]struct{}, len(items))
	kept := make([]types.ArticleRecord, 0, len(items))
	for _, it := range items {
		if it.RelevanceScore < minRelevance {
			stats.FilteredRelevance++
			continue
		}
		d, ok := it.ParsedDate()
		if !ok || (!cutoff.IsZero() && d.Before(cutoff)) {
			stats.FilteredDate++
			continue
		}
		if it.URL != "" {
			if _, dup := seen[it.URL]; dup {
				stats.DuplicatesRemoved++
				continue
			}
			seen[it.URL] = struct{}{}
		}
		kept = append(kept, it)
	}
	stats.FinalCount = len(kept)
	return kept, stats
}
