package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

func TestClean_FiltersAndCounts(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Two keepers plus a duplicated URL, a low-relevance record, a
	// pre-cutoff record and an unparseable date.
	items := []types.ArticleRecord{
		{Date: "2025-06-10", URL: "https://e.com/a", RelevanceScore: 0.9, Type: types.ArticleTrigger},
		{Date: "2025-06-10", URL: "https://e.com/a", RelevanceScore: 0.9, Type: types.ArticleTrigger},
		{Date: "2025-06-11", URL: "https://e.com/b", RelevanceScore: 0.05, Type: types.ArticleTrigger},
		{Date: "2025-05-20", URL: "https://e.com/c", RelevanceScore: 0.9, Type: types.ArticleCrime},
		{Date: "garbage", URL: "https://e.com/d", RelevanceScore: 0.9, Type: types.ArticleCrime},
		{Date: "2025-06-12", URL: "https://e.com/e", RelevanceScore: 0.4, Type: types.ArticleCrime},
	}

	kept, stats := Clean(items, DefaultMinRelevance, cutoff)

	require.Len(t, kept, 2)
	assert.Equal(t, "https://e.com/a", kept[0].URL)
	assert.Equal(t, "https://e.com/e", kept[1].URL)

	assert.Equal(t, 6, stats.TotalScraped)
	assert.Equal(t, 1, stats.FilteredRelevance)
	assert.Equal(t, 2, stats.FilteredDate)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 2, stats.FinalCount)
}

func TestClean_NoCutoff(t *testing.T) {
	items := []types.ArticleRecord{
		{Date: "1999-01-01", URL: "https://e.com/old", RelevanceScore: 0.9, Type: types.ArticleCrime},
	}
	kept, stats := Clean(items, DefaultMinRelevance, time.Time{})
	assert.Len(t, kept, 1)
	assert.Zero(t, stats.FilteredDate)
}

func TestClean_EmptyURLNeverDeduped(t *testing.T) {
	items := []types.ArticleRecord{
		{Date: "2025-06-10", RelevanceScore: 0.9, Type: types.ArticleTrigger},
		{Date: "2025-06-10", RelevanceScore: 0.9, Type: types.ArticleTrigger},
	}
	kept, stats := Clean(items, DefaultMinRelevance, time.Time{})
	assert.Len(t, kept, 2)
	assert.Zero(t, stats.DuplicatesRemoved)
}
