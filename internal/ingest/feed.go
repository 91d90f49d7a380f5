package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// maxFeedBodySize bounds the article feed response body (8 MB).
const maxFeedBodySize = 8 << 20

// FeedClient fetches article batches from the upstream acquisition service.
// All calls go through a circuit breaker so a dead feed degrades into fast
// upstream_feed_unavailable errors instead of piling up timeouts.
type FeedClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]types.ArticleRecord]
	logger  *slog.Logger
}

// NewFeedClient creates a FeedClient for the given base URL. httpClient may
// be nil to use a default with a 20s timeout.
func NewFeedClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *FeedClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker[[]types.ArticleRecord](gobreaker.Settings{
		Name:        "article-feed",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &FeedClient{
		baseURL: baseURL,
		client:  httpClient,
		breaker: cb,
		logger:  logger,
	}
}

// Fetch retrieves the current article batch from the feed.
func (c *FeedClient) Fetch(ctx context.Context) ([]types.ArticleRecord, error) {
	items, err := c.breaker.Execute(func() ([]types.ArticleRecord, error) {
		return c.fetchOnce(ctx)
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamFeed,
			"article feed unavailable", err)
	}
	c.logger.Info("article feed fetched", "items", len(items))
	return items, nil
}

func (c *FeedClient) fetchOnce(ctx context.Context) ([]types.ArticleRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/articles", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodySize))
	if err != nil {
		return nil, err
	}
	var items []types.ArticleRecord
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decoding feed response: %w", err)
	}
	return items, nil
}
