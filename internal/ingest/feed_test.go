package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

func TestFeedClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/articles", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"1","date":"2025-06-10","headline":"Captura","snippet":"","url":"https://e.com/1","relevance_score":0.8,"type":"TRIGGER_EVENT"},
			{"id":"2","date":"2025-06-11","headline":"Homicidio","snippet":"","url":"https://e.com/2","relevance_score":0.6,"type":"CRIME_STAT"}
		]`))
	}))
	defer srv.Close()

	c := NewFeedClient(srv.URL, srv.Client(), nil)
	items, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, types.ArticleTrigger, items[0].Type)
	assert.Equal(t, "Homicidio", items[1].Headline)
}

func TestFeedClient_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewFeedClient(srv.URL, srv.Client(), nil)
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrCodeUpstreamFeed))
}

func TestFeedClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewFeedClient(srv.URL, srv.Client(), nil)
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrCodeUpstreamFeed))
}
