package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth_NoProbes(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestHandleHealth_AllProbesHealthy(t *testing.T) {
	srv := testServer(t)
	srv.HealthProbes = []HealthProbe{
		ProbeFunc{ProbeName: "model_store", Fn: func(context.Context) error { return nil }},
		ProbeFunc{ProbeName: "reference_data", Fn: func(context.Context) error { return nil }},
	}

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["model_store"].Status)
	assert.Equal(t, "healthy", resp.Components["reference_data"].Status)
}

func TestHandleHealth_FailingProbeFlips503(t *testing.T) {
	srv := testServer(t)
	srv.HealthProbes = []HealthProbe{
		ProbeFunc{ProbeName: "model_store", Fn: func(context.Context) error { return nil }},
		ProbeFunc{ProbeName: "database", Fn: func(context.Context) error {
			return errors.New("connection refused")
		}},
	}

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["model_store"].Status)
	assert.Equal(t, "unhealthy", resp.Components["database"].Status)
	assert.Equal(t, "connection refused", resp.Components["database"].Message)
}

func TestHandleHealth_PanickingProbeIsUnhealthy(t *testing.T) {
	srv := testServer(t)
	srv.HealthProbes = []HealthProbe{
		ProbeFunc{ProbeName: "flaky", Fn: func(context.Context) error { panic("probe exploded") }},
	}

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Components["flaky"].Message, "probe panicked")
}
