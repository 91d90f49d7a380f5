// Package handlers contains the HTTP handler implementations for the
// risk-pipeline API:
//   - Catalog options for configuration UIs (GET /v1/catalog/options)
//   - Session configuration (POST /v1/pipeline/config)
//   - Article batch intake (POST /v1/pipeline/articles)
//   - Training runs (POST /v1/pipeline/train)
//   - On-demand inference (POST /v1/pipeline/predict)
//   - Latest result and status (GET /v1/pipeline/result, /status)
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaskiax/sentinela-aburr--ai/internal/core"
	"github.com/vaskiax/sentinela-aburr--ai/internal/geo"
	"github.com/vaskiax/sentinela-aburr--ai/internal/ingest"
	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
)

// previewRows is how many cleaned records the intake response echoes back.
const previewRows = 5

// PredictionServiceInterface is the service contract the handler depends
// on, defined locally to avoid tight coupling to the predictor package.
type PredictionServiceInterface interface {
	TrainAndPredict(ctx context.Context, cfg types.PipelineConfig, items []types.ArticleRecord) (*types.PredictionResult, error)
	PredictOnDemand(ctx context.Context, newItems []types.ArticleRecord, cfg types.PipelineConfig) (*types.PredictionResult, error)
}

// FeedFetcher pulls an article batch from the upstream feed. Nil when no
// feed is configured; the pipeline then only accepts pushed batches.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]types.ArticleRecord, error)
}

// PipelineHandler maps HTTP requests to the prediction service and the
// session state machine.
type PipelineHandler struct {
	service      PredictionServiceInterface
	feed         FeedFetcher
	geoProvider  *geo.Provider
	session      *Session
	validator    *core.Validator
	minRelevance float64
	logger       *slog.Logger
}

// NewPipelineHandler creates a PipelineHandler. feed may be nil.
func NewPipelineHandler(
	svc PredictionServiceInterface,
	feed FeedFetcher,
	geoProvider *geo.Provider,
	session *Session,
	val *core.Validator,
	minRelevance float64,
	logger *slog.Logger,
) *PipelineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if minRelevance <= 0 {
		minRelevance = ingest.DefaultMinRelevance
	}
	return &PipelineHandler{
		service:      svc,
		feed:         feed,
		geoProvider:  geoProvider,
		session:      session,
		validator:    val,
		minRelevance: minRelevance,
		logger:       logger,
	}
}

// RegisterRoutes mounts the catalog and pipeline endpoints onto the v1 mux.
func (h *PipelineHandler) RegisterRoutes(r chi.Router) {
	r.Get("/catalog/options", h.HandleCatalogOptions)

	r.Route("/pipeline", func(r chi.Router) {
		r.Post("/config", h.HandleSetConfig)
		r.Post("/articles", h.HandlePushArticles)
		r.Post("/train", h.HandleTrain)
		r.Post("/predict", h.HandlePredict)
		r.Get("/result", h.HandleGetResult)
		r.Get("/status", h.HandleGetStatus)
	})
}

// HandleCatalogOptions handles GET /v1/catalog/options. It returns the
// selectable values for every configuration field, with the neighborhood
// lists sourced from the live reference index.
func (h *PipelineHandler) HandleCatalogOptions(w http.ResponseWriter, r *http.Request) {
	opts := geo.BuildOptions(h.geoProvider.Current())
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: opts})
}

// HandleSetConfig handles POST /v1/pipeline/config. Setting a new
// configuration resets any previously pushed batch and result.
func (h *PipelineHandler) HandleSetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg types.PipelineConfig
	if err := core.DecodeJSON(w, r, &cfg); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(cfg); err != nil {
		core.Error(w, r, err)
		return
	}

	normalized := cfg.Normalized()
	h.session.SetConfig(normalized)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: normalized})
}

// pushArticlesRequest is the intake body for POST /v1/pipeline/articles.
type pushArticlesRequest struct {
	Articles []types.ArticleRecord `json:"articles" validate:"required,min=1,dive"`
}

// pushArticlesResponse echoes the cleaning outcome and a short preview.
type pushArticlesResponse struct {
	Cleaning types.CleaningStats   `json:"cleaning_stats"`
	Preview  []types.ArticleRecord `json:"preview"`
}

// HandlePushArticles handles POST /v1/pipeline/articles. The batch is
// cleaned against the session configuration's relevance floor and date
// cutoff before being stored.
func (h *PipelineHandler) HandlePushArticles(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.session.Config()
	if !ok {
		core.Error(w, r, noConfigError())
		return
	}

	var req pushArticlesRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	cutoff, _ := cfg.DateCutoff()
	cleaned, stats := ingest.Clean(req.Articles, h.minRelevance, cutoff)
	h.session.SetArticles(cleaned, stats, "pushed")

	preview := cleaned
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: pushArticlesResponse{
		Cleaning: stats,
		Preview:  preview,
	}})
}

// HandleTrain handles POST /v1/pipeline/train. It runs the full pipeline on
// the session batch; when no batch was pushed and a feed is configured, the
// batch is pulled from the feed first.
func (h *PipelineHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.session.Config()
	if !ok {
		core.Error(w, r, noConfigError())
		return
	}

	items, stats := h.session.Articles()
	if len(items) == 0 && h.feed != nil {
		fetched, err := h.feed.Fetch(r.Context())
		if err != nil {
			h.session.MarkFailure(types.StageIngest, "article feed fetch failed")
			core.Error(w, r, err)
			return
		}
		cutoff, _ := cfg.DateCutoff()
		var feedStats types.CleaningStats
		items, feedStats = ingest.Clean(fetched, h.minRelevance, cutoff)
		stats = &feedStats
		h.session.SetArticles(items, feedStats, "feed")
	}

	h.session.MarkStage(types.StageTraining, "training started")
	result, err := h.service.TrainAndPredict(r.Context(), cfg, items)
	if err != nil {
		h.session.MarkFailure(types.StageTraining, "training failed")
		core.Error(w, r, err)
		return
	}
	result.Cleaning = stats

	h.session.SetResult(result, types.StageTraining)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// predictRequest is the inference body for POST /v1/pipeline/predict.
type predictRequest struct {
	Articles []types.ArticleRecord `json:"articles" validate:"required,min=1,dive"`
}

// HandlePredict handles POST /v1/pipeline/predict. It runs the persisted
// model against a fresh batch; training must have happened first or the
// service reports not_found_model (404).
func (h *PipelineHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	// Session config is optional here: inference runs on the persisted
	// model metadata, not the caller's parameters.
	cfg, _ := h.session.Config()

	h.session.MarkStage(types.StageInference, "on-demand prediction started")
	result, err := h.service.PredictOnDemand(r.Context(), req.Articles, cfg)
	if err != nil {
		h.session.MarkFailure(types.StageInference, "on-demand prediction failed")
		core.Error(w, r, err)
		return
	}

	h.session.SetResult(result, types.StageInference)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// HandleGetResult handles GET /v1/pipeline/result.
func (h *PipelineHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	result, ok := h.session.Result()
	if !ok {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundResult,
			"no pipeline result available; run train or predict first",
			nil,
		))
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// statusResponse is the body for GET /v1/pipeline/status.
type statusResponse struct {
	Stage types.PipelineStage   `json:"stage"`
	Logs  []types.ProcessingLog `json:"logs"`
}

// HandleGetStatus handles GET /v1/pipeline/status.
func (h *PipelineHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	stage, logs := h.session.Status()
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: statusResponse{
		Stage: stage,
		Logs:  logs,
	}})
}

func noConfigError() *types.AppError {
	return types.NewAppError(
		types.ErrCodeConflictNoConfig,
		"no pipeline configuration set for this session; POST /v1/pipeline/config first",
		nil,
	)
}
