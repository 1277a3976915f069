package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/larder/internal/types"
	"github.com/hyperengineering/larder/internal/validation"
)

// Recommender is the service surface the HTTP API depends on.
type Recommender interface {
	Recipes(ctx context.Context) []types.Recipe
	GetRecommendations(ctx context.Context, now time.Time) []types.RecommendationSection
	GetPersonalizedRecommendations(ctx context.Context, now time.Time) []types.RecommendationSection
	Patterns() types.PatternsResponse
	RecordEvent(ctx context.Context, req types.EventRequest) error
	ResetBehaviorData(ctx context.Context)
}

// StatsProvider reports aggregate store counts for the health check.
type StatsProvider interface {
	GetStats(ctx context.Context) (*types.StoreStats, error)
}

// Handler implements the API handlers
type Handler struct {
	svc     Recommender
	stats   StatsProvider
	apiKey  string
	version string
	now     func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc Recommender, stats StatsProvider, apiKey, version string) *Handler {
	return &Handler{
		svc:     svc,
		stats:   stats,
		apiKey:  apiKey,
		version: version,
		now:     time.Now,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats(r.Context())
	if err != nil {
		slog.Error("health check failed", "component", "api", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		RecipeCount: stats.RecipeCount,
		EventCount:  stats.EventCount,
	})
}

// ListRecipes handles GET /api/v1/recipes
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.RecipesResponse{Recipes: h.svc.Recipes(r.Context())})
}

// Recommendations handles GET /api/v1/recommendations?at=RFC3339&personalized=bool
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	if at := r.URL.Query().Get("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid 'at' parameter: %s", at))
			return
		}
		now = parsed
	}

	personalized := false
	if v := r.URL.Query().Get("personalized"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid 'personalized' parameter: %s", v))
			return
		}
		personalized = b
	}

	var sections []types.RecommendationSection
	if personalized {
		sections = h.svc.GetPersonalizedRecommendations(r.Context(), now)
	} else {
		sections = h.svc.GetRecommendations(r.Context(), now)
	}
	if sections == nil {
		sections = []types.RecommendationSection{}
	}

	writeJSON(w, http.StatusOK, types.RecommendationsResponse{
		GeneratedAt:  now.Format(time.RFC3339),
		Personalized: personalized,
		Sections:     sections,
	})
}

// Patterns handles GET /api/v1/patterns
func (h *Handler) Patterns(w http.ResponseWriter, r *http.Request) {
	resp := h.svc.Patterns()
	if resp.PreferredCategories == nil {
		resp.PreferredCategories = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordEvent handles POST /api/v1/events
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req types.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateEventRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if err := h.svc.RecordEvent(r.Context(), req); err != nil {
		MapStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ResetBehavior handles DELETE /api/v1/behavior
func (h *Handler) ResetBehavior(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetBehaviorData(r.Context())
	slog.Info("behavior data reset", "component", "api", "request_id", GetRequestID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}
