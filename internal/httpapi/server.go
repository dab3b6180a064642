// Package httpapi exposes the pipeline over HTTP. Every entry point lives
// under one path and is selected by query parameters on GET or by the
// action field of a POST body.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"Herald/internal/logging"
	"Herald/internal/usecase"
)

// BasePath is where the pipeline is mounted.
const BasePath = "/api/herald"

// Deps wires the use cases behind the API.
type Deps struct {
	Generator  *usecase.Generator
	Editorial  *usecase.EditorialWorkflow
	Handoff    *usecase.ListHandoff
	Lifecycle  *usecase.EditionLifecycle
	Exporter   *usecase.Exporter
	Agents     *usecase.AgentExecutor
	Aggregator *usecase.IntelligenceAggregator
	Dispatcher *usecase.Dispatcher
	Logger     *slog.Logger
}

// Handler serves the pipeline endpoints.
type Handler struct {
	deps   Deps
	logger *slog.Logger
}

// NewHandler constructs the API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, logger: logging.Component(deps.Logger, "http")}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/", h.handlePost)
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
