package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/EuricoCruz/api429/internal/adapter/http/middleware"
	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/usecase/evaluate_request"
)

// FallbackIndex is where unmatched paths are redirected
const FallbackIndex entity.EndpointIndex = 0

// StatsUseCase exposes the endpoint views served on /stats
type StatsUseCase interface {
	Snapshot(ctx context.Context) ([]evaluate_request.EndpointView, error)
}

type EndpointHandler struct {
	stats  StatsUseCase
	logger *zap.Logger
}

func NewEndpointHandler(stats StatsUseCase, logger *zap.Logger) *EndpointHandler {
	return &EndpointHandler{stats: stats, logger: logger}
}

// Endpoint answers an accepted request with the endpoint index as text
func (h *EndpointHandler) Endpoint(w http.ResponseWriter, r *http.Request) {
	output, ok := middleware.OutputFromContext(r.Context())
	if !ok {
		h.logger.Error("Endpoint reached without rate limiter output", zap.String("path", r.URL.Path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(output.Index.String()))
}

// Redirect sends any unmatched path to the first endpoint
func (h *EndpointHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, FallbackIndex.Path(), http.StatusFound)
}

func (h *EndpointHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Stats returns the live state and counters of every endpoint
func (h *EndpointHandler) Stats(w http.ResponseWriter, r *http.Request) {
	views, err := h.stats.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("Failed to build stats", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
