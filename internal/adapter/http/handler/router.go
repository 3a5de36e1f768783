package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/EuricoCruz/api429/internal/adapter/http/middleware"
	"github.com/EuricoCruz/api429/internal/usecase/evaluate_request"
)

// UseCase is everything the router needs from the application layer
type UseCase interface {
	Execute(ctx context.Context, input evaluate_request.Input) (*evaluate_request.Output, error)
	Snapshot(ctx context.Context) ([]evaluate_request.EndpointView, error)
}

// NewRouter wires the HTTP surface:
//
//	GET /api/{index}  rate limited endpoint
//	GET /stats        endpoint state and counters
//	GET /health       liveness
//	anything else     302 to /api/0
func NewRouter(useCase UseCase, logger *zap.Logger) http.Handler {
	endpoints := NewEndpointHandler(useCase, logger)
	rateLimiter := middleware.NewRateLimiterMiddleware(useCase, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)

	r.With(rateLimiter.Handle).Get("/api/{"+middleware.IndexParam+"}", endpoints.Endpoint)
	r.Get("/stats", endpoints.Stats)
	r.Get("/health", endpoints.Health)

	r.NotFound(endpoints.Redirect)

	return r
}
