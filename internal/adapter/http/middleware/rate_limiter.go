package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/usecase/evaluate_request"
)

// IndexParam is the chi URL parameter holding the endpoint index
const IndexParam = "index"

// UseCase interface para permitir mock em testes
type UseCase interface {
	Execute(ctx context.Context, input evaluate_request.Input) (*evaluate_request.Output, error)
}

type outputContextKey struct{}

// OutputFromContext returns the accepted evaluation stored by RateLimiterMiddleware
func OutputFromContext(ctx context.Context) (*evaluate_request.Output, bool) {
	output, ok := ctx.Value(outputContextKey{}).(*evaluate_request.Output)
	return output, ok
}

// RateLimiterMiddleware gates an endpoint route: 404 for unknown endpoints,
// 429 with Retry-After for rejections, next handler for accepted requests.
type RateLimiterMiddleware struct {
	useCase UseCase
	logger  *zap.Logger
}

func NewRateLimiterMiddleware(useCase UseCase, logger *zap.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		useCase: useCase,
		logger:  logger,
	}
}

func (m *RateLimiterMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// 1. Extrai o índice da rota
		input := evaluate_request.Input{RawIndex: chi.URLParam(r, IndexParam)}

		// 2. Executa use case
		output, err := m.useCase.Execute(ctx, input)
		if err != nil {
			if errors.Is(err, entity.ErrEndpointNotFound) {
				m.logger.Debug("Unknown endpoint", zap.String("index", input.RawIndex), zap.Error(err))
				http.NotFound(w, r)
				return
			}
			m.logger.Error("Rate limiter error", zap.String("index", input.RawIndex), zap.Error(err))
			m.sendInternalServerError(w)
			return
		}

		// 3. Se não permitido, rejeita com 429
		if !output.Allowed {
			m.logger.Info("Rate limit exceeded",
				zap.Int("endpoint", int(output.Index)),
				zap.Bool("blocked", output.Blocked),
				zap.Int("retry_after", output.RetryAfterSeconds),
			)
			m.sendRateLimitExceeded(w, output)
			return
		}

		// 4. Permitido - continua para próximo handler
		m.logger.Debug("Rate limit OK", zap.Int("endpoint", int(output.Index)))
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, outputContextKey{}, output)))
	})
}

// sendInternalServerError envia resposta de erro interno 500
func (m *RateLimiterMiddleware) sendInternalServerError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	response := map[string]string{
		"error": "Internal Server Error",
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		m.logger.Warn("Failed to encode JSON error response", zap.Error(err))
	}
}

// sendRateLimitExceeded envia resposta 429 com o header Retry-After em segundos
func (m *RateLimiterMiddleware) sendRateLimitExceeded(w http.ResponseWriter, output *evaluate_request.Output) {
	w.Header().Set("Retry-After", strconv.Itoa(output.RetryAfterSeconds))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]any{
		"message":     output.Message,
		"retry_after": output.RetryAfterSeconds,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		m.logger.Warn("Failed to encode JSON rate limit response", zap.Error(err))
	}
}
