package evaluate_request

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/domain/repository"
	"github.com/EuricoCruz/api429/internal/infrastructure/clock"
)

// RateLimitExceededMessage is the standardized message returned when a request is rejected
const RateLimitExceededMessage = "you have reached the maximum number of requests allowed for this endpoint, retry later"

// UseCase resolves an endpoint and runs the rate limiter against it
type UseCase struct {
	registry repository.EndpointRegistry
	limiter  *entity.RateLimiter
	recorder repository.DecisionRecorder
	clock    clock.Clock
	logger   *zap.Logger
}

// NewUseCase creates a new instance using dependency injection
func NewUseCase(
	registry repository.EndpointRegistry,
	limiter *entity.RateLimiter,
	recorder repository.DecisionRecorder,
	clk clock.Clock,
	logger *zap.Logger,
) *UseCase {
	return &UseCase{
		registry: registry,
		limiter:  limiter,
		recorder: recorder,
		clock:    clk,
		logger:   logger,
	}
}

// Execute evaluates one request against its endpoint.
//
// The execution flow:
// 1. Validate input and parse the endpoint index
// 2. Resolve the endpoint state (unknown endpoints return entity.ErrEndpointNotFound untouched)
// 3. Evaluate the request at the current time
// 4. Record the decision (failures are logged, never returned)
func (uc *UseCase) Execute(ctx context.Context, input Input) (*Output, error) {
	// 1. Validate input parameters
	if err := input.Validate(); err != nil {
		return nil, err
	}

	index, err := entity.ParseEndpointIndex(input.RawIndex, uc.registry.Len())
	if err != nil {
		return nil, err
	}

	// 2. Resolve endpoint state
	state, ok := uc.registry.Resolve(index)
	if !ok {
		return nil, fmt.Errorf("%w: index %d", entity.ErrEndpointNotFound, index)
	}

	// 3. Evaluate
	decision := uc.limiter.Evaluate(state, uc.clock.Now())

	// 4. Record statistics
	if err := uc.recorder.Record(ctx, index, decision); err != nil {
		uc.logger.Warn("failed to record decision",
			zap.Int("endpoint", int(index)),
			zap.String("outcome", decision.Outcome.String()),
			zap.Error(err),
		)
	}

	if decision.Accepted() {
		return uc.createAllowedOutput(index), nil
	}
	return uc.createRejectedOutput(index, decision), nil
}

// Snapshot returns the live state and statistics of every endpoint
func (uc *UseCase) Snapshot(ctx context.Context) ([]EndpointView, error) {
	n := uc.registry.Len()

	stats, err := uc.recorder.Stats(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load endpoint stats: %w", err)
	}

	now := uc.clock.Now()
	views := make([]EndpointView, 0, n)
	for i := 0; i < n; i++ {
		index := entity.EndpointIndex(i)
		state, ok := uc.registry.Resolve(index)
		if !ok {
			continue
		}

		snap := state.Snapshot()
		view := EndpointView{
			Index:         index,
			Count:         snap.Count,
			Blocked:       snap.IsBlocked(now),
			BlockedUntil:  snap.BlockedUntil,
			LastRequestAt: snap.LastRequestAt,
		}
		if i < len(stats) {
			view.Accepted = stats[i].Accepted
			view.Rejected = stats[i].Rejected
			view.Tripped = stats[i].Tripped
		}
		views = append(views, view)
	}
	return views, nil
}

// createAllowedOutput creates an output response when the request is accepted
func (uc *UseCase) createAllowedOutput(index entity.EndpointIndex) *Output {
	return &Output{
		Index:   index,
		Allowed: true,
	}
}

// createRejectedOutput creates an output response for a rejection, mid-block or newly tripped
func (uc *UseCase) createRejectedOutput(index entity.EndpointIndex, decision entity.Decision) *Output {
	return &Output{
		Index:             index,
		Allowed:           false,
		Blocked:           !decision.Tripped,
		RetryAfterSeconds: decision.RetryAfterSeconds,
		Message:           RateLimitExceededMessage,
	}
}
