package evaluate_request

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/EuricoCruz/api429/internal/adapter/storage/memory"
	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/domain/repository"
	"github.com/EuricoCruz/api429/internal/infrastructure/clock"
)

var start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newUseCase(recorder repository.DecisionRecorder) (*UseCase, *memory.Registry, *clock.Fake) {
	clk := clock.NewFake(start)
	registry := memory.NewRegistry(6, clk)
	uc := NewUseCase(registry, entity.NewRateLimiter(entity.DefaultPolicy()), recorder, clk, zap.NewNop())
	return uc, registry, clk
}

func TestExecute_InvalidIndex_ReturnsNotFound(t *testing.T) {
	// Arrange
	useCase, registry, _ := newUseCase(memory.NewRecorder(6))

	for _, raw := range []string{"-1", "6", "abc", ""} {
		// Act
		output, err := useCase.Execute(context.Background(), Input{RawIndex: raw})

		// Assert
		assert.ErrorIs(t, err, entity.ErrEndpointNotFound, "index %q", raw)
		assert.Nil(t, output)
	}

	for i := 0; i < registry.Len(); i++ {
		state, _ := registry.Resolve(entity.EndpointIndex(i))
		assert.Equal(t, 0, state.Snapshot().Count, "endpoint %d must be untouched", i)
		assert.Equal(t, start, state.Snapshot().LastRequestAt)
	}
}

func TestExecute_AcceptsThenRejectsWithRetryAfter(t *testing.T) {
	// Arrange
	useCase, _, _ := newUseCase(memory.NewRecorder(6))
	ctx := context.Background()

	// Act & Assert - first MaxRequests are accepted
	for i := 1; i <= entity.DefaultMaxRequests; i++ {
		output, err := useCase.Execute(ctx, Input{RawIndex: "3"})
		require.NoError(t, err)
		assert.True(t, output.Allowed, "request %d should be allowed", i)
		assert.Equal(t, entity.EndpointIndex(3), output.Index)
	}

	output, err := useCase.Execute(ctx, Input{RawIndex: "3"})
	require.NoError(t, err)
	assert.False(t, output.Allowed)
	assert.False(t, output.Blocked, "the tripping request is not a mid-block rejection")
	assert.Equal(t, 3, output.RetryAfterSeconds)
	assert.Equal(t, RateLimitExceededMessage, output.Message)

	output, err = useCase.Execute(ctx, Input{RawIndex: "3"})
	require.NoError(t, err)
	assert.False(t, output.Allowed)
	assert.True(t, output.Blocked)
}

func TestExecute_AcceptsAgainAfterBlockExpires(t *testing.T) {
	// Arrange
	useCase, registry, clk := newUseCase(memory.NewRecorder(6))
	ctx := context.Background()

	for i := 0; i <= entity.DefaultMaxRequests; i++ {
		_, err := useCase.Execute(ctx, Input{RawIndex: "3"})
		require.NoError(t, err)
	}

	// Act
	clk.Advance(4 * time.Second)
	output, err := useCase.Execute(ctx, Input{RawIndex: "3"})

	// Assert
	require.NoError(t, err)
	assert.True(t, output.Allowed)
	state, _ := registry.Resolve(3)
	assert.Equal(t, 1, state.Snapshot().Count)
}

func TestExecute_EndpointsAreIndependent(t *testing.T) {
	// Arrange
	useCase, registry, _ := newUseCase(memory.NewRecorder(6))
	ctx := context.Background()

	// Act - drive endpoint 0 into its block
	for i := 0; i <= entity.DefaultMaxRequests; i++ {
		_, err := useCase.Execute(ctx, Input{RawIndex: "0"})
		require.NoError(t, err)
	}

	// Assert
	output, err := useCase.Execute(ctx, Input{RawIndex: "1"})
	require.NoError(t, err)
	assert.True(t, output.Allowed)

	state, _ := registry.Resolve(1)
	assert.Equal(t, 1, state.Snapshot().Count)
	assert.False(t, state.Snapshot().IsBlocked(start))
}

func TestExecute_RecordsEveryDecision(t *testing.T) {
	// Arrange
	mockRecorder := new(MockRecorder)
	useCase, _, _ := newUseCase(mockRecorder)

	mockRecorder.On("Record", mock.Anything, entity.EndpointIndex(2), entity.Decision{Outcome: entity.Accept}).Return(nil).Once()

	// Act
	output, err := useCase.Execute(context.Background(), Input{RawIndex: "2"})

	// Assert
	require.NoError(t, err)
	assert.True(t, output.Allowed)
	mockRecorder.AssertExpectations(t)
}

func TestExecute_RecorderErrorDoesNotChangeOutcome(t *testing.T) {
	// Arrange
	core, logs := observer.New(zap.WarnLevel)
	mockRecorder := new(MockRecorder)
	clk := clock.NewFake(start)
	useCase := NewUseCase(memory.NewRegistry(6, clk), entity.NewRateLimiter(entity.DefaultPolicy()), mockRecorder, clk, zap.New(core))

	mockRecorder.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	// Act
	output, err := useCase.Execute(context.Background(), Input{RawIndex: "0"})

	// Assert
	require.NoError(t, err)
	assert.True(t, output.Allowed)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to record decision", logs.All()[0].Message)
}

func TestExecute_RegistryMissReturnsNotFound(t *testing.T) {
	// Arrange
	mockRegistry := new(MockRegistry)
	mockRecorder := new(MockRecorder)
	clk := clock.NewFake(start)
	useCase := NewUseCase(mockRegistry, entity.NewRateLimiter(entity.DefaultPolicy()), mockRecorder, clk, zap.NewNop())

	mockRegistry.On("Len").Return(6)
	mockRegistry.On("Resolve", entity.EndpointIndex(4)).Return(nil, false)

	// Act
	output, err := useCase.Execute(context.Background(), Input{RawIndex: "4"})

	// Assert
	assert.ErrorIs(t, err, entity.ErrEndpointNotFound)
	assert.Nil(t, output)
	mockRecorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestSnapshot_JoinsStateAndStats(t *testing.T) {
	// Arrange
	useCase, _, clk := newUseCase(memory.NewRecorder(6))
	ctx := context.Background()

	for i := 0; i <= entity.DefaultMaxRequests; i++ {
		_, err := useCase.Execute(ctx, Input{RawIndex: "5"})
		require.NoError(t, err)
	}
	_, err := useCase.Execute(ctx, Input{RawIndex: "2"})
	require.NoError(t, err)

	// Act
	views, err := useCase.Snapshot(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, views, 6)

	assert.Equal(t, 1, views[2].Count)
	assert.Equal(t, int64(1), views[2].Accepted)
	assert.False(t, views[2].Blocked)

	assert.Equal(t, 0, views[5].Count)
	assert.True(t, views[5].Blocked)
	assert.Equal(t, int64(5), views[5].Accepted)
	assert.Equal(t, int64(1), views[5].Rejected)
	assert.Equal(t, int64(1), views[5].Tripped)
	assert.Equal(t, clk.Now().Add(3*time.Second), views[5].BlockedUntil)
}

func TestSnapshot_PropagatesStatsError(t *testing.T) {
	// Arrange
	mockRecorder := new(MockRecorder)
	useCase, _, _ := newUseCase(mockRecorder)

	expectedError := errors.New("stats error")
	mockRecorder.On("Stats", mock.Anything, 6).Return(nil, expectedError)

	// Act
	views, err := useCase.Snapshot(context.Background())

	// Assert
	assert.ErrorIs(t, err, expectedError)
	assert.Nil(t, views)
}
