package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EuricoCruz/api429/internal/domain/entity"
)

// setupRecorder sobe um miniredis isolado por teste
func setupRecorder(t *testing.T, ttl time.Duration) (*Recorder, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	recorder := NewRecorder(client, "", ttl)
	t.Cleanup(func() {
		recorder.Close()
	})

	return recorder, server
}

func TestRecorder_Record_IncrementsCounters(t *testing.T) {
	// Arrange
	recorder, server := setupRecorder(t, 0)
	ctx := context.Background()

	// Act
	require.NoError(t, recorder.Record(ctx, 3, entity.Decision{Outcome: entity.Accept}))
	require.NoError(t, recorder.Record(ctx, 3, entity.Decision{Outcome: entity.Accept}))
	require.NoError(t, recorder.Record(ctx, 3, entity.Decision{Outcome: entity.Reject, RetryAfterSeconds: 3, Tripped: true}))
	require.NoError(t, recorder.Record(ctx, 3, entity.Decision{Outcome: entity.Reject, RetryAfterSeconds: 2}))

	// Assert
	assert.Equal(t, "2", server.HGet("api429:endpoint:3", "accepted"))
	assert.Equal(t, "2", server.HGet("api429:endpoint:3", "rejected"))
	assert.Equal(t, "1", server.HGet("api429:endpoint:3", "tripped"))
}

func TestRecorder_Stats_ReturnsZeroForUntouchedEndpoints(t *testing.T) {
	// Arrange
	recorder, _ := setupRecorder(t, 0)
	ctx := context.Background()

	require.NoError(t, recorder.Record(ctx, 1, entity.Decision{Outcome: entity.Accept}))

	// Act
	stats, err := recorder.Stats(ctx, 3)

	// Assert
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, int64(0), stats[0].Accepted)
	assert.Equal(t, int64(1), stats[1].Accepted)
	assert.Equal(t, int64(0), stats[1].Rejected)
	assert.Equal(t, entity.EndpointIndex(2), stats[2].Index)
}

func TestRecorder_Record_AppliesTTL(t *testing.T) {
	// Arrange
	recorder, server := setupRecorder(t, time.Hour)

	// Act
	require.NoError(t, recorder.Record(context.Background(), 0, entity.Decision{Outcome: entity.Accept}))

	// Assert
	assert.Equal(t, time.Hour, server.TTL("api429:endpoint:0"))

	server.FastForward(2 * time.Hour)
	assert.False(t, server.Exists("api429:endpoint:0"))
}

func TestRecorder_Record_RejectsNegativeIndex(t *testing.T) {
	recorder, _ := setupRecorder(t, 0)

	err := recorder.Record(context.Background(), -1, entity.Decision{})
	assert.ErrorIs(t, err, entity.ErrEndpointNotFound)
}

func TestRecorder_PropagatesConnectionErrors(t *testing.T) {
	// Arrange
	recorder, server := setupRecorder(t, 0)
	server.Close()

	// Act
	err := recorder.Record(context.Background(), 0, entity.Decision{Outcome: entity.Accept})
	_, statsErr := recorder.Stats(context.Background(), 1)

	// Assert
	assert.Error(t, err)
	assert.Error(t, statsErr)
}

func TestParseCounter(t *testing.T) {
	n, err := parseCounter(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = parseCounter("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = parseCounter(int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = parseCounter("abc")
	assert.Error(t, err)

	_, err = parseCounter(1.5)
	assert.Error(t, err)
}
