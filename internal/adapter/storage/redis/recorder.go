package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/domain/repository"
)

const (
	fieldAccepted = "accepted"
	fieldRejected = "rejected"
	fieldTripped  = "tripped"

	DefaultKeyPrefix = "api429"
)

// Recorder implementa repository.DecisionRecorder usando hashes do Redis
type Recorder struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRecorder cria uma nova instância de Recorder usando dependency injection.
// ttl zero mantém os contadores sem expiração.
func NewRecorder(client *redis.Client, keyPrefix string, ttl time.Duration) *Recorder {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Recorder{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Close fecha a conexão com o Redis
func (r *Recorder) Close() error {
	return r.client.Close()
}

// Record executa o script Lua que incrementa os contadores do endpoint
func (r *Recorder) Record(ctx context.Context, index entity.EndpointIndex, decision entity.Decision) error {
	if index < 0 {
		return fmt.Errorf("record decision: %w: %d", entity.ErrEndpointNotFound, index)
	}

	field := fieldAccepted
	if !decision.Accepted() {
		field = fieldRejected
	}
	tripped := "0"
	if decision.Tripped {
		tripped = "1"
	}

	key := r.endpointKey(index)
	result, err := recordDecisionScript.Run(
		ctx,
		r.client,
		[]string{key},                            // KEYS
		field, tripped, int64(r.ttl/time.Second), // ARGV
	).Result()
	if err != nil {
		return fmt.Errorf("failed to record decision for key %s: %w", key, err)
	}

	if _, err := r.parseScriptResult(result); err != nil {
		return fmt.Errorf("failed to parse script result for key %s: %w", key, err)
	}
	return nil
}

// Stats lê os contadores de todos os endpoints em um único pipeline
func (r *Recorder) Stats(ctx context.Context, n int) ([]repository.EndpointStats, error) {
	cmds := make([]*redis.SliceCmd, n)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := 0; i < n; i++ {
			cmds[i] = pipe.HMGet(ctx, r.endpointKey(entity.EndpointIndex(i)), fieldAccepted, fieldRejected, fieldTripped)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoint stats: %w", err)
	}

	stats := make([]repository.EndpointStats, n)
	for i, cmd := range cmds {
		values := cmd.Val()
		if len(values) != 3 {
			return nil, fmt.Errorf("expected 3 fields for endpoint %d, got: %d", i, len(values))
		}

		counts := make([]int64, 3)
		for j, v := range values {
			if counts[j], err = parseCounter(v); err != nil {
				return nil, fmt.Errorf("endpoint %d: %w", i, err)
			}
		}

		stats[i] = repository.EndpointStats{
			Index:    entity.EndpointIndex(i),
			Accepted: counts[0],
			Rejected: counts[1],
			Tripped:  counts[2],
		}
	}
	return stats, nil
}

// endpointKey gera a chave Redis do hash de um endpoint
func (r *Recorder) endpointKey(index entity.EndpointIndex) string {
	return fmt.Sprintf("%s:endpoint:%d", r.keyPrefix, index)
}

// parseScriptResult espera formato: [accepted, rejected, tripped]
func (r *Recorder) parseScriptResult(result interface{}) ([]int64, error) {
	resultSlice, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected array result, got: %T", result)
	}
	if len(resultSlice) != 3 {
		return nil, fmt.Errorf("expected 3 elements in result array, got: %d", len(resultSlice))
	}

	counts := make([]int64, 3)
	for i, v := range resultSlice {
		n, err := parseCounter(v)
		if err != nil {
			return nil, err
		}
		counts[i] = n
	}
	return counts, nil
}

// parseCounter converte os tipos possíveis de resposta do Redis em int64
func parseCounter(value interface{}) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse counter value '%s': %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected counter value type %T with value %v", v, v)
	}
}
