package repository

import (
	"context"

	"github.com/EuricoCruz/api429/internal/domain/entity"
)

// EndpointRegistry owns the fixed set of endpoint states.
// Implementations are created once at startup and never add or remove endpoints.
type EndpointRegistry interface {
	// Resolve returns the state of the endpoint, or false when the index is out of range.
	Resolve(index entity.EndpointIndex) (*entity.EndpointState, bool)

	// Len returns the number of endpoints.
	Len() int
}

// DecisionRecorder keeps per-endpoint accept/reject statistics.
// It never influences a decision; it only observes them.
type DecisionRecorder interface {
	// Record counts one decision for the endpoint.
	Record(ctx context.Context, index entity.EndpointIndex, decision entity.Decision) error

	// Stats returns the counters of the first n endpoints, in index order.
	Stats(ctx context.Context, n int) ([]EndpointStats, error)

	// Close releases any connections held by the recorder.
	Close() error
}

// EndpointStats contains the counters of one endpoint
type EndpointStats struct {
	Index    entity.EndpointIndex
	Accepted int64
	Rejected int64
	Tripped  int64 // Rejections that started a block
}
