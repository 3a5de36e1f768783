package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/domain/repository"
)

type counters struct {
	accepted atomic.Int64
	rejected atomic.Int64
	tripped  atomic.Int64
}

// Recorder implements repository.DecisionRecorder with in-process atomic counters
type Recorder struct {
	endpoints []counters
}

// NewRecorder creates counters for n endpoints
func NewRecorder(n int) *Recorder {
	return &Recorder{endpoints: make([]counters, n)}
}

func (r *Recorder) Record(_ context.Context, index entity.EndpointIndex, decision entity.Decision) error {
	if !index.IsValid(len(r.endpoints)) {
		return fmt.Errorf("record decision: %w: %d", entity.ErrEndpointNotFound, index)
	}

	c := &r.endpoints[index]
	if decision.Accepted() {
		c.accepted.Add(1)
		return nil
	}
	c.rejected.Add(1)
	if decision.Tripped {
		c.tripped.Add(1)
	}
	return nil
}

func (r *Recorder) Stats(_ context.Context, n int) ([]repository.EndpointStats, error) {
	if n > len(r.endpoints) {
		n = len(r.endpoints)
	}

	stats := make([]repository.EndpointStats, n)
	for i := 0; i < n; i++ {
		c := &r.endpoints[i]
		stats[i] = repository.EndpointStats{
			Index:    entity.EndpointIndex(i),
			Accepted: c.accepted.Load(),
			Rejected: c.rejected.Load(),
			Tripped:  c.tripped.Load(),
		}
	}
	return stats, nil
}

func (r *Recorder) Close() error {
	return nil
}
