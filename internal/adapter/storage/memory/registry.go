package memory

import (
	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/infrastructure/clock"
)

// Registry is the in-process, fixed-size EndpointRegistry
type Registry struct {
	states []*entity.EndpointState
}

// NewRegistry creates n endpoints, all unblocked with a zero counter as of clk.Now()
func NewRegistry(n int, clk clock.Clock) *Registry {
	now := clk.Now()
	states := make([]*entity.EndpointState, n)
	for i := range states {
		states[i] = entity.NewEndpointState(now)
	}
	return &Registry{states: states}
}

func (r *Registry) Resolve(index entity.EndpointIndex) (*entity.EndpointState, bool) {
	if !index.IsValid(len(r.states)) {
		return nil, false
	}
	return r.states[index], true
}

func (r *Registry) Len() int {
	return len(r.states)
}
