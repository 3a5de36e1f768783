package entity

import (
	"sync"
	"time"
)

// EndpointState is the mutable limiter record of one endpoint.
// All reads and writes go through its lock; RateLimiter.Evaluate holds it for the whole decision.
type EndpointState struct {
	mu            sync.Mutex
	count         int
	blockedUntil  time.Time
	lastRequestAt time.Time
}

// EndpointSnapshot is a point-in-time copy of an EndpointState
type EndpointSnapshot struct {
	Count         int
	BlockedUntil  time.Time
	LastRequestAt time.Time
}

// NewEndpointState creates an unblocked state with a zero counter
func NewEndpointState(now time.Time) *EndpointState {
	return &EndpointState{
		blockedUntil:  now,
		lastRequestAt: now,
	}
}

// Snapshot copies the current fields
func (s *EndpointState) Snapshot() EndpointSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EndpointSnapshot{
		Count:         s.count,
		BlockedUntil:  s.blockedUntil,
		LastRequestAt: s.lastRequestAt,
	}
}

// IsBlocked reports whether the snapshot is inside a block period at now
func (s EndpointSnapshot) IsBlocked(now time.Time) bool {
	return now.Before(s.BlockedUntil)
}
