package entity

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidPolicy = errors.New("invalid rate limit policy")

const (
	DefaultMaxRequests       = 5
	DefaultRetryAfter        = 3 * time.Second
	DefaultResetCounterAfter = 60 * time.Second
)

// Policy holds the limits shared by every endpoint
type Policy struct {
	MaxRequests       int           // Requests accepted before the endpoint trips
	RetryAfter        time.Duration // Block period after tripping
	ResetCounterAfter time.Duration // Inactivity gap that forgives prior usage
}

// DefaultPolicy returns the stock 5 requests / 3s block / 60s inactivity policy
func DefaultPolicy() Policy {
	return Policy{
		MaxRequests:       DefaultMaxRequests,
		RetryAfter:        DefaultRetryAfter,
		ResetCounterAfter: DefaultResetCounterAfter,
	}
}

// Validate checks that every limit is positive
func (p Policy) Validate() error {
	if p.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidPolicy, p.MaxRequests)
	}
	if p.RetryAfter <= 0 {
		return fmt.Errorf("%w: retry after must be positive, got %v", ErrInvalidPolicy, p.RetryAfter)
	}
	if p.ResetCounterAfter <= 0 {
		return fmt.Errorf("%w: reset counter after must be positive, got %v", ErrInvalidPolicy, p.ResetCounterAfter)
	}
	return nil
}

// Outcome is the verdict for a single request
type Outcome int

const (
	Accept Outcome = iota
	Reject
)

func (o Outcome) String() string {
	if o == Accept {
		return "accept"
	}
	return "reject"
}

// Decision is the result of evaluating one request against one endpoint
type Decision struct {
	Outcome           Outcome
	RetryAfterSeconds int  // Only set on Reject
	Tripped           bool // True when this request hit the cap and started the block
}

func (d Decision) Accepted() bool {
	return d.Outcome == Accept
}

// RateLimiter applies a Policy to endpoint states
type RateLimiter struct {
	policy Policy
}

// NewRateLimiter creates a limiter for the given policy
func NewRateLimiter(policy Policy) *RateLimiter {
	return &RateLimiter{policy: policy}
}

func (l *RateLimiter) Policy() Policy {
	return l.policy
}

// Evaluate decides whether a request arriving at now is admitted, mutating state in place.
//
// The window is "count since last reset": the counter is cleared either by an inactivity gap
// longer than ResetCounterAfter or by hitting MaxRequests, which also starts a block of RetryAfter.
// Requests during the block are rejected without touching the counter or the last request time.
func (l *RateLimiter) Evaluate(state *EndpointState, now time.Time) Decision {
	state.mu.Lock()
	defer state.mu.Unlock()

	if now.Before(state.blockedUntil) {
		return Decision{
			Outcome:           Reject,
			RetryAfterSeconds: ceilSeconds(state.blockedUntil.Sub(now)),
		}
	}

	if now.After(state.lastRequestAt.Add(l.policy.ResetCounterAfter)) {
		state.count = 0
	}

	if state.count < l.policy.MaxRequests {
		state.count++
		state.lastRequestAt = now
		return Decision{Outcome: Accept}
	}

	// Cap reached: full reset and block
	state.count = 0
	state.blockedUntil = now.Add(l.policy.RetryAfter)
	return Decision{
		Outcome:           Reject,
		RetryAfterSeconds: ceilSeconds(l.policy.RetryAfter),
		Tripped:           true,
	}
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
