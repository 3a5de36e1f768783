package evaluate_request

import (
	"time"

	"github.com/EuricoCruz/api429/internal/domain/entity"
)

// Output represents the result of evaluating one endpoint request
type Output struct {
	// Index is the endpoint that handled the request.
	Index entity.EndpointIndex

	// Allowed indicates whether the request was accepted.
	Allowed bool

	// Blocked is true when the request arrived while the endpoint was already in its block period.
	// A request that trips the limit is rejected with Blocked=false.
	Blocked bool

	// RetryAfterSeconds is the Retry-After hint for rejected requests, rounded up.
	RetryAfterSeconds int

	// Message contains a human-readable explanation for rejections.
	Message string
}

// EndpointView is the live state of one endpoint joined with its statistics
type EndpointView struct {
	Index         entity.EndpointIndex `json:"index"`
	Count         int                  `json:"count"`
	Blocked       bool                 `json:"blocked"`
	BlockedUntil  time.Time            `json:"blocked_until"`
	LastRequestAt time.Time            `json:"last_request_at"`
	Accepted      int64                `json:"accepted"`
	Rejected      int64                `json:"rejected"`
	Tripped       int64                `json:"tripped"`
}
