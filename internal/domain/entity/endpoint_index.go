package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrEndpointNotFound = errors.New("endpoint not found")

// EndpointIndex is a value object identifying one simulated endpoint
type EndpointIndex int

// ParseEndpointIndex parses a decimal index and checks it against [0, maxEndpoints)
func ParseEndpointIndex(raw string, maxEndpoints int) (EndpointIndex, error) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrEndpointNotFound, raw)
	}
	idx := EndpointIndex(i)
	if !idx.IsValid(maxEndpoints) {
		return 0, fmt.Errorf("%w: index %d outside [0, %d)", ErrEndpointNotFound, i, maxEndpoints)
	}
	return idx, nil
}

// IsValid validates the value object
func (i EndpointIndex) IsValid(maxEndpoints int) bool {
	return i >= 0 && int(i) < maxEndpoints
}

// String returns the text served as the endpoint body
func (i EndpointIndex) String() string {
	return strconv.Itoa(int(i))
}

// Path returns the HTTP path of the endpoint
func (i EndpointIndex) Path() string {
	return "/api/" + i.String()
}
