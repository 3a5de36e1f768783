package evaluate_request

import (
	"fmt"
	"strings"

	"github.com/EuricoCruz/api429/internal/domain/entity"
)

// Input represents the input data for one endpoint request (DTO - Data Transfer Object)
type Input struct {
	RawIndex string // Index segment exactly as it came from the URL
}

// Validate validates the input data. A missing index is reported as an unknown endpoint.
func (i Input) Validate() error {
	if strings.TrimSpace(i.RawIndex) == "" {
		return fmt.Errorf("%w: endpoint index is required", entity.ErrEndpointNotFound)
	}
	return nil
}
