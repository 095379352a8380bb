package aggregate

import (
	"fmt"

	"github.com/verdant-group/impact-cli/internal/model"
)

// ComputationError reports a physically impossible impact value, such
// as a negative quantity leaking into a phase total.
type ComputationError struct {
	Phase     model.Phase
	Criterion model.Criterion
	Value     float64
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("impact computation produced invalid %s/%s value %v", e.Phase, e.Criterion, e.Value)
}
