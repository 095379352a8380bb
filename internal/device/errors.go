package device

import (
	"fmt"
	"strings"
)

// CyclicCompletionError reports a derivation dependency cycle. It is a
// construction-time defect and always fatal.
type CyclicCompletionError struct {
	ComponentID string
	Cycle       []string
}

func (e *CyclicCompletionError) Error() string {
	return fmt.Sprintf("completion cycle in %s: %s", e.ComponentID, strings.Join(e.Cycle, " -> "))
}
