package config

import (
	"fmt"
	"strings"
)

// ValidationError collects every configuration problem found during Load
// so a broken deployment reports all of them in one pass.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}
