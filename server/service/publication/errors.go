package publication

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports the publish-gate fields that are missing or
// invalid. The record the caller tried to publish stays in draft.
type ValidationError struct {
	// Missing maps field name to a user-facing message.
	Missing map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Missing))
	for field := range e.Missing {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// ConflictError reports a chapter numbering collision. No write is applied.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// DateGuardError reports a rejected publication-date change. No write is
// applied.
type DateGuardError struct {
	Reason string
}

func (e *DateGuardError) Error() string {
	return e.Reason
}
