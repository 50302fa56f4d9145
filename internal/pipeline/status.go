package pipeline

import "fmt"

// Status is the terminal outcome of one run.
type Status string

// Run statuses. Success and NoResults are normal completions; the rest are errors.
const (
	StatusSuccess            Status = "success"
	StatusNoResults          Status = "no_results"
	StatusConfigurationError Status = "configuration_error"
	StatusInvalidGoal        Status = "invalid_goal"
	StatusInvalidDirective   Status = "invalid_directive"
	StatusStorageError       Status = "storage_error"
)

// IsError reports whether s is one of the error statuses.
func (s Status) IsError() bool {
	return s != StatusSuccess && s != StatusNoResults
}

// RunError is the error form of a failed run, for callers that prefer error returns.
type RunError struct {
	Status  Status
	Message string
	Cause   error
}

func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("run failed (%s): %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("run failed (%s): %s", e.Status, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Cause
}
