package parsing

import "fmt"

// FragmentError describes one brace-delimited candidate that was not valid JSON.
type FragmentError struct {
	Index    int    // position among the candidates found in the reply
	Fragment string // the candidate text, truncated
	Cause    error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("malformed JSON object #%d %q: %v", e.Index, e.Fragment, e.Cause)
}

func (e *FragmentError) Unwrap() error {
	return e.Cause
}
