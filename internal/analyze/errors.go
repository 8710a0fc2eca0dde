package analyze

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model produced no text at all.
var ErrEmptyResponse = errors.New("analyze: empty model response")

// AnalyzerCallError wraps a failed call to the model API.
type AnalyzerCallError struct {
	StatusCode int
	Err        error
}

func (e *AnalyzerCallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("analyze: model call failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("analyze: model call failed: %v", e.Err)
}

func (e *AnalyzerCallError) Unwrap() error { return e.Err }

// ResponseParseError means the model replied but the reply held no usable
// duplicate payload. Raw keeps the full reply for diagnostics.
type ResponseParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ResponseParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analyze: %s: %v", e.Reason, e.Err)
	}
	return "analyze: " + e.Reason
}

func (e *ResponseParseError) Unwrap() error { return e.Err }
