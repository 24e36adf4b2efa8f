package gateway

import "fmt"

// ValidationError is returned when input fails validation or, with Output set, when the
// model output does not match the declared shape.
type ValidationError struct {
	Operation string
	Message   string
	Cause     error
	// Output marks a failure in what the model returned rather than in the caller's request.
	Output bool
}

func (e *ValidationError) Error() string {
	kind := "validation error"
	if e.Output {
		kind = "invalid model output"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Operation, kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Operation, kind, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// UpstreamError represents a failed call to the model provider
type UpstreamError struct {
	Operation string
	Cause     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: model call failed: %v", e.Operation, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}
