package tools

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrToolNotFound is returned when a collection has no tool with the
	// requested name.
	ErrToolNotFound = errors.New("tool not found")
	// ErrInvalidArguments is returned when the caller-supplied arguments
	// are neither nil, a map, nor a JSON string.
	ErrInvalidArguments = errors.New("invalid arguments: expected JSON string or object")
)

// APIError carries a non-2xx remote response verbatim for caller
// inspection, together with the request body that produced it.
type APIError struct {
	StatusCode  int
	Response    any
	RequestBody string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

// ToolError wraps any failure raised by a tool backend, preserving the
// original error as the cause.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// wrapToolError ensures a backend error is reported as *ToolError exactly
// once.
func wrapToolError(name string, err error) error {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return err
	}
	return &ToolError{Tool: name, Err: err}
}

// DerivationError reports a pre-execute derivation failure with the source
// and target parameter names for diagnosability.
type DerivationError struct {
	Source  string
	Targets []string
	Err     error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("derivation from %q to %v failed: %v", e.Source, e.Targets, e.Err)
}

func (e *DerivationError) Unwrap() error {
	return e.Err
}
