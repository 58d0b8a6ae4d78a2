package react

import (
	"errors"
	"fmt"
)

var (
	// ErrMaxIterations is returned when the model keeps requesting tools past
	// the configured number of model calls.
	ErrMaxIterations = errors.New("react: max iterations reached")

	// ErrUnknownTool is returned, with WithStopOnError, when the model calls
	// a tool that is not registered.
	ErrUnknownTool = errors.New("react: unknown tool")

	// ErrSchemaValidation is returned when the final answer still does not
	// match the output schema after the corrective re-prompts.
	ErrSchemaValidation = errors.New("react: final answer does not match output schema")

	// ErrMaxHandoffs is returned when agents keep transferring the
	// conversation to each other.
	ErrMaxHandoffs = errors.New("react: too many handoffs")

	// ErrNoMessages is returned when there is nothing to send to the model.
	ErrNoMessages = errors.New("react: no messages")

	// errStreamStopped ends a run whose stream consumer stopped iterating.
	errStreamStopped = errors.New("react: stream stopped")
)

// ToolError reports a failed tool call when WithStopOnError is set.
type ToolError struct {
	Tool   string
	CallID string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("react: tool %q (call %s): %v", e.Tool, e.CallID, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
