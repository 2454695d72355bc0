package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates a sequential/parallel mismatch in strict mode.
	ExitErrorConfig   = 4   // Indicates a configuration or input validation error.
	ExitErrorWorkload = 5   // Indicates an absorb or merge step failed.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// Sentinel errors matched with errors.Is against the structured types below.
var (
	// ErrInvalidArgument is matched by every InvalidArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrWorkload is matched by every WorkloadError.
	ErrWorkload = errors.New("workload error")
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// InvalidArgumentError reports a malformed work specification handed to the
// partitioner or the reduction engine, such as a negative item count or a
// zero worker count.
type InvalidArgumentError struct {
	// Field is the name of the offending argument.
	Field string
	// Message explains why the argument was rejected.
	Message string
}

// Error returns a formatted message describing the rejected argument.
func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

// Is reports whether target is ErrInvalidArgument.
func (e InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// NewInvalidArgument creates an InvalidArgumentError with a formatted message.
func NewInvalidArgument(field, format string, a ...any) error {
	return InvalidArgumentError{Field: field, Message: fmt.Sprintf(format, a...)}
}

// WorkloadError wraps a failure raised by a caller-supplied absorb or merge
// step. It records which worker observed the failure and, for absorb
// failures, the index being folded.
type WorkloadError struct {
	// Worker is the index of the worker that observed the failure.
	Worker int
	// Index is the item index being absorbed, or -1 for a merge failure.
	Index int
	// Cause is the underlying error.
	Cause error
}

// Error returns a message naming the failing step and its cause.
func (e WorkloadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("worker %d: merge failed: %v", e.Worker, e.Cause)
	}
	return fmt.Sprintf("worker %d: absorb failed at index %d: %v", e.Worker, e.Index, e.Cause)
}

// Unwrap returns the original cause.
func (e WorkloadError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrWorkload.
func (e WorkloadError) Is(target error) bool { return target == ErrWorkload }

// TimeoutError represents a run timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure raised by a workload
// adapter before the engine is invoked. It identifies which parameter failed
// validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCodeFor maps an error returned by a lab run to the process exit code.
// A nil error maps to ExitSuccess.
func ExitCodeFor(err error) int {
	var (
		configErr     ConfigError
		validationErr ValidationError
		timeoutErr    TimeoutError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &configErr), errors.As(err, &validationErr), errors.Is(err, ErrInvalidArgument):
		return ExitErrorConfig
	case errors.Is(err, ErrWorkload):
		return ExitErrorWorkload
	default:
		return ExitErrorGeneric
	}
}
