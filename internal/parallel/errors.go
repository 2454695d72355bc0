// Package parallel holds the small concurrency primitives shared by the
// reduction engine: first-error collection and panic capture.
package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// ErrorCollector records the first non-nil error reported by any number of
// concurrent goroutines. The zero value is ready to use.
type ErrorCollector struct {
	once sync.Once
	err  error
}

// SetError records err if it is the first non-nil error seen. Nil errors are
// ignored.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.once.Do(func() { c.err = err })
}

// Err returns the first recorded error, or nil. It must only be called after
// every writer has finished (for example after a WaitGroup.Wait).
func (c *ErrorCollector) Err() error {
	return c.err
}

// PanicError is a recovered panic converted to an error, carrying the stack
// of the goroutine that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

// Error returns the panic value followed by the captured stack.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
}

// Unwrap returns the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsRuntimeError reports whether the panic came from the Go runtime
// (nil dereference, index out of range, ...).
func (e *PanicError) IsRuntimeError() bool {
	var re runtime.Error
	err, ok := e.Value.(error)
	return ok && errors.As(err, &re)
}

// WrapPanic converts a value returned by recover into a *PanicError with the
// current stack attached. It returns nil when p is nil. Call it directly from
// the deferred function so the stack still shows the panicking frame.
func WrapPanic(p any) error {
	if p == nil {
		return nil
	}
	return &PanicError{Value: p, Stack: debug.Stack()}
}
