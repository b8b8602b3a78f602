// Package colerrors provides structured error handling for colwire with
// error categorization, key-value context, and stack traces.
//
// # Overview
//
// Every failure raised by the builders, the assembler/loader pair, and the
// IPC readers and writers is an *Error carrying one of a small set of types:
//   - Construction errors: a builder was misused (wrong value type, append
//     after finish, second child on a single-child builder)
//   - Protocol errors: the bytes on the wire do not match what the framing
//     or metadata promised
//   - IO errors: the underlying byte source or sink failed
//   - Closed errors: a reader or writer was used after Close
//   - Unsupported errors: a valid but unimplemented type or feature
//   - Invalid errors: bad arguments such as out-of-range slices
//
// # Basic Usage
//
//	if got < want {
//	    return colerrors.Newf(colerrors.ErrorTypeProtocol,
//	        "expected %d body bytes, got %d", want, got).
//	        WithDetail("message", "record_batch")
//	}
//
//	if _, err := w.Write(buf); err != nil {
//	    return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to write message")
//	}
//
// Nothing in colwire retries. IsRetryable reports whether a caller layered
// above may sensibly retry.
package colerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeConstruction represents builder and schema construction errors
	ErrorTypeConstruction ErrorType = "construction"
	// ErrorTypeProtocol represents malformed or truncated wire data
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeIO represents failures of the underlying byte source or sink
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeClosed represents use of a reader or writer after close
	ErrorTypeClosed ErrorType = "closed"
	// ErrorTypeUnsupported represents types or features that are not implemented
	ErrorTypeUnsupported ErrorType = "unsupported"
	// ErrorTypeInvalid represents invalid arguments
	ErrorTypeInvalid ErrorType = "invalid"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Error represents a structured error with context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, capturing the
// call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a format string.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving the
// original error as the cause. If the error is already a structured Error,
// its stack trace is preserved. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	e := Wrap(err, errType, fmt.Sprintf(format, args...))
	if e.Stack == nil {
		e.Stack = captureStack(2)
	}
	return e
}

// IsRetryable reports whether a caller may retry the failed operation. Only
// IO errors qualify; everything else is a precondition or protocol failure.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeIO:
		return true
	case ErrorTypeConstruction, ErrorTypeProtocol, ErrorTypeClosed,
		ErrorTypeUnsupported, ErrorTypeInvalid, ErrorTypeConfig:
		return false
	default:
		return false
	}
}

// IsType checks if the outermost structured error in the chain is of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// GetType returns the type of the outermost structured error in the chain,
// or the empty string.
func GetType(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Type
}

// captureStack captures the current call stack, skipping the given number of
// frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
