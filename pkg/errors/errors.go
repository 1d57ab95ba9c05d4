// Package errors provides the structured error type shared by every reader.
//
// Read failures carry a category so callers can tell an unsupported suffix
// from a truncated container without string matching:
//
//	sec, err := reader.Read(path, opts)
//	if errors.IsType(err, errors.ErrorTypeUnsupportedFormat) {
//		// skip the file
//	}
//
// Errors capture their creation stack and optional key-value details for
// logging. Wrapping preserves the innermost stack so the origin of a
// failure survives normalization layers.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorType categorizes a read failure.
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeUnsupportedFormat represents an unrecognized format tag or suffix
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"
	// ErrorTypeMalformedContainer represents a container missing an expected
	// structural element with no fallback
	ErrorTypeMalformedContainer ErrorType = "malformed_container"
	// ErrorTypeInvalidWindow represents an empty, inverted or out-of-range
	// channel window
	ErrorTypeInvalidWindow ErrorType = "invalid_window"
	// ErrorTypeIO represents file open/read/close failures
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Error is a categorized error with an optional cause, details and the
// program counters of its creation site.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []uintptr
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key-value pair and returns the error for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, 4)
	}
	e.Details[key] = value
	return e
}

// Frames resolves the captured program counters into "func (file:line)"
// strings, innermost first.
func (e *Error) Frames() []string {
	if len(e.Stack) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.Stack))
	frames := runtime.CallersFrames(e.Stack)
	for {
		fr, more := frames.Next()
		if fr.Function != "" {
			out = append(out, fmt.Sprintf("%s (%s:%d)", fr.Function, fr.File, fr.Line))
		}
		if !more {
			break
		}
	}
	return out
}

// New creates an error of the given type.
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message, Stack: callers()}
}

// Newf creates an error of the given type with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Stack: callers()}
}

// Wrap annotates err with a type and message. The innermost structured
// error's stack is kept; a foreign cause gets the wrap site's stack.
// Wrapping nil returns nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	out := &Error{Type: errType, Message: message, Cause: err}
	var inner *Error
	if errors.As(err, &inner) {
		out.Stack = inner.Stack
	} else {
		out.Stack = callers()
	}
	return out
}

// Wrapf annotates err with a type and formatted message.
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

// IsType reports whether the outermost structured error in err's chain has
// the given type. Foreign and nil errors report false.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// GetType returns the outermost structured type, or ErrorTypeInternal for
// foreign errors.
func GetType(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

func callers() []uintptr {
	pcs := make([]uintptr, 32)
	// skip runtime.Callers, this function and the exported constructor.
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}
