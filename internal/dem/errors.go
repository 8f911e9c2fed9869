package dem

import (
	"errors"
	"fmt"
)

// Code classifies a conversion failure
type Code string

const (
	CodeIO        Code = "io_error"
	CodeFormat    Code = "format_error"
	CodeInvariant Code = "invariant_violation"
	CodeConfig    Code = "config_error"
)

// Error is returned by every decoding step. All errors are fatal to the
// conversion in progress.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Specific failures, reachable through errors.Is
var (
	ErrUnexpectedEOF    = errors.New("unexpected end of input")
	ErrFieldParse       = errors.New("field parse error")
	ErrSequenceMismatch = errors.New("profile sequence mismatch")
	ErrLocalDatum       = errors.New("non-zero local datum elevation")
	ErrPolygon          = errors.New("non-rectangular DEMs are unsupported")
	ErrNegativeRange    = errors.New("negative elevation range")
	ErrDimension        = errors.New("unsupported profile dimension")
	ErrResolution       = errors.New("x resolution must be positive")
	ErrProfileCount     = errors.New("unexpected number of profiles")
	ErrImageSize        = errors.New("image dimensions out of range")
	ErrOverride         = errors.New("min elevation and scale must be given together")
	ErrScale            = errors.New("scale must be greater than zero")
)

// kindError joins a sentinel with a detailed cause so both match errors.Is.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func newError(code Code, kind error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   kind,
	}
}

func wrapError(code Code, kind error, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   &kindError{kind: kind, cause: cause},
	}
}

// ConfigError reports an invalid conversion setting.
func ConfigError(kind error, format string, args ...interface{}) *Error {
	return newError(CodeConfig, kind, format, args...)
}

// IOError wraps a failure of the underlying source or sink.
func IOError(err error, format string, args ...interface{}) *Error {
	return &Error{Code: CodeIO, Message: fmt.Sprintf(format, args...), Cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
