package npe

import (
	"errors"
	"fmt"
)

// Code classifies a failure of a downloader operation.
type Code int

const (
	// CodeFail is a generic failure
	CodeFail Code = 1

	// CodeParam is an invalid argument, such as an unknown engine id
	CodeParam Code = 2

	// CodeResource is a full queue or exhausted resource
	CodeResource Code = 3

	// CodeCriticalEngine is a hardware timeout or failed read-back; the
	// engine state is suspect
	CodeCriticalEngine Code = 4

	// CodeCriticalMicrocode is a malformed image; the engine state is still
	// under control
	CodeCriticalMicrocode Code = 5

	// CodeDevice is an image built for a newer device than the running one
	CodeDevice Code = 6
)

func (c Code) String() string {
	switch c {
	case CodeFail:
		return "failure"
	case CodeParam:
		return "parameter error"
	case CodeResource:
		return "resource error"
	case CodeCriticalEngine:
		return "critical engine error"
	case CodeCriticalMicrocode:
		return "critical microcode error"
	case CodeDevice:
		return "device mismatch"
	default:
		return fmt.Sprintf("unknown code %d", int(c))
	}
}

// Sentinels for errors.Is. Any *Error carrying the same code matches.
var (
	ErrFail              = &Error{Code: CodeFail}
	ErrParam             = &Error{Code: CodeParam}
	ErrResource          = &Error{Code: CodeResource}
	ErrCriticalEngine    = &Error{Code: CodeCriticalEngine}
	ErrCriticalMicrocode = &Error{Code: CodeCriticalMicrocode}
	ErrDevice            = &Error{Code: CodeDevice}
)

// Error is a classified failure.
type Error struct {
	// Op is the operation that failed
	Op string

	// Code is the failure class
	Code Code

	// Err is the underlying cause, if any
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Code.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf returns an *Error of the given code wrapping a formatted cause.
func Errorf(code Code, op, format string, args ...interface{}) error {
	return &Error{Op: op, Code: code, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err under code. A nil err stays nil.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Code: code, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or CodeFail
// for an unclassified error. A nil error has code 0.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeFail
}
