// Package chrterr defines the channel runtime's error taxonomy.
//
// Every operation that can fail returns an error wrapping one of the
// sentinel Codes below, so callers can branch with errors.Is while the
// original cause (a syscall error, a parse failure) is still reachable
// with errors.Unwrap/errors.As. This is the Go-idiomatic replacement for
// the "return -1 and set a thread-local error code" convention: the
// sentinel is the code, and the wrapped cause is the errno-equivalent.
package chrterr

import "errors"

// Code is one of the closed taxonomy of channel runtime failure kinds.
type Code int

const (
	// InvalidArgument covers bad config strings, wrong direction flags,
	// unknown keys, mismatched listener payload sizes, bad port numbers.
	InvalidArgument Code = iota
	// TooManyOpen covers descriptor table or enclave table exhaustion.
	TooManyOpen
	// NoDevice covers a transport with no underlying fd, a double close,
	// or an unknown/invalid transport kind.
	NoDevice
	// NotImplemented covers an operation unsupported on a given
	// transport, or a feature-flag-disabled backend.
	NotImplemented
	// NoMessage covers a short read where a fixed-size payload was
	// expected.
	NoMessage
	// TransportLevel covers an underlying syscall error, propagated
	// verbatim (wrapped, not swallowed).
	TransportLevel
)

func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "invalid-argument"
	case TooManyOpen:
		return "too-many-open"
	case NoDevice:
		return "no-device"
	case NotImplemented:
		return "not-implemented"
	case NoMessage:
		return "no-message"
	case TransportLevel:
		return "transport-level"
	default:
		return "unknown"
	}
}

// Sentinel errors usable directly with errors.Is, and as the target for
// Wrap below.
var (
	ErrInvalidArgument = errors.New("invalid-argument")
	ErrTooManyOpen     = errors.New("too-many-open")
	ErrNoDevice        = errors.New("no-device")
	ErrNotImplemented  = errors.New("not-implemented")
	ErrNoMessage       = errors.New("no-message")
	ErrTransportLevel  = errors.New("transport-level")
)

var sentinels = map[Code]error{
	InvalidArgument: ErrInvalidArgument,
	TooManyOpen:     ErrTooManyOpen,
	NoDevice:        ErrNoDevice,
	NotImplemented:  ErrNotImplemented,
	NoMessage:       ErrNoMessage,
	TransportLevel:  ErrTransportLevel,
}

// Error pairs a taxonomy Code with the operation that raised it and,
// optionally, an underlying cause.
type Error struct {
	Code  Code
	Op    string // e.g. "transport/unix_socket.open"
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Op + ": " + e.Code.String()
	}
	return e.Op + ": " + e.Code.String() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	if e.Cause == nil {
		return sentinels[e.Code]
	}
	return e.Cause
}

// Is makes errors.Is(err, chrterr.ErrNoDevice) succeed for a wrapped
// Error of that Code even when Cause is non-nil (Unwrap only exposes
// Cause in that case).
func (e *Error) Is(target error) bool {
	return target == sentinels[e.Code]
}

// New creates an *Error with no underlying cause.
func New(code Code, op string) error {
	return &Error{Code: code, Op: op}
}

// Wrap creates an *Error carrying cause as its underlying error. If
// cause is already exactly the sentinel for code (the common case when
// an internal helper returns the bare sentinel to its caller), Wrap
// drops it rather than printing the same message twice.
func Wrap(code Code, op string, cause error) error {
	if cause == nil || cause == sentinels[code] {
		return New(code, op)
	}
	return &Error{Code: code, Op: op, Cause: cause}
}
