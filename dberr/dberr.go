// Package dberr defines the structured error taxonomy shared by every
// engine back-end and the connection pool.
package dberr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error the way callers are expected to switch on.
type Kind int

const (
	// KindOther is a catch-all, used sparingly.
	KindOther Kind = iota
	// KindIO is a transport-level failure (connection reset, EOF, TLS).
	KindIO
	// KindProtocol is a malformed frame, unexpected opcode, or out-of-bounds length.
	KindProtocol
	// KindConnect is a handshake/auth failure, including URL parse errors.
	KindConnect
	// KindTypeMismatch means a Value cannot be converted to the requested host type.
	KindTypeMismatch
	// KindDatabase is a structured error reported by the server.
	KindDatabase
	// KindPoolClosed means the pool is closed and will not hand out resources.
	KindPoolClosed
	// KindAcquireTimeout means a pool Acquire did not complete before its timeout.
	KindAcquireTimeout
	// KindWorkerCrashed means a SQLite worker thread terminated abnormally.
	KindWorkerCrashed
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "Io"
	case KindProtocol:
		return "Protocol"
	case KindConnect:
		return "Connect"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindDatabase:
		return "Database"
	case KindPoolClosed:
		return "PoolClosed"
	case KindAcquireTimeout:
		return "AcquireTimeout"
	case KindWorkerCrashed:
		return "WorkerCrashed"
	default:
		return "Other"
	}
}

// Error is the structured error type returned by every package in this
// module. It carries the Kind plus, for KindDatabase, the server's code
// and SQLSTATE.
type Error struct {
	Kind     Kind
	Message  string
	Code     int
	SQLState string
	Cause    error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindDatabase && e.SQLState != "":
		return fmt.Sprintf("%s: [%s] %s (code %d)", e.Kind, e.SQLState, e.Message, e.Code)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, dberr.AcquireTimeout) style sentinel comparisons
// by Kind rather than identity.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func new(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// IO builds a KindIO error, optionally wrapping a cause.
func IO(message string, cause error) *Error {
	return &Error{Kind: KindIO, Message: message, Cause: cause}
}

// Protocol builds a KindProtocol error.
func Protocol(format string, args ...any) *Error {
	return new(KindProtocol, fmt.Sprintf(format, args...))
}

// Connect builds a KindConnect error, optionally wrapping a cause.
func Connect(message string, cause error) *Error {
	return &Error{Kind: KindConnect, Message: message, Cause: cause}
}

// TypeMismatch builds a KindTypeMismatch error.
func TypeMismatch(format string, args ...any) *Error {
	return new(KindTypeMismatch, fmt.Sprintf(format, args...))
}

// Database builds a KindDatabase error carrying the server's code/sqlstate.
func Database(code int, sqlstate, message string) *Error {
	return &Error{Kind: KindDatabase, Code: code, SQLState: sqlstate, Message: message}
}

// PoolClosed is the sentinel returned when acquiring from a closed pool.
func PoolClosed() *Error {
	return new(KindPoolClosed, "resource pool is closed")
}

// AcquireTimeout is the sentinel returned when acquire_timeout elapses.
func AcquireTimeout() *Error {
	return new(KindAcquireTimeout, "timed out waiting for a pooled connection")
}

// WorkerCrashed is returned for any command sent to a terminated SQLite worker.
func WorkerCrashed(cause error) *Error {
	return &Error{Kind: KindWorkerCrashed, Message: "sqlite worker thread crashed", Cause: cause}
}

// Other builds a KindOther catch-all error.
func Other(format string, args ...any) *Error {
	return new(KindOther, fmt.Sprintf(format, args...))
}

// IsKind reports whether err is a *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
