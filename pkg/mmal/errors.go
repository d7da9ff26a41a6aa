package mmal

import (
	"errors"
	"fmt"

	"github.com/thesyncim/gommal/pkg/native"
)

// Cause classifies an Error.
type Cause int

const (
	// CauseStatus is a native rejection; Error.Status holds the code.
	CauseStatus Cause = iota
	CauseCreatePool
	CauseCreateQueue
	// CauseQueueEmpty is recoverable: the caller may retry later.
	CauseQueueEmpty
	// CauseGetPort means a port lookup returned NULL.
	CauseGetPort
	CauseInvalidEnumValue
)

// String returns a string representation of the cause.
func (c Cause) String() string {
	switch c {
	case CauseStatus:
		return "status"
	case CauseCreatePool:
		return "create pool"
	case CauseCreateQueue:
		return "create queue"
	case CauseQueueEmpty:
		return "queue empty"
	case CauseGetPort:
		return "get port"
	case CauseInvalidEnumValue:
		return "invalid enum value"
	default:
		return "unknown"
	}
}

// Error is returned by every fallible operation of this package.
type Error struct {
	Cause   Cause
	Status  native.Status
	Message string
}

func (e *Error) Error() string {
	var s string
	if e.Cause == CauseStatus {
		s = fmt.Sprintf("[%s/%d]", e.Status.String(), uint32(e.Status))
	} else {
		s = "(" + e.Cause.String() + ")"
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

// Is matches the cause sentinels below, and a status error against its
// native.Status.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case *Error:
		if e.Cause != t.Cause {
			return false
		}
		return e.Cause != CauseStatus || t.Status == native.StatusSuccess || t.Status == e.Status
	case native.Status:
		return e.Cause == CauseStatus && e.Status == t
	}
	return false
}

// Sentinels for errors.Is. They match any Error of the same cause.
var (
	ErrCreatePool       = &Error{Cause: CauseCreatePool}
	ErrCreateQueue      = &Error{Cause: CauseCreateQueue}
	ErrQueueEmpty       = &Error{Cause: CauseQueueEmpty}
	ErrGetPort          = &Error{Cause: CauseGetPort}
	ErrInvalidEnumValue = &Error{Cause: CauseInvalidEnumValue}
	// ErrStatus matches any native rejection.
	ErrStatus = &Error{Cause: CauseStatus}
)

func newError(cause Cause, format string, args ...any) *Error {
	return &Error{Cause: cause, Message: fmt.Sprintf(format, args...)}
}

// statusError converts a native status into an error, nil on success.
func statusError(st native.Status, format string, args ...any) error {
	if st == native.StatusSuccess {
		return nil
	}
	return &Error{Cause: CauseStatus, Status: st, Message: fmt.Sprintf(format, args...)}
}

// wrapShapeError attaches context to a failure coming out of a Shape.
// Native rejections become status errors carrying msg; errors already of
// type *Error keep their cause.
func wrapShapeError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var st native.Status
	if errors.As(err, &st) {
		return &Error{Cause: CauseStatus, Status: st, Message: msg}
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Cause: e.Cause, Status: e.Status, Message: msg + ": " + e.Message}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
