package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                   // 1: Operation failed due to an internal error.
	RetCInvalidOperation                // 2: Operation is not valid in the current state (unknown type, not connected).
	RetCConfigError                     // 3: Invalid construction-time options.
	RetCIOError                         // 4: Filesystem failure other than not-found.
	RetCLockError                       // 5: A record lock could not be acquired within policy.
	RetCDecodeEmpty                     // 6: A stored file has zero length.
	RetCDecodeCorrupt                   // 7: A stored file could not be parsed as a record.
	RetCConflict                        // 8: A record with the same primary key already exists.
	RetCNotFound                        // 9: A record does not exist.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCConfigError:
		return "ConfigError"
	case RetCIOError:
		return "IOError"
	case RetCLockError:
		return "LockError"
	case RetCDecodeEmpty:
		return "DecodeEmpty"
	case RetCDecodeCorrupt:
		return "DecodeCorrupt"
	case RetCConflict:
		return "Conflict"
	case RetCNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the error type returned by all recfs packages. It wraps a return
// code, a message, the file the error relates to (if any) and the underlying
// cause (if any).
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
	Path string  // The file the error relates to, may be empty
	Err  error   // The underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new Error with the given code and message that relates to
// path and wraps err.
func WrapError(code RetCode, msg, path string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Path: path,
		Err:  err,
	}
}

// HasCode reports whether err or any error it wraps is an *Error with the given code.
func HasCode(err error, code RetCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// Sentinels for use with errors.Is. They only carry a code.
var (
	ErrConfig        = NewError(RetCConfigError, "invalid configuration")
	ErrIO            = NewError(RetCIOError, "filesystem operation failed")
	ErrLock          = NewError(RetCLockError, "lock could not be acquired")
	ErrDecodeEmpty   = NewError(RetCDecodeEmpty, "Decode record failed. File is empty")
	ErrDecodeCorrupt = NewError(RetCDecodeCorrupt, "Decode record failed. File is corrupt")
	ErrConflict      = NewError(RetCConflict, "record already exists")
	ErrInvalidOp     = NewError(RetCInvalidOperation, "invalid operation")
)
