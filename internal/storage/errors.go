package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the store implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails, such as an
	// empty batch or a blank table name.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownTable is returned when a table name is not in the closed
	// allow-list. Caller-supplied identifiers are never interpolated into
	// query text; they must resolve through the registered sets.
	ErrUnknownTable = errors.New("table not in allow-list")
)

// ErrorKind distinguishes the failure stages of a storage operation.
type ErrorKind int

const (
	// KindConnection marks a failure to reach the store, raised before any
	// table or insert work is attempted.
	KindConnection ErrorKind = iota
	// KindWrite marks a failed batch write. The batch has been rolled back
	// in full before this surfaces; partial batches are never committed.
	KindWrite
	// KindQuery marks a failed read.
	KindQuery
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindWrite:
		return "write"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Error is a classified storage failure with the original cause preserved.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage: %s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("storage: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a classified storage error.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}
