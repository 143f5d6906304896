package market

import "fmt"

// ErrorKind tags a market error with its place in the pipeline taxonomy.
type ErrorKind int

const (
	// KindConfiguration marks a programmer or config mistake, such as an
	// unknown endpoint key. Not worth retrying.
	KindConfiguration ErrorKind = iota
	// KindValidation marks malformed caller input: a required field missing
	// or an out-of-range value.
	KindValidation
	// KindUpstream marks a network failure, non-success status or an
	// empty/unparseable body. Safe to retry externally.
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is a classified market failure with the original cause preserved.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("market: %s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("market: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func configurationErr(msg string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg, Cause: cause}
}

func validationErr(msg string, cause error) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Cause: cause}
}

func upstreamErr(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Cause: cause}
}
