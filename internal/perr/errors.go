// Package perr defines the error taxonomy shared by every polyls component,
// per the error handling design: errors surface upward unchanged across the
// manager boundary, tagged with a Kind the HTTP layer maps to a status code.
package perr

import "fmt"

// Kind is a closed vocabulary of error categories. It is not meant to be
// exhaustively switched on by every caller — most callers only care whether
// an error occurred — but the HTTP layer and tests do switch on it.
type Kind string

const (
	NotFound           Kind = "not_found"
	IoError            Kind = "io_error"
	ProtocolError      Kind = "protocol_error"
	TransportFailed    Kind = "transport_failed"
	BackendError       Kind = "backend_error"
	Timeout            Kind = "timeout"
	MatcherFailed      Kind = "matcher_failed"
	MatcherBadOutput   Kind = "matcher_output_invalid"
	NotSupported       Kind = "not_supported"
)

// Error wraps an underlying cause with a Kind so callers can classify it
// without string-matching messages.
type Error struct {
	Kind    Kind
	Message string
	Code    int // populated for Kind == BackendError, the LSP error code
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Backend builds a BackendError carrying the server-reported code.
func Backend(code int, message string) *Error {
	return &Error{Kind: BackendError, Message: message, Code: code}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise it returns IoError as the conservative default so the
// HTTP layer still returns 500 rather than 200.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	if e == nil {
		return IoError
	}
	return e.Kind
}
