// Package forgerr defines the tagged error taxonomy shared across the
// runtime's dispatch, handler, and reliability layers. Every failure surface
// a caller can observe — registry lookups, handler execution, serialization,
// I/O, upstream HTTP calls, and deadline expiry — is expressed as an *Error
// carrying a Kind and an optional causal chain.
package forgerr

import "fmt"

// Kind tags the category of failure an Error represents. Kinds are the
// surface the outer RPC boundary maps onto wire error codes.
type Kind int

const (
	// KindHandlerFailure covers any handler-reported failure, validation
	// error, or circuit-open rejection.
	KindHandlerFailure Kind = iota
	// KindToolNotFound is returned when the registry has no entry for a
	// requested tool name.
	KindToolNotFound
	// KindSerializationFailure covers decode-of-input and encode-of-output
	// failures.
	KindSerializationFailure
	// KindIoFailure covers filesystem/socket/syscall failures.
	KindIoFailure
	// KindUpstreamHTTPFailure covers HTTP transport errors (not non-2xx
	// status codes, which are data).
	KindUpstreamHTTPFailure
	// KindDeadline marks a deadline-gate expiry.
	KindDeadline
)

// String renders the kind the way it appears in error messages and logs.
func (k Kind) String() string {
	switch k {
	case KindHandlerFailure:
		return "HandlerFailure"
	case KindToolNotFound:
		return "ToolNotFound"
	case KindSerializationFailure:
		return "SerializationFailure"
	case KindIoFailure:
		return "IoFailure"
	case KindUpstreamHTTPFailure:
		return "UpstreamHttpFailure"
	case KindDeadline:
		return "Deadline"
	default:
		return "Unknown"
	}
}

// Error is the runtime's structured failure type. It preserves a causal
// chain so callers can use errors.Is/As while keeping a stable, serializable
// message for the RPC boundary.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New constructs an Error of the given kind with no cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ToolNotFound builds the canonical "tool not found" error for a name.
func ToolNotFound(name string) *Error {
	return Newf(KindToolNotFound, "tool not found: %s", name)
}

// HandlerFailure builds a handler-reported failure with the given message.
func HandlerFailure(message string) *Error {
	return New(KindHandlerFailure, message)
}

// Deadline builds a deadline-gate expiry error with the given message.
func Deadline(message string) *Error {
	return New(KindDeadline, message)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the causal chain for errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, forgerr.New(forgerr.KindDeadline, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
