package dispatch

import (
	"errors"
	"net/http"

	"github.com/okian/restkit/internal/domain/request"
)

// Sentinel kinds for dispatch errors. Every *Error unwraps to one of these.
var (
	ErrEndpointNotFound = errors.New("endpoint not found")
	ErrUnsupportedVerb  = errors.New("unsupported verb")
	ErrMethodOverride   = errors.New("unexpected method override")
	ErrValidation       = errors.New("handler validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInternal         = errors.New("internal error")

	ErrInvalidEndpoint   = errors.New("invalid endpoint registration")
	ErrDuplicateEndpoint = errors.New("endpoint already registered")
)

// Error is a failure that renders as a failure envelope. Message is the only
// text that reaches the client; Err is kept for logs.
type Error struct {
	Kind    error
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

// NewError returns a handler validation error with the given status.
func NewError(status int, message string) *Error {
	return &Error{Kind: ErrValidation, Message: message, Status: status}
}

// Unauthorized returns a 401 error.
func Unauthorized(cause error) *Error {
	return &Error{Kind: ErrUnauthorized, Message: "401 Unauthorized", Status: http.StatusUnauthorized, Err: cause}
}

func internal(cause error) *Error {
	return &Error{
		Kind:    ErrInternal,
		Message: ReasonPhrase(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
		Err:     cause,
	}
}

// AsError converts any error into an *Error. Untyped errors become a 500 whose
// message is the generic reason phrase.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, request.ErrUnexpectedMethodOverride) {
		return &Error{Kind: ErrMethodOverride, Message: "Unexpected Header", Status: http.StatusBadRequest, Err: err}
	}
	return internal(err)
}

// kindLabel names the error kind for logs and metrics.
func kindLabel(e *Error) string {
	switch e.Kind {
	case ErrEndpointNotFound:
		return "not_found"
	case ErrUnsupportedVerb:
		return "unsupported_verb"
	case ErrMethodOverride:
		return "method_override"
	case ErrValidation:
		return "validation"
	case ErrUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}
