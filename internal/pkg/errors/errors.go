// Package errors provides the domain error taxonomy for the Replane
// control plane: a small set of error Kinds that the transport layer maps
// to wire codes, independent of any particular store or use case.
package errors

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
)

// Kind is a closed taxonomy of error categories. It is distinct from Code:
// Kind drives HTTP-status mapping, Code is an optional machine-readable
// discriminator a client can branch on (e.g. "APPROVAL_REQUIRED").
type Kind string

const (
	KindBadRequest     Kind = "BAD_REQUEST"
	KindNotFound       Kind = "NOT_FOUND"
	KindForbidden      Kind = "FORBIDDEN"
	KindConflict       Kind = "CONFLICT"
	KindTooManyRequest Kind = "TOO_MANY_REQUESTS"
	KindInternal       Kind = "INTERNAL"
)

func (k Kind) httpStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequest:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Sentinel errors, useful with errors.Is against lower layers.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

// AppError is a structured application error carrying an HTTP-mappable
// Kind, an optional machine-readable Code, and a human-readable message.
type AppError struct {
	Kind Kind `json:"-"`

	// Code is an optional machine-readable discriminator, e.g.
	// "APPROVAL_REQUIRED" or "CONFIG_VERSION_MISMATCH". Empty when the
	// Kind alone is sufficient for the client to react.
	Code string `json:"code,omitempty"`

	// Message is a human-readable message safe to show a caller.
	Message string `json:"message"`

	// Err is the wrapped underlying error, never serialized.
	Err error `json:"-"`
}

// HTTPStatus returns the HTTP status this error maps to.
func (e *AppError) HTTPStatus() int {
	return e.Kind.httpStatus()
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError of the given kind with no machine-readable code.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// WithCode attaches a machine-readable code and returns the same error.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// Wrap wraps an existing error into an AppError of the given kind.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// Common constructors, one per Kind.

func NotFound(message string) *AppError {
	return New(KindNotFound, message)
}

func BadRequest(message string) *AppError {
	return New(KindBadRequest, message)
}

func Forbidden(message string) *AppError {
	return New(KindForbidden, message)
}

func Conflict(message string) *AppError {
	return New(KindConflict, message)
}

func TooManyRequests(message string) *AppError {
	return New(KindTooManyRequest, message)
}

// Internal wraps err as an Internal error. The message shown to callers is
// a stable fingerprint rather than err's own text, so internals never leak
// over the wire; the full error is still logged by the caller.
func Internal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: fmt.Sprintf("internal error [%s]", Fingerprint(err)),
		Err:     err,
	}
}

// Fingerprint produces a short, stable, support-friendly hash of an error's
// name and message, without leaking internals to API callers.
func Fingerprint(err error) string {
	if err == nil {
		return ""
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%T:%s", err, err.Error())))
	return hex.EncodeToString(sum[:])[:12]
}

// As checks if an error is an AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Well-known machine-readable codes referenced directly by spec.md §7/§8.
const (
	CodeApprovalRequired      = "APPROVAL_REQUIRED"
	CodeConfigVersionMismatch = "CONFIG_VERSION_MISMATCH"
)
