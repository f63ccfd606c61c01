// Package apperr defines the error kinds the API maps to HTTP status codes.
// Messages are i18n message ids, localized when the response is written.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindRateLimited
)

// Message ids shared by the service and transport layers.
const (
	MsgInvalidInput        = "invalid_input"
	MsgUserExists          = "user_exists"
	MsgInvalidCredentials  = "invalid_credentials"
	MsgAuthRequired        = "auth_required"
	MsgInvalidToken        = "invalid_token"
	MsgAccessDenied        = "access_denied"
	MsgUserNotFound        = "user_not_found"
	MsgOwnerMissing        = "owner_missing"
	MsgRequestNotFound     = "request_not_found"
	MsgInvalidID           = "invalid_id"
	MsgInvalidStatus       = "invalid_status"
	MsgInvalidLimit        = "invalid_limit"
	MsgInvalidVolunteer    = "invalid_volunteer"
	MsgTransitionForbidden = "transition_not_allowed"
	MsgInvalidFileType     = "invalid_file_type"
	MsgFileTooLarge        = "file_too_large"
	MsgRateLimited         = "rate_limited"
	MsgRouteNotFound       = "route_not_found"
	MsgInternal            = "internal_error"
)

type Error struct {
	Kind      Kind
	MessageID string
	Details   map[string]string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.MessageID + ": " + e.Err.Error()
	}
	return e.MessageID
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WithDetails attaches per-field reasons.
func (e *Error) WithDetails(details map[string]string) *Error {
	e.Details = details
	return e
}

func Validation(messageID string) *Error {
	return &Error{Kind: KindValidation, MessageID: messageID}
}

func Auth(messageID string) *Error {
	return &Error{Kind: KindAuth, MessageID: messageID}
}

func Forbidden(messageID string) *Error {
	return &Error{Kind: KindForbidden, MessageID: messageID}
}

func NotFound(messageID string) *Error {
	return &Error{Kind: KindNotFound, MessageID: messageID}
}

func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, MessageID: MsgRateLimited}
}

// Internal wraps an unexpected failure. The cause is logged, never shown to clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, MessageID: MsgInternal, Err: err}
}

// From returns err as an *Error, treating anything unclassified as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
