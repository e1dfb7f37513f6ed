package service

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindPermissionDenied
	KindConflict
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// AppError is the single error type crossing the service boundary.
// Message is safe to show to clients; Err is the wrapped cause and is only logged.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
	// CorrelationID ties an internal error to its log line and audit record.
	CorrelationID string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can write errors.Is(err, service.ErrNotFound).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrValidation       = &AppError{Kind: KindValidation}
	ErrNotFound         = &AppError{Kind: KindNotFound}
	ErrPermissionDenied = &AppError{Kind: KindPermissionDenied}
	ErrConflict         = &AppError{Kind: KindConflict}
	ErrInternal         = &AppError{Kind: KindInternal}
)

const (
	MsgActorNotFound    = "User with the provided ID does not exist"
	MsgAlreadyTrashed   = "already trashed"
	MsgNotInTrash       = "not in trash"
	MsgInternal         = "Internal server error"
	ReasonNotFound      = "not found"
	ReasonInternalError = "internal error"
	ReasonCancelled     = "cancelled"
)

func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewPermissionDeniedError(reason string) *AppError {
	return &AppError{Kind: KindPermissionDenied, Message: reason}
}

func NewConflictError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewInternalError wraps a storage or unexpected failure.
func NewInternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// KindOf reports the kind of err, treating anything untyped as internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return MsgInternal
}

func withCorrelation(err error, id string) error {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.CorrelationID == "" {
		appErr.CorrelationID = id
	}
	return err
}

// CorrelationOf returns the correlation id attached to err, if any.
func CorrelationOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.CorrelationID
	}
	return ""
}
