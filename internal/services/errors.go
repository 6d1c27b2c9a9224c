package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid        ErrorCode = "invalid"
	ErrorForbidden      ErrorCode = "forbidden"
	ErrorNotFound       ErrorCode = "not_found"
	ErrorConflict       ErrorCode = "conflict"
	ErrorUnauthorized   ErrorCode = "unauthorized"
	ErrorInvalidState   ErrorCode = "invalid_state"
	ErrorNotInQuiz      ErrorCode = "not_in_quiz"
	ErrorInvalidOutcome ErrorCode = "invalid_outcome"
)

// ServiceError carries a stable code the HTTP layer maps to a status and a
// localized message. Message is for logs and developers.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

// Is matches any ServiceError with the same code, so callers can write
// errors.Is(err, services.ErrConflict).
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	return ok && t.Code == e.Code
}

var (
	ErrInvalid        = &ServiceError{Code: ErrorInvalid, Message: "invalid"}
	ErrForbidden      = &ServiceError{Code: ErrorForbidden, Message: "forbidden"}
	ErrNotFound       = &ServiceError{Code: ErrorNotFound, Message: "not found"}
	ErrConflict       = &ServiceError{Code: ErrorConflict, Message: "conflict"}
	ErrInvalidState   = &ServiceError{Code: ErrorInvalidState, Message: "invalid state"}
	ErrNotInQuiz      = &ServiceError{Code: ErrorNotInQuiz, Message: "question not in quiz"}
	ErrInvalidOutcome = &ServiceError{Code: ErrorInvalidOutcome, Message: "invalid outcome"}
)

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

// NewInvalidStateError reports a mutation on an attempt that already left
// IN_PROGRESS.
func NewInvalidStateError(msg string) error {
	return &ServiceError{Code: ErrorInvalidState, Message: msg}
}

func NewNotInQuizError(msg string) error { return &ServiceError{Code: ErrorNotInQuiz, Message: msg} }

func NewInvalidOutcomeError(msg string) error {
	return &ServiceError{Code: ErrorInvalidOutcome, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCode reports whether err is a ServiceError with the given code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}
