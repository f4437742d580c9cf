package httpapi

import "fmt"

const (
	CodeValidation   = "validation"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInternal     = "internal"
)

type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeUnauthorized:
		return 401
	case CodeForbidden:
		return 403
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	default:
		return 500
	}
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: statusForCode(code)}
}

func NewValidationError(message string) error {
	return newError(CodeValidation, message)
}

func NewValidationJSONError(err error) error {
	return newError(CodeValidation, "invalid json: "+err.Error())
}

func NewUnauthorizedError() error {
	return newError(CodeUnauthorized, "Your session has expired. Please log in again.")
}

func NewForbiddenError() error {
	return newError(CodeForbidden, "You do not have permission to perform this action.")
}

func NewNotFoundError() error {
	return newError(CodeNotFound, "The requested resource was not found.")
}

func NewInternalError() error {
	return newError(CodeInternal, "Something went wrong on our end. Please try again.")
}
