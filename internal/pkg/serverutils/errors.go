package serverutils

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// AppError carries the HTTP status a service error should surface with.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NotFound(message string) *AppError {
	return NewAppError(fiber.StatusNotFound, message, nil)
}

func BadRequest(message string, err error) *AppError {
	return NewAppError(fiber.StatusBadRequest, message, err)
}

func Conflict(message string, err error) *AppError {
	return NewAppError(fiber.StatusConflict, message, err)
}

func Forbidden(message string) *AppError {
	return NewAppError(fiber.StatusForbidden, message, nil)
}
