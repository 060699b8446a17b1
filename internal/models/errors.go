package models

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeDuplicate    = "DUPLICATE"
	CodeInvalidID    = "INVALID_ID"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

// LocalErrorCode is the fiber local holding the code of the AppError a request failed with.
const LocalErrorCode = "errorCode"

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Details []string
	Err     error

	pcs []uintptr
}

// newAppError records the stack of whoever called the exported constructor.
func newAppError(code, message string) *AppError {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	return &AppError{Code: code, Message: message, pcs: pcs[:n]}
}

// StackTrace renders the call stack captured when the error was created. Errors built
// as struct literals have none.
func (e *AppError) StackTrace() string {
	if len(e.pcs) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(e.pcs)
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
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

// Status maps the error code to an HTTP status.
func (e *AppError) Status() int {
	switch e.Code {
	case CodeValidation, CodeDuplicate, CodeInvalidID:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func NewNotFoundError(resource string) *AppError {
	return newAppError(CodeNotFound, resource+" not found")
}

func NewValidationError(message string, details ...string) *AppError {
	e := newAppError(CodeValidation, message)
	e.Details = details
	return e
}

func NewDuplicateError(message string) *AppError {
	return newAppError(CodeDuplicate, message)
}

func NewInvalidIDError() *AppError {
	return newAppError(CodeInvalidID, "Invalid ID format")
}

func NewUnauthorizedError(message string) *AppError {
	return newAppError(CodeUnauthorized, message)
}

func NewForbiddenError(message string) *AppError {
	return newAppError(CodeForbidden, message)
}

func NewInternalError(err error) *AppError {
	e := newAppError(CodeInternal, "Internal server error")
	e.Err = err
	return e
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError writes the standard failure envelope.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := Envelope{Success: false}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Message = appErr.Message
		response.Errors = appErr.Details
		c.Locals(LocalErrorCode, appErr.Code)
	} else {
		response.Message = err.Error()
	}

	return c.Status(status).JSON(response)
}
