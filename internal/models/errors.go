package models

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the "code" field of every error response.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeNoToken        = "NO_TOKEN"
	CodeMalformedToken = "MALFORMED_TOKEN"
	CodeInvalidToken   = "INVALID_TOKEN"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodePostNotFound   = "POST_NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeAlreadyLiked   = "ALREADY_LIKED"
	CodeNotLiked       = "NOT_LIKED"
	CodeUpstream       = "UPSTREAM_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
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

// Is matches on Code so callers can compare against the sentinel errors below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is checks in callers and tests.
var (
	ErrAlreadyLiked = &AppError{Code: CodeAlreadyLiked}
	ErrNotLiked     = &AppError{Code: CodeNotLiked}
	ErrPostNotFound = &AppError{Code: CodePostNotFound}
	ErrNotFound     = &AppError{Code: CodeNotFound}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewAlreadyLikedError() *AppError {
	return &AppError{
		Code:    CodeAlreadyLiked,
		Message: "You have already liked this post",
	}
}

func NewNotLikedError() *AppError {
	return &AppError{
		Code:    CodeNotLiked,
		Message: "You have not liked this post",
	}
}

func NewPostNotFoundError(id interface{}) *AppError {
	return &AppError{
		Code:    CodePostNotFound,
		Message: fmt.Sprintf("Post with ID %v not found", id),
	}
}

func NewUpstreamError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUpstream,
		Message: message,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HTTPStatus maps an error to the status code the API answers with.
// Conflicts are reported as 400 to stay compatible with existing clients.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	switch appErr.Code {
	case CodeValidation, CodeConflict, CodeAlreadyLiked, CodeNotLiked:
		return fiber.StatusBadRequest
	case CodeUnauthorized, CodeNoToken, CodeMalformedToken, CodeInvalidToken:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound, CodePostNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// exposeDetails starts false so an entry point that never configures it
// leaks nothing.
var exposeDetails atomic.Bool

// SetExposeDetails controls whether wrapped causes are echoed back to clients.
// The server turns it on outside production.
func SetExposeDetails(expose bool) {
	exposeDetails.Store(expose)
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	var fiberErr *fiber.Error
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil && exposeDetails.Load() {
			response.Details = appErr.Err.Error()
		}
	} else if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		response = ErrorResponse{
			Error: fiberErr.Message,
		}
	} else {
		response = ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternal,
		}
		if exposeDetails.Load() {
			response.Details = err.Error()
		}
	}

	return c.Status(status).JSON(response)
}

// WriteError responds with the status HTTPStatus picks for err.
func WriteError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, HTTPStatus(err), err)
}
