package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeNotFound = "NOT_FOUND"
	CodeInternal = "INTERNAL_ERROR"
)

// Fixed messages returned to clients.
const (
	MsgIDNotFound       = "id does not exist in database"
	MsgNoPosts          = "no posts in database"
	MsgCampaignNotFound = "Campaign not found"
	MsgIDNotFoundShort  = "id not found"
	MsgInternal         = "Internal Server Error"
)

// ErrorResponse is the body of every non-validation error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
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

// NewNotFoundError builds a NOT_FOUND error whose message is shown to clients verbatim.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: MsgInternal,
		Err:     err,
	}
}

// IsNotFound reports whether err is (or wraps) a NOT_FOUND AppError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeNotFound
}

// StatusFor maps an error to the HTTP status it should be rendered with.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes {"detail": ...}. Internal errors never leak their cause.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	detail := MsgInternal
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != CodeInternal {
		detail = appErr.Message
	}
	if status == 0 {
		status = StatusFor(err)
	}
	return c.Status(status).JSON(ErrorResponse{Detail: detail})
}
