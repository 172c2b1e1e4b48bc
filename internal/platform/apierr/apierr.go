package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"EPESPO-inventario/internal/validation"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func New(code Code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

func Invalid(msg string) *APIError      { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) *APIError     { return New(CodeNotFound, msg) }
func Conflict(msg string) *APIError     { return New(CodeConflict, msg) }
func Unauthorized(msg string) *APIError { return New(CodeUnauthenticated, msg) }
func Forbidden(msg string) *APIError    { return New(CodeForbidden, msg) }
func Unavailable(msg string) *APIError  { return New(CodeUnavailable, msg) }
func Internal(msg string) *APIError     { return New(CodeInternal, msg) }

// ValidationError carries field errors; it is answered with 422.
type ValidationError struct {
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Errors.Keys())
}

func Validation(errs validation.Errors) *ValidationError { return &ValidationError{Errors: errs} }

func ToHTTPStatus(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Body(code Code, msg string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": msg}}
}

// FromErr renders any error as a response body. Unknown errors are masked.
func FromErr(err error) gin.H {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return gin.H{"errores": verr.Errors}
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return Body(ae.Code, ae.Message)
	}
	return Body(CodeInternal, "internal error")
}

// Abort writes err as the response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(ToHTTPStatus(err), FromErr(err))
}
