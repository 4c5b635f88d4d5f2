package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodePageOutOfRange = "PAGE_OUT_OF_RANGE"
	ErrCodeAlreadyExists  = "ALREADY_EXISTS"
	ErrCodeConflict       = "CONFLICT"

	// Business logic errors
	ErrCodeInvalidOperation  = "INVALID_OPERATION"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response and stops the handler chain
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.AbortWithStatusJSON(statusCode, err)
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized,
		NewAPIError(ErrCodeUnauthorized, orDefault(message, "Authentication required")))
}

// TokenExpired sends a 401 response telling the client to log in again
func TokenExpired(c *gin.Context) {
	RespondWithError(c, http.StatusUnauthorized,
		NewAPIError(ErrCodeTokenExpired, "Session expired, please log in again"))
}

// InvalidCredentials sends a 401 response for a failed login
func InvalidCredentials(c *gin.Context) {
	RespondWithError(c, http.StatusUnauthorized,
		NewAPIError(ErrCodeInvalidCredentials, "Invalid email or password"))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden,
		NewAPIError(ErrCodeForbidden, orDefault(message, "Access denied")))
}

// InvalidOperation sends a 403 response for actions nobody may take
func InvalidOperation(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden,
		NewAPIError(ErrCodeInvalidOperation, orDefault(message, "Operation not allowed")))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound,
		NewAPIError(ErrCodeNotFound, orDefault(message, "Resource not found")))
}

// PageOutOfRange sends a 404 response carrying the valid page count
func PageOutOfRange(c *gin.Context, details interface{}) {
	RespondWithError(c, http.StatusNotFound,
		NewAPIErrorWithDetails(ErrCodePageOutOfRange, "Requested page is out of range", details))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest,
		NewAPIError(ErrCodeInvalidInput, orDefault(message, "Invalid request")))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict,
		NewAPIError(ErrCodeConflict, orDefault(message, "Resource conflict")))
}

// AlreadyExists sends a 409 response for a duplicate unique value
func AlreadyExists(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict,
		NewAPIError(ErrCodeAlreadyExists, orDefault(message, "Resource already exists")))
}

// InvalidTransition sends a 409 response for a disallowed status change
func InvalidTransition(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict,
		NewAPIError(ErrCodeInvalidTransition, orDefault(message, "Status transition not allowed")))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError,
		NewAPIError(ErrCodeInternalError, orDefault(message, "Internal server error")))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	RespondWithError(c, http.StatusServiceUnavailable,
		NewAPIError(ErrCodeServiceUnavailable, orDefault(message, "Service temporarily unavailable")))
}
