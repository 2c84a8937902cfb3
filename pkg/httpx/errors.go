package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is an error carrying the HTTP status it should be reported with.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, message)
}

func Unauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, message)
}

func NotFound(message string) *APIError {
	return NewAPIError(http.StatusNotFound, message)
}

func Conflict(message string) *APIError {
	return NewAPIError(http.StatusConflict, message)
}

func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, message)
}

// ErrorHandler converts errors attached to the gin context into the
// response envelope. Handlers report failures with c.Error and abort;
// this middleware is the single place a failure becomes a response.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			apiErr = Internal("Internal Server Error")
		}

		if apiErr.StatusCode >= http.StatusInternalServerError {
			log.Error("request failed",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.Any("error", err),
			)
		}

		c.JSON(apiErr.StatusCode, NewResponse(apiErr.StatusCode, nil, apiErr.Message))
	}
}
