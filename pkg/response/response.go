// Package response writes JSON bodies for the chat API. Successful
// responses carry the resource itself; failures carry an error object.
package response

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error *ErrorInfo `json:"error"`
}

// ErrorInfo contains error details. Code is the upper snake case form of
// the HTTP status text, e.g. NOT_FOUND.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success sends a 200 response with data as the body.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response with data as the body.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error aborts the handler chain with status and an error body.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: &ErrorInfo{Code: codeFor(status), Message: message},
	})
}

func codeFor(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(text))
}

// Unauthorized sends a 401; used when the caller does not own the resource.
func Unauthorized(c *gin.Context, message string) { Error(c, http.StatusUnauthorized, message) }

// NotFound sends a 404.
func NotFound(c *gin.Context, message string) { Error(c, http.StatusNotFound, message) }

// Conflict sends a 409.
func Conflict(c *gin.Context, message string) { Error(c, http.StatusConflict, message) }

// UnprocessableEntity sends a 422 for malformed or invalid input.
func UnprocessableEntity(c *gin.Context, message string) {
	Error(c, http.StatusUnprocessableEntity, message)
}

// TooManyRequests sends a 429.
func TooManyRequests(c *gin.Context, message string) { Error(c, http.StatusTooManyRequests, message) }

// InternalError sends a 500. message must not carry internal detail.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
