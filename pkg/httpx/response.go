package httpx

import "github.com/gin-gonic/gin"

// Response is the envelope returned by every endpoint.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func NewResponse(statusCode int, data any, message string) Response {
	return Response{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < 400,
	}
}

// JSON writes the response envelope with the given status.
func JSON(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, NewResponse(statusCode, data, message))
}
