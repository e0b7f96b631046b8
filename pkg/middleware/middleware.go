package middleware

import (
	"net/http"
	"runtime/debug"

	"ytstream/internal/model"
	"ytstream/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID creates a middleware that tags every request with an id,
// reusing the caller's X-Request-ID when it is a valid uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(logger.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Recovery creates a middleware that turns panics into a 500 error response.
// Nothing is written when the handler already committed a response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.Logger.Error("Panic recovered",
				zap.Any("panic", rec),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(logger.RequestIDKey)),
				zap.ByteString("stack", debug.Stack()))

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{
				Success: false,
				Error:   "internal_error",
				Message: "Internal server error",
				Code:    http.StatusInternalServerError,
			})
		}()

		c.Next()
	}
}
