package middleware

import (
	"github.com/gin-gonic/gin"

	"market_chat/pkg/errors"
	"market_chat/pkg/logger"
)

// ErrorHandler renders the last error attached with c.Error.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last()
		statusCode := errors.HTTPStatusFromError(err.Err)
		message := err.Error()
		if statusCode >= 500 {
			log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err.Err)
			message = "Internal server error"
		}

		c.JSON(statusCode, gin.H{
			"error": message,
		})
	}
}
