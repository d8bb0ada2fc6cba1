package middleware

import (
	"github.com/gin-gonic/gin"

	"recon-ledger/pkg/logger"
	"recon-ledger/pkg/response"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger().WithField("error", err).WithField("request_id", c.GetString("request_id")).Error("Panic recovered")
				response.InternalError(c, "Internal server error", "An unexpected error occurred")
				c.Abort()
			}
		}()
		c.Next()
	}
}

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Handle any errors that were set during request processing
		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			logger.GetLogger().WithError(err.Err).WithField("request_id", c.GetString("request_id")).Error("Request error")

			// Only send error response if not already sent
			if !c.Writer.Written() {
				response.InternalError(c, "Request failed", err.Error())
			}
		}
	}
}
