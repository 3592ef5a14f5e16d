package middleware

import (
	"net/http"

	"legal-rag-chatbot/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimit middleware limits the size of request bodies
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check Content-Length header
		if c.Request.ContentLength > maxSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"request_too_large",
				"Request body exceeds maximum size",
				gin.H{
					"max_size": maxSize,
					"received": c.Request.ContentLength,
				})
			c.Abort()
			return
		}
		// Chunked bodies carry no Content-Length
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
