package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cobranca/backend/internal/interfaces/http/dto"
)

// BodyLimit caps the request body size. Dashboard payloads are small
// (branch selections, annotation patches, write-off batches); anything
// past the limit is rejected up front, and streaming bodies that lie
// about their Content-Length are cut off by the reader.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodePayloadTooLarge, "Request body exceeds the maximum allowed size"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
