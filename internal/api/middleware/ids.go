package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ValidateIDParams rejects a request whose :id route parameter is not a uuid,
// so malformed ids never reach the store.
func ValidateIDParams() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := c.Params.Get("id"); ok {
			if _, err := uuid.Parse(id); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id must be a uuid"})
				return
			}
		}
		c.Next()
	}
}
