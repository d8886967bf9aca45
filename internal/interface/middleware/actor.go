package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/identity-service/internal/application"
)

const ActorHeader = "X-Actor-ID"

// Actor copies the caller identity from X-Actor-ID into the request context
// so writes record it in CreatedBy/UpdatedBy.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if len(actor) > 128 {
			actor = actor[:128]
		}
		if actor != "" {
			c.Set("actor", actor)
			c.Request = c.Request.WithContext(application.WithActor(c.Request.Context(), actor))
		}
		c.Next()
	}
}
