package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wellness/internal/domain"
	"wellness/internal/pkg/jwt"
	"wellness/internal/pkg/response"
)

const actorKey = "actor"

// JWTAuth validates the bearer token and stores the caller as a domain.Actor.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Bearer token required")
			c.Abort()
			return
		}

		actor, err := jwtService.Actor(strings.TrimSpace(token))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Set("user_id", actor.ID)
		c.Set("role", string(actor.Role))
		c.Next()
	}
}

// ActorFrom returns the caller set by JWTAuth.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}
