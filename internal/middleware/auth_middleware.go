package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/gin-gonic/gin"
)

const (
	userKey  = "user"
	actorKey = "actor"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// Authenticate identifies the caller when an Authorization header is sent.
// Requests without one continue as anonymous; permission checks downstream
// decide whether that is enough. A header that does not carry a valid access
// token is rejected with 401.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(actorKey, permission.Anonymous())
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(userKey, user)
		c.Set(actorKey, permission.FromUser(user))
		c.Next()
	}
}

// RequireAuth stops anonymous callers before the handler runs.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication credentials were not provided",
			})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the caller set by Authenticate, or an anonymous actor.
func ActorFrom(c *gin.Context) permission.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(permission.Actor); ok {
			return actor
		}
	}
	return permission.Anonymous()
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
