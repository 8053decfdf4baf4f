package middleware

import (
	"net/http"
	"strings"

	"busline/internal/auth"
	"busline/internal/domain"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// RequireAuth validates the Authorization bearer token and stores the
// resolved actor in the gin context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		actor, err := auth.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRole only lets requests through whose actor has one of the given roles.
// Assumes RequireAuth ran earlier in the chain.
func RequireRole(allowedRoles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no actor on request"})
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not allowed"})
			return
		}
		c.Next()
	}
}

// GetActor extracts the authenticated actor from the gin context.
func GetActor(c *gin.Context) (domain.RequestContext, bool) {
	if c == nil {
		return domain.RequestContext{}, false
	}
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	actor, ok := v.(domain.RequestContext)
	return actor, ok
}
