package middleware

import (
	"net/http"
	"strings"

	"beautybook/models"
	"beautybook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	PrincipalIDKey = "principalID"
	RoleKey        = "role"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "Insufficient authorization",
		"code":  0,
	})
}

// JWTAuthMiddleware verifies the bearer token and stores the caller's id and role in the
// context. Only client and provider tokens are accepted.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			abortUnauthorized(c)
			return
		}

		subject, role, err := utils.ExtractClaims(tokenString)
		if err != nil {
			utils.GetLogger().Debug("Rejected bearer token", zap.Error(err))
			abortUnauthorized(c)
			return
		}
		switch models.Role(role) {
		case models.RoleClient, models.RoleProvider:
		default:
			abortUnauthorized(c)
			return
		}

		c.Set(PrincipalIDKey, subject)
		c.Set(RoleKey, models.Role(role))
		c.Next()
	}
}

// RequireRole lets through only principals with one of the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Role not allowed for this operation",
			"code":  0,
		})
	}
}

// ActorFromContext returns the principal set by JWTAuthMiddleware.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	id := c.GetString(PrincipalIDKey)
	raw, exists := c.Get(RoleKey)
	if id == "" || !exists {
		return models.Actor{}, false
	}
	role, ok := raw.(models.Role)
	if !ok {
		return models.Actor{}, false
	}
	return models.Actor{ID: id, Role: role}, true
}
