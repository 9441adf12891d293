package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"filer/internal/pkg/jwt"
	"filer/internal/pkg/response"
)

// RequireRole lets the request through when the token carries one of roles.
// It must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}
		if !slices.Contains(roles, role) {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnly guards folder management and file moderation.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleAdmin)
}
