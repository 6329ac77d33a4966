package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
	"github.com/noah-isme/pa-broadcaster/pkg/response"
)

// RequireRoles lets the request through only when the JWT carries one of roles.
// It must run after JWT.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Operator(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
