package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/embedserver/internal/pkg/errcode"
	"github.com/xxxsen/embedserver/internal/pkg/jwt"
	"github.com/xxxsen/embedserver/internal/pkg/response"
)

const ContextSubjectKey = "subject"

// AdminAuth requires a bearer token with the admin role. An empty secret
// disables the check.
func AdminAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, errcode.ErrUnauthorized, "missing authorization")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, errcode.ErrUnauthorized, "invalid authorization")
			return
		}
		claims, err := jwt.ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			response.Abort(c, errcode.ErrUnauthorized, "invalid token")
			return
		}
		if claims.Role != jwt.RoleAdmin {
			response.Abort(c, errcode.ErrForbidden, "admin role required")
			return
		}
		c.Set(ContextSubjectKey, claims.Subject)
		c.Next()
	}
}
