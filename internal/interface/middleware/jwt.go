package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

// Context keys set by Auth and OptionalAuth.
const (
	CtxUserIDKey    = "userID"
	CtxUserNameKey  = "userName"
	CtxUserEmailKey = "userEmail"
	CtxRoleKey      = "role"
)

// accessToken reads the access_token cookie, falling back to an
// "Authorization: Bearer" header for API clients.
func accessToken(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.AccessCookie); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string { return c.GetString(CtxUserIDKey) }

// Role returns the caller's current role, or "" for anonymous requests.
func Role(c *gin.Context) string { return c.GetString(CtxRoleKey) }
