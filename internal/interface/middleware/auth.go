package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	"github.com/oksasatya/otomasyon-magazasi/pkg/response"
)

const sessionPrefix = "user:session:"

// resolve validates the access token against the live session hash in Redis.
// The session role wins over the token role so promotions apply immediately.
func resolve(c *gin.Context, rdb *redis.Client, jwt *helpers.JWTManager) (string, bool) {
	token := accessToken(c)
	if token == "" {
		return "Oturum açmanız gerekiyor.", false
	}
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		return "Oturumunuzun süresi doldu. Lütfen tekrar giriş yapın.", false
	}
	data, err := rdb.HGetAll(c.Request.Context(), sessionPrefix+claims.UserID).Result()
	if err != nil || len(data) == 0 {
		return "Oturumunuz bulunamadı. Lütfen tekrar giriş yapın.", false
	}
	// A rotated or reset session invalidates older tokens.
	if sid := data["sid"]; sid != "" && sid != claims.SessionID {
		return "Oturumunuzun süresi doldu. Lütfen tekrar giriş yapın.", false
	}

	role := data["role"]
	if role == "" {
		role = claims.Role
	}
	c.Set(CtxUserIDKey, claims.UserID)
	c.Set(CtxUserNameKey, data["name"])
	c.Set(CtxUserEmailKey, data["email"])
	c.Set(CtxRoleKey, role)
	return "", true
}

// Auth validates the access token and ensures an active session exists in Redis.
// It sets userID, userName, userEmail and role in the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || jwt == nil {
			response.Abort(c, http.StatusServiceUnavailable, "Oturum servisi şu anda kullanılamıyor.")
			return
		}
		if msg, ok := resolve(c, rdb, jwt); !ok {
			response.Abort(c, http.StatusUnauthorized, msg)
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid session exists and
// otherwise lets the request through anonymously.
func OptionalAuth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb != nil && jwt != nil && accessToken(c) != "" {
			resolve(c, rdb, jwt)
		}
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, Role(c)) {
			response.Abort(c, http.StatusForbidden, "Bu işlem için yetkiniz yok.")
			return
		}
		c.Next()
	}
}
