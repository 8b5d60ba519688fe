package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

// AuthModule wires sign-up, sessions, email verification, password reset and
// Google OAuth.
// Public: /auth/register, /auth/username/:username, /login, /refresh, /logout,
// /auth/verify/confirm, /auth/reset/*, /auth/oauth/google, /auth/callback
// Protected: /auth/verify/init
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Public with rate limiting
	registerLimiter := perRoute(rdb, 10, time.Hour)
	usernameLimiter := perRoute(rdb, 60, time.Minute)
	loginLimiter := perRoute(rdb, 10, time.Minute)
	refreshLimiter := perRoute(rdb, 60, time.Minute)
	verifyConfirmLimiter := perRoute(rdb, 30, time.Minute)
	resetInitLimiter := perRoute(rdb, 5, time.Minute)
	resetConfirmLimiter := perRoute(rdb, 30, time.Minute)
	oauthLimiter := perRoute(rdb, 30, time.Minute)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.GET("/auth/username/:username", usernameLimiter, m.Handler.UsernameAvailable)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/logout", middleware.OptionalAuth(rdb, m.JWT), m.Handler.Logout)

	rg.POST("/auth/verify/confirm", verifyConfirmLimiter, m.Handler.VerifyConfirm)
	rg.POST("/auth/reset/init", resetInitLimiter, m.Handler.ResetInit)
	rg.POST("/auth/reset/confirm", resetConfirmLimiter, m.Handler.ResetConfirm)
	rg.GET("/auth/oauth/google", oauthLimiter, m.Handler.GoogleLogin)
	rg.GET("/auth/callback", oauthLimiter, m.Handler.Callback)

	// Protected verify init, limited per route
	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(perRoute(rdb, 5, time.Minute))
	{
		auth.POST("/auth/verify/init", m.Handler.VerifyInit)
	}
}
