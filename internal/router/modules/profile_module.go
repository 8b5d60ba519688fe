package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

type ProfileModule struct {
	Handler *handlers.ProfileHandler
	JWT     *helpers.JWTManager
}

func NewProfileModule(h *handlers.ProfileHandler, jwt *helpers.JWTManager) *ProfileModule {
	return &ProfileModule{Handler: h, JWT: jwt}
}

func (m *ProfileModule) Name() string { return "profile" }

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	rg.GET("/users/:username", perIP(rdb), m.Handler.Public)

	auth := rg.Group("/profile")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(perUser(rdb))
	{
		auth.GET("", m.Handler.Me)
		auth.PUT("", m.Handler.Update)
		auth.POST("/avatar", perRoute(rdb, 10, time.Hour), m.Handler.UploadAvatar)
		auth.GET("/notifications", m.Handler.Prefs)
		auth.PUT("/notifications", m.Handler.UpdatePrefs)
	}
}
