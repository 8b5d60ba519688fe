package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

// DeveloperModule wires onboarding and the seller dashboard.
// Any signed-in user: POST /developer/onboard
// Developers and admins: /developer/automations, /developer/sales, /developer/stripe/*
type DeveloperModule struct {
	Handler *handlers.DeveloperHandler
	JWT     *helpers.JWTManager
}

func NewDeveloperModule(h *handlers.DeveloperHandler, jwt *helpers.JWTManager) *DeveloperModule {
	return &DeveloperModule{Handler: h, JWT: jwt}
}

func (m *DeveloperModule) Name() string { return "developer" }

func (m *DeveloperModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	rg.GET("/iban/:iban", perRoute(rdb, 30, time.Minute), m.Handler.CheckIBAN)
	rg.POST("/developer/onboard", middleware.Auth(rdb, m.JWT), perRoute(rdb, 10, time.Hour), m.Handler.Onboard)

	dev := rg.Group("/developer")
	dev.Use(middleware.Auth(rdb, m.JWT), middleware.RequireRole("developer", "admin"))
	dev.Use(perUser(rdb))
	{
		dev.GET("/automations", m.Handler.List)
		dev.POST("/automations", m.Handler.Create)
		dev.PUT("/automations/:id", m.Handler.Update)
		dev.DELETE("/automations/:id", m.Handler.Delete)
		dev.POST("/automations/:id/file", perRoute(rdb, 30, time.Hour), m.Handler.UploadFile)
		dev.POST("/automations/:id/image", perRoute(rdb, 30, time.Hour), m.Handler.UploadImage)
		dev.GET("/sales", m.Handler.Sales)
		dev.POST("/stripe/connect", perRoute(rdb, 10, time.Minute), m.Handler.ConnectStripe)
		dev.GET("/stripe/status", m.Handler.StripeStatus)
	}
}
