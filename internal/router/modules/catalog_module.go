package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

// CatalogModule serves the public storefront. Detail identifies the caller
// when possible so owners and admins can preview unlisted automations.
type CatalogModule struct {
	Handler *handlers.CatalogHandler
	JWT     *helpers.JWTManager
}

func NewCatalogModule(h *handlers.CatalogHandler, jwt *helpers.JWTManager) *CatalogModule {
	return &CatalogModule{Handler: h, JWT: jwt}
}

func (m *CatalogModule) Name() string { return "catalog" }

func (m *CatalogModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	pub := rg.Group("/")
	pub.Use(perIP(rdb))
	{
		pub.GET("/categories", m.Handler.Categories)
		pub.GET("/automations", m.Handler.List)
		pub.GET("/automations/search", m.Handler.Search)
		pub.GET("/automations/:slug", middleware.OptionalAuth(rdb, m.JWT), m.Handler.Detail)
		pub.GET("/automations/:slug/reviews", m.Handler.Reviews)
	}
}
