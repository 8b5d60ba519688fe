package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

// BuyerModule wires the cart, favorites and reviews; all routes need a session.
type BuyerModule struct {
	Handler *handlers.BuyerHandler
	JWT     *helpers.JWTManager
}

func NewBuyerModule(h *handlers.BuyerHandler, jwt *helpers.JWTManager) *BuyerModule {
	return &BuyerModule{Handler: h, JWT: jwt}
}

func (m *BuyerModule) Name() string { return "buyer" }

func (m *BuyerModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(perUser(rdb))
	{
		auth.GET("/cart", m.Handler.GetCart)
		auth.POST("/cart/items", m.Handler.AddToCart)
		auth.DELETE("/cart/items/:id", m.Handler.RemoveFromCart)
		auth.DELETE("/cart", m.Handler.ClearCart)

		auth.GET("/favorites", m.Handler.ListFavorites)
		auth.POST("/favorites/:automation_id", m.Handler.ToggleFavorite)

		auth.POST("/automations/:slug/reviews", perRoute(rdb, 20, time.Hour), m.Handler.SubmitReview)
	}
}
