package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

// PaymentsModule wires checkout, purchases and the Stripe webhook.
// The webhook is authenticated by its signature, not by a session.
type PaymentsModule struct {
	Handler *handlers.CheckoutHandler
	JWT     *helpers.JWTManager
}

func NewPaymentsModule(h *handlers.CheckoutHandler, jwt *helpers.JWTManager) *PaymentsModule {
	return &PaymentsModule{Handler: h, JWT: jwt}
}

func (m *PaymentsModule) Name() string { return "payments" }

func (m *PaymentsModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	rg.POST("/webhooks/stripe", m.Handler.Webhook)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(perUser(rdb))
	{
		auth.POST("/checkout", perRoute(rdb, 20, time.Minute), m.Handler.Checkout)
		auth.POST("/checkout/cart", perRoute(rdb, 10, time.Minute), m.Handler.CheckoutCart)
		auth.GET("/purchases", m.Handler.Purchases)
		auth.GET("/purchases/:id/download", perRoute(rdb, 60, time.Hour), m.Handler.Download)
	}
}
