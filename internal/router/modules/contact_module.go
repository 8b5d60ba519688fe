package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
)

type ContactModule struct {
	Handler *handlers.ContactHandler
}

func NewContactModule(h *handlers.ContactHandler) *ContactModule {
	return &ContactModule{Handler: h}
}

func (m *ContactModule) Name() string { return "contact" }

func (m *ContactModule) Register(rg *gin.RouterGroup) {
	rg.POST("/contact", perRoute(container.GetRedis(), 5, time.Hour), m.Handler.Send)
}
