package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	handlers "github.com/oksasatya/otomasyon-magazasi/internal/interface/http"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

// AdminModule exposes moderation, user management, stats, categories and
// the raw email endpoint to admins only.
type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt}
}

func (m *AdminModule) Name() string { return "admin" }

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(container.GetRedis(), m.JWT), middleware.RequireRole("admin"))
	{
		admin.GET("/automations", m.Handler.ListAutomations)
		admin.POST("/automations/:id/approve", m.Handler.Approve)
		admin.POST("/automations/:id/reject", m.Handler.Reject)

		admin.GET("/users", m.Handler.ListUsers)
		admin.PUT("/users/:id/role", m.Handler.SetRole)
		admin.GET("/stats", m.Handler.Stats)

		admin.POST("/categories", m.Handler.CreateCategory)
		admin.PUT("/categories/:id", m.Handler.UpdateCategory)
		admin.DELETE("/categories/:id", m.Handler.DeleteCategory)

		admin.POST("/email", m.Handler.SendEmail)
	}
}
