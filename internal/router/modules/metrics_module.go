package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otomasyon-magazasi/internal/container"
	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
	"github.com/oksasatya/otomasyon-magazasi/internal/metrics"
)

// MetricsModule mounts the Prometheus endpoint at the engine root, outside /api.
// In-cluster scrapers on private addresses skip the limiter.
type MetricsModule struct {
	Root *gin.RouterGroup
}

func NewMetricsModule(engine *gin.Engine) *MetricsModule {
	return &MetricsModule{Root: &engine.RouterGroup}
}

func (m *MetricsModule) Name() string { return "metrics" }

func (m *MetricsModule) Register(_ *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	m.Root.GET("/metrics", rl, gin.WrapH(metrics.Handler()))
}
