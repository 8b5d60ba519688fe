package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/otomasyon-magazasi/internal/interface/middleware"
)

// Shared budgets. Route specific limits key by IP and path so they never
// consume these.
func perIP(rdb *redis.Client) gin.HandlerFunc {
	return middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil)
}

func perUser(rdb *redis.Client) gin.HandlerFunc {
	return middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), middleware.AllowRole("admin"))
}

func perRoute(rdb *redis.Client, max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(rdb, max, window, middleware.KeyByIPAndPath(), nil)
}
