package modules

import (
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/identity-service/internal/interface/middleware"
	"github.com/oksasatya/identity-service/pkg/helpers"
)

// DebugModule exposes expvar counters and a health check.
type DebugModule struct {
	Redis         *redis.Client
	StorageDriver string
}

func NewDebugModule(rdb *redis.Client, storageDriver string) *DebugModule {
	return &DebugModule{Redis: rdb, StorageDriver: storageDriver}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	rg.GET("/healthz", m.health)
}

func (m *DebugModule) health(c *gin.Context) {
	status := gin.H{"storage": m.StorageDriver, "redis": "disabled"}
	code := http.StatusOK
	if m.Redis != nil {
		if err := helpers.PingRedis(c.Request.Context(), m.Redis, time.Second); err != nil {
			status["redis"] = "down"
			code = http.StatusServiceUnavailable
		} else {
			status["redis"] = "up"
		}
	}
	c.JSON(code, status)
}
