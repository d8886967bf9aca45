package modules

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/identity-service/internal/interface/http"
	"github.com/oksasatya/identity-service/internal/interface/middleware"
)

// UserModule mounts the account API at /v1/users.
// Reads are budgeted per IP and writes per X-Actor-ID; private addresses bypass both.
type UserModule struct {
	Handler    *handlers.UserHandler
	Redis      *redis.Client
	ReadLimit  int
	WriteLimit int
	Window     time.Duration
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, read, write int, window time.Duration) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, ReadLimit: read, WriteLimit: write, Window: window}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	readLimiter := middleware.RateLimit(m.Redis, m.ReadLimit, m.Window, middleware.KeyByIP(),
		middleware.AnyOf(middleware.AllowPrivateIP(), middleware.AllowMethods(http.MethodPost, http.MethodPut, http.MethodDelete)))
	writeLimiter := middleware.RateLimit(m.Redis, m.WriteLimit, m.Window, middleware.KeyByActor(),
		middleware.AnyOf(middleware.AllowPrivateIP(), middleware.AllowMethods(http.MethodGet, http.MethodHead)))

	users := rg.Group("/v1/users", readLimiter, writeLimiter)
	{
		users.GET("", m.Handler.List)
		users.POST("", m.Handler.Create)
		users.GET("/count", m.Handler.Count)
		users.GET("/search", m.Handler.Search)
		users.GET("/search/name", m.Handler.SearchByName)
		users.GET("/search/email", m.Handler.SearchByEmail)
		users.GET("/username/:username", m.Handler.GetByUsername)
		users.DELETE("/username/:username", m.Handler.DeleteByUsername)
		users.GET("/email/:email", m.Handler.GetByEmail)
		users.DELETE("/email/:email", m.Handler.DeleteByEmail)
		users.GET("/status/:status", m.Handler.ListByStatus)

		users.GET("/:id", m.Handler.GetByID)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
		users.PUT("/:id/profile", m.Handler.UpdateProfile)
		users.PUT("/:id/status", m.Handler.UpdateStatus)
		users.PUT("/:id/password", m.Handler.UpdatePassword)
		users.PUT("/:id/soft-delete", m.Handler.SoftDelete)
		users.POST("/:id/avatar", m.Handler.UploadAvatar)
	}
}
