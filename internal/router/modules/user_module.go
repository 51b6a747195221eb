package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lukejcn/task-manager/internal/container"
	handlers "github.com/lukejcn/task-manager/internal/interface/http"
	"github.com/lukejcn/task-manager/internal/interface/middleware"
)

// UserModule wires account routes.
// Public: POST /api/users, POST /api/users/login, GET /api/users/:id/avatar
// Protected: logout, logoutall, me, me/avatar

type UserModule struct {
	Handler *handlers.UserHandler
	Auth    gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, auth gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, Auth: auth}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// Public with rate limiting
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/users", registerLimiter, m.Handler.Register)
	rg.POST("/users/login", loginLimiter, m.Handler.Login)
	rg.GET("/users/:id/avatar", m.Handler.GetAvatar)

	// Protected
	auth := rg.Group("/users")
	auth.Use(m.Auth)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/logoutall", m.Handler.LogoutAll)
		auth.GET("/me", m.Handler.GetProfile)
		auth.PATCH("/me", m.Handler.UpdateProfile)
		auth.DELETE("/me", m.Handler.DeleteAccount)
		auth.POST("/me/avatar", m.Handler.UploadAvatar)
		auth.DELETE("/me/avatar", m.Handler.DeleteAvatar)
	}
}
