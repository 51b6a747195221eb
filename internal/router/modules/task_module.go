package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/lukejcn/task-manager/internal/interface/http"
)

// TaskModule wires task routes. Every route requires authentication and is
// scoped to the authenticated owner.

type TaskModule struct {
	Handler *handlers.TaskHandler
	Auth    gin.HandlerFunc
}

func NewTaskModule(h *handlers.TaskHandler, auth gin.HandlerFunc) *TaskModule {
	return &TaskModule{Handler: h, Auth: auth}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.Use(m.Auth)
	{
		tasks.POST("", m.Handler.Create)
		tasks.GET("", m.Handler.List)
		tasks.GET("/:id", m.Handler.Get)
		tasks.PATCH("/:id", m.Handler.Update)
		tasks.DELETE("/:id", m.Handler.Delete)
	}
}
