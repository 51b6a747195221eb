package router

import (
	"github.com/lukejcn/task-manager/internal/application"
	"github.com/lukejcn/task-manager/internal/container"
	pginfra "github.com/lukejcn/task-manager/internal/infrastructure/postgres"
	handlers "github.com/lukejcn/task-manager/internal/interface/http"
	"github.com/lukejcn/task-manager/internal/interface/middleware"
	"github.com/lukejcn/task-manager/internal/router/modules"
)

// InitModules wires repositories, persistence hooks, services, and handlers
// from the container singletons and registers every feature module.
// Called once during startup.
func InitModules(r *Registry) {
	pool := container.GetPGPool()
	logger := container.GetLogger()

	userRepo := pginfra.NewUserRepository(pool)
	taskRepo := pginfra.NewTaskRepository(pool)

	// Explicit store hooks: password re-hash before every save, task cascade
	// before every account delete.
	userRepo.BeforeSave(application.EnsurePasswordHashed)
	userRepo.BeforeDelete(application.CascadeDeleteTasks(taskRepo))

	userSvc := application.NewUserService(userRepo, container.GetTokens(), container.GetMail(), logger)
	taskSvc := application.NewTaskService(taskRepo)

	auth := middleware.Auth(userRepo, container.GetTokens())

	r.Add(modules.NewUserModule(handlers.NewUserHandler(userSvc, logger), auth))
	r.Add(modules.NewTaskModule(handlers.NewTaskHandler(taskSvc, logger), auth))
}
