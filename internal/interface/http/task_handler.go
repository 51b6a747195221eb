package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lukejcn/task-manager/internal/application"
	"github.com/lukejcn/task-manager/internal/interface/middleware"
	"github.com/lukejcn/task-manager/pkg/apperror"
	"github.com/lukejcn/task-manager/pkg/response"
	"github.com/lukejcn/task-manager/pkg/validation"
)

type TaskHandler struct {
	Svc    *application.TaskService
	Logger *logrus.Logger
}

func NewTaskHandler(svc *application.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger}
}

type createTaskRequest struct {
	Title  string `json:"title" binding:"required"`
	Status bool   `json:"status"`
}

// Create POST /api/tasks; the owner is fixed to the caller.
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"title": "is required"})
		return
	}

	u := middleware.UserFromCtx(c)
	t, err := h.Svc.Create(c.Request.Context(), u.ID, title, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, t, "task created", nil)
}

// List GET /api/tasks?completed=true&limit=10&skip=0&sortBy=createdAt_desc
// Only incomplete tasks are listed unless completed=true lifts the filter.
func (h *TaskHandler) List(c *gin.Context) {
	u := middleware.UserFromCtx(c)
	in := application.ListInput{
		ShowAll: c.Query("completed") == "true",
		Limit:   atoiOr(c.Query("limit"), 0),
		Offset:  atoiOr(c.Query("skip"), 0),
		SortBy:  c.Query("sortBy"),
	}
	tasks, err := h.Svc.List(c.Request.Context(), u.ID, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks, "tasks", nil)
}

// Get GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	u := middleware.UserFromCtx(c)
	t, err := h.Svc.Get(c.Request.Context(), c.Param("id"), u.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, t, "task", nil)
}

var taskFields = map[string]bool{"title": true, "status": true}

type updateTaskRequest struct {
	Title  *string `json:"title"`
	Status *bool   `json:"status"`
}

// Update PATCH /api/tasks/:id. Unknown fields are rejected with 403; the
// owner can never be reassigned because it is not an accepted field.
func (h *TaskHandler) Update(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"payload": "invalid json"})
		return
	}
	for field := range raw {
		if !taskFields[field] {
			response.FromError(c, apperror.NewDisallowedField())
			return
		}
	}

	var req updateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"payload": "invalid json"})
		return
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"title": "is required"})
			return
		}
		req.Title = &title
	}

	u := middleware.UserFromCtx(c)
	t, err := h.Svc.Update(c.Request.Context(), c.Param("id"), u.ID, application.TaskUpdate{
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, t, "task updated", nil)
}

// Delete DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	u := middleware.UserFromCtx(c)
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), u.ID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "task deleted", nil)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
