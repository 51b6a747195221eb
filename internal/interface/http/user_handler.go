package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/lukejcn/task-manager/internal/application"
	"github.com/lukejcn/task-manager/internal/domain/entity"
	"github.com/lukejcn/task-manager/internal/interface/middleware"
	"github.com/lukejcn/task-manager/pkg/apperror"
	"github.com/lukejcn/task-manager/pkg/avatar"
	"github.com/lukejcn/task-manager/pkg/response"
	"github.com/lukejcn/task-manager/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Name string `json:"name" binding:"required"`
	// Pointer so that an explicit age of 0 still satisfies required.
	Age      *int   `json:"age" binding:"required,gte=0"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,taskpwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// updateProfileRequest holds the allow-listed mutable profile fields. The
// allow-list itself is enforced on the raw JSON keys before binding.
type updateProfileRequest struct {
	Name     *string `json:"name"`
	Age      *int    `json:"age" binding:"omitempty,gte=0"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,taskpwd"`
}

// Register POST /api/users
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"name": "is required"})
		return
	}

	u := &entity.User{
		Name:     name,
		Age:      *req.Age,
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	}
	token, err := h.Svc.Register(c.Request.Context(), u)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": u.Public(), "token": token}, "account created", nil)
}

// Login POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u.Public(), "token": token}, "login successful", nil)
}

// Logout POST /api/users/logout removes exactly the token used for this
// request; other sessions stay valid.
func (h *UserHandler) Logout(c *gin.Context) {
	u := middleware.UserFromCtx(c)
	if err := h.Svc.Logout(c.Request.Context(), u.ID, middleware.TokenFromCtx(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "logged out", nil)
}

// LogoutAll POST /api/users/logoutall
func (h *UserHandler) LogoutAll(c *gin.Context) {
	u := middleware.UserFromCtx(c)
	if err := h.Svc.LogoutAll(c.Request.Context(), u.ID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "logged out everywhere", nil)
}

// GetProfile GET /api/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	u := middleware.UserFromCtx(c)
	response.Success(c, http.StatusOK, u.Public(), "profile", nil)
}

var profileFields = map[string]bool{"name": true, "age": true, "email": true, "password": true}

// UpdateProfile PATCH /api/users/me. Unknown fields are rejected with 403
// before any value is inspected; malformed values are 400.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
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
		if !profileFields[field] {
			response.FromError(c, apperror.NewDisallowedField())
			return
		}
	}

	var req updateProfileRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"name": "is required"})
			return
		}
		req.Name = &name
	}

	u := middleware.UserFromCtx(c)
	updated, err := h.Svc.UpdateProfile(c.Request.Context(), u, application.ProfileUpdate{
		Name:     req.Name,
		Age:      req.Age,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated.Public(), "profile updated", nil)
}

// DeleteAccount DELETE /api/users/me cascades to the user's tasks.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	u := middleware.UserFromCtx(c)
	if err := h.Svc.DeleteAccount(c.Request.Context(), u); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "account deleted", nil)
}

// UploadAvatar POST /api/users/me/avatar accepts one multipart image.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	if fh.Size > avatar.MaxBytes {
		response.Error[any](c, http.StatusBadRequest, "avatar must be 1MB or smaller", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, avatar.MaxBytes+1))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if len(data) > avatar.MaxBytes {
		response.Error[any](c, http.StatusBadRequest, "avatar must be 1MB or smaller", nil)
		return
	}

	u := middleware.UserFromCtx(c)
	if err := h.Svc.UploadAvatar(c.Request.Context(), u.ID, fh.Filename, data); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "avatar uploaded", nil)
}

// DeleteAvatar DELETE /api/users/me/avatar
func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	u := middleware.UserFromCtx(c)
	if err := h.Svc.DeleteAvatar(c.Request.Context(), u.ID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "avatar deleted", nil)
}

// GetAvatar GET /api/users/:id/avatar is public and serves raw PNG bytes.
func (h *UserHandler) GetAvatar(c *gin.Context) {
	b, err := h.Svc.GetAvatar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
