package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lukejcn/task-manager/internal/domain/entity"
	"github.com/lukejcn/task-manager/internal/domain/repository"
	"github.com/lukejcn/task-manager/pkg/helpers"
	"github.com/lukejcn/task-manager/pkg/response"
)

const (
	// CtxUserKey holds the authenticated *entity.User.
	CtxUserKey = "authUser"
	// CtxTokenKey holds the raw token used for this request, so logout can
	// revoke exactly this session.
	CtxTokenKey = "authToken"
)

// Auth validates the bearer token on protected routes. A valid signature is
// not enough: the exact token string must still be in the user's stored
// token set, since revocation is modeled as removal from that set. On
// success the loaded user and the raw token are attached to the context.
func Auth(users repository.UserRepository, tokens *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			response.AbortError[any](c, http.StatusUnauthorized, "please authenticate", nil)
			return
		}

		userID, err := tokens.Verify(raw)
		if err != nil {
			response.AbortError[any](c, http.StatusUnauthorized, "please authenticate", nil)
			return
		}

		u, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || u == nil || !u.HasToken(raw) {
			response.AbortError[any](c, http.StatusUnauthorized, "please authenticate", nil)
			return
		}

		c.Set(CtxUserKey, u)
		c.Set(CtxTokenKey, raw)
		c.Next()
	}
}

// UserFromCtx returns the authenticated user attached by Auth.
func UserFromCtx(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxUserKey); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}

// TokenFromCtx returns the raw token attached by Auth.
func TokenFromCtx(c *gin.Context) string {
	return c.GetString(CtxTokenKey)
}
