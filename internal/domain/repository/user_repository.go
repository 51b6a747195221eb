package repository

import (
	"context"

	"github.com/lukejcn/task-manager/internal/domain/entity"
)

// UserHook runs around a mutating store call. Save hooks may rewrite the
// entity (password re-hash); delete hooks perform cascades. Hooks run
// deterministically before every Create/Update or Delete, replacing hidden
// document middleware.
type UserHook func(ctx context.Context, u *entity.User) error

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, u *entity.User) error

	// Session token set operations.
	AddToken(ctx context.Context, userID, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	ClearTokens(ctx context.Context, userID string) error

	// Avatar bytes on the user record.
	SetAvatar(ctx context.Context, userID string, avatar []byte) error
	GetAvatar(ctx context.Context, userID string) ([]byte, error)

	// Hook registration; registered hooks apply to all subsequent mutating
	// or deleting calls.
	BeforeSave(h UserHook)
	BeforeDelete(h UserHook)
}
