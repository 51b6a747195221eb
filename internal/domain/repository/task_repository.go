package repository

import (
	"context"
	"errors"

	"github.com/lukejcn/task-manager/internal/domain/entity"
)

// ErrNotFound is returned by repositories when no row matches. For tasks it
// covers both a missing id and an id owned by someone else.
var ErrNotFound = errors.New("not found")

// TaskFilter scopes a task listing. OwnerID is always required: tasks are
// never listed across owners.
type TaskFilter struct {
	OwnerID   string
	Completed *bool // nil lists all, otherwise filters by status
	Limit     int
	Offset    int
	SortBy    string // column name, already validated by the caller
	SortDesc  bool
}

// TaskRepository defines the interface for task persistence. Single-task
// reads and writes are always keyed by (id, owner) so a missing task and a
// task owned by someone else are indistinguishable.
type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	GetByOwner(ctx context.Context, id, ownerID string) (*entity.Task, error)
	List(ctx context.Context, f TaskFilter) ([]*entity.Task, error)
	Update(ctx context.Context, t *entity.Task) error
	DeleteByOwner(ctx context.Context, id, ownerID string) error
	DeleteAllByOwner(ctx context.Context, ownerID string) error
}
