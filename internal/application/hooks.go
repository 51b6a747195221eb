package application

import (
	"context"

	"github.com/lukejcn/task-manager/internal/domain/entity"
	"github.com/lukejcn/task-manager/internal/domain/repository"
	"github.com/lukejcn/task-manager/pkg/helpers"
)

// EnsurePasswordHashed is a before-save hook: it re-hashes the password field
// only when it holds a fresh plaintext value. Saves that do not touch the
// password keep the stored hash untouched.
func EnsurePasswordHashed(ctx context.Context, u *entity.User) error {
	if u.Password == "" || helpers.IsHashed(u.Password) {
		return nil
	}
	hash, err := helpers.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// CascadeDeleteTasks returns a before-delete hook that removes every task
// owned by the user being deleted.
func CascadeDeleteTasks(tasks repository.TaskRepository) repository.UserHook {
	return func(ctx context.Context, u *entity.User) error {
		return tasks.DeleteAllByOwner(ctx, u.ID)
	}
}
