package application

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lukejcn/task-manager/internal/domain/entity"
	"github.com/lukejcn/task-manager/internal/domain/repository"
	"github.com/lukejcn/task-manager/pkg/apperror"
)

// sortColumns maps caller-facing sort field names onto table columns. Only
// these fields are sortable; anything else is rejected before reaching SQL.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"status":    "status",
}

const defaultListLimit = 10

// TaskService implements owner-scoped task operations. Every single-task
// read or write carries the authenticated owner's ID, so tasks belonging to
// someone else read as not-found.
type TaskService struct {
	Tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) *TaskService {
	return &TaskService{Tasks: tasks}
}

func (s *TaskService) Create(ctx context.Context, ownerID, title string, status bool) (*entity.Task, error) {
	t := &entity.Task{Title: title, Status: status, OwnerID: ownerID}
	if err := s.Tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id, ownerID string) (*entity.Task, error) {
	if uuid.Validate(id) != nil {
		return nil, apperror.NewNotFound("No task with this ID was found")
	}
	t, err := s.Tasks.GetByOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound("No task with this ID was found")
		}
		return nil, err
	}
	return t, nil
}

// ListInput is the parsed query for a task listing. ShowAll lifts the
// default incomplete-only filter. SortBy is "<field>_<asc|desc>" or empty.
type ListInput struct {
	ShowAll bool
	Limit   int
	Offset  int
	SortBy  string
}

func (s *TaskService) List(ctx context.Context, ownerID string, in ListInput) ([]*entity.Task, error) {
	f := repository.TaskFilter{
		OwnerID: ownerID,
		Limit:   in.Limit,
		Offset:  in.Offset,
		SortBy:  "created_at",
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if !in.ShowAll {
		incomplete := false
		f.Completed = &incomplete
	}
	if in.SortBy != "" {
		field, desc, err := parseSort(in.SortBy)
		if err != nil {
			return nil, err
		}
		f.SortBy = field
		f.SortDesc = desc
	}
	return s.Tasks.List(ctx, f)
}

// parseSort turns "createdAt_desc" into a vetted column and direction.
func parseSort(sortBy string) (string, bool, error) {
	field := sortBy
	desc := false
	if i := lastUnderscore(sortBy); i >= 0 {
		switch sortBy[i+1:] {
		case "desc":
			field, desc = sortBy[:i], true
		case "asc":
			field, desc = sortBy[:i], false
		}
	}
	col, ok := sortColumns[field]
	if !ok {
		return "", false, apperror.NewValidation("cannot sort by " + field)
	}
	return col, desc, nil
}

func lastUnderscore(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '_' {
			return i
		}
	}
	return -1
}

// TaskUpdate carries the allow-listed mutable task fields; nil leaves a
// field unchanged. Owner reassignment is never possible.
type TaskUpdate struct {
	Title  *string
	Status *bool
}

func (s *TaskService) Update(ctx context.Context, id, ownerID string, in TaskUpdate) (*entity.Task, error) {
	t, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if err := s.Tasks.Update(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound("No task with this ID was found")
		}
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id, ownerID string) error {
	if uuid.Validate(id) != nil {
		return apperror.NewNotFound("No task with this ID was found")
	}
	if err := s.Tasks.DeleteByOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("No task with this ID was found")
		}
		return err
	}
	return nil
}
