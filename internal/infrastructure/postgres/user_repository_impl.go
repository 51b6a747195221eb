package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lukejcn/task-manager/internal/domain/entity"
	"github.com/lukejcn/task-manager/internal/domain/repository"
)

// ErrDuplicateEmail signals a unique-constraint violation on users.email.
var ErrDuplicateEmail = errors.New("email already in use")

const uniqueViolation = "23505"

type UserRepository struct {
	pool         *pgxpool.Pool
	beforeSave   []repository.UserHook
	beforeDelete []repository.UserHook
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) BeforeSave(h repository.UserHook)   { r.beforeSave = append(r.beforeSave, h) }
func (r *UserRepository) BeforeDelete(h repository.UserHook) { r.beforeDelete = append(r.beforeDelete, h) }

func (r *UserRepository) runHooks(ctx context.Context, hooks []repository.UserHook, u *entity.User) error {
	for _, h := range hooks {
		if err := h(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := r.runHooks(ctx, r.beforeSave, u); err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, age, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tokens, created_at, updated_at
	`, u.Name, u.Age, u.Email, u.Password)

	if err := row.Scan(&u.ID, &u.Tokens, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	u := &entity.User{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, age, email, password_hash, tokens, created_at, updated_at
		FROM users
		WHERE `+column+` = $1
	`, value)

	if err := row.Scan(&u.ID, &u.Name, &u.Age, &u.Email, &u.Password, &u.Tokens,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := r.runHooks(ctx, r.beforeSave, u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, age = $2, email = $3, password_hash = $4, updated_at = $5
		WHERE id = $6
	`, u.Name, u.Age, u.Email, u.Password, u.UpdatedAt, u.ID)
	if err != nil {
		return mapPgError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	if err := r.runHooks(ctx, r.beforeDelete, u); err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddToken(ctx context.Context, userID, token string) error {
	return r.tokenExec(ctx, `
		UPDATE users SET tokens = array_append(tokens, $2), updated_at = now()
		WHERE id = $1
	`, userID, token)
}

func (r *UserRepository) RemoveToken(ctx context.Context, userID, token string) error {
	return r.tokenExec(ctx, `
		UPDATE users SET tokens = array_remove(tokens, $2), updated_at = now()
		WHERE id = $1
	`, userID, token)
}

func (r *UserRepository) ClearTokens(ctx context.Context, userID string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET tokens = '{}', updated_at = now()
		WHERE id = $1
	`, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) tokenExec(ctx context.Context, sql, userID, token string) error {
	res, err := r.pool.Exec(ctx, sql, userID, token)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetAvatar(ctx context.Context, userID string, avatar []byte) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET avatar = $2, updated_at = now()
		WHERE id = $1
	`, userID, avatar)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetAvatar(ctx context.Context, userID string) ([]byte, error) {
	var avatar []byte
	row := r.pool.QueryRow(ctx, `SELECT avatar FROM users WHERE id = $1`, userID)
	if err := row.Scan(&avatar); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(avatar) == 0 {
		return nil, repository.ErrNotFound
	}
	return avatar, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
