package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lukejcn/task-manager/internal/domain/entity"
	"github.com/lukejcn/task-manager/internal/domain/repository"
	pginfra "github.com/lukejcn/task-manager/internal/infrastructure/postgres"
	"github.com/lukejcn/task-manager/pkg/apperror"
	"github.com/lukejcn/task-manager/pkg/avatar"
	"github.com/lukejcn/task-manager/pkg/helpers"
	"github.com/lukejcn/task-manager/pkg/mailer"
	"github.com/lukejcn/task-manager/pkg/validation"
)

// UserService implements account lifecycle operations on top of the user
// store, the token service, and the asynchronous mail dispatcher.
type UserService struct {
	Users  repository.UserRepository
	Tokens *helpers.TokenManager
	Mail   *mailer.Dispatcher
	Logger *logrus.Logger
}

func NewUserService(users repository.UserRepository, tokens *helpers.TokenManager, mail *mailer.Dispatcher, logger *logrus.Logger) *UserService {
	return &UserService{Users: users, Tokens: tokens, Mail: mail, Logger: logger}
}

// Register persists the new user, issues its first session token, and fires
// the welcome notification. The save hook hashes the plaintext password.
func (s *UserService) Register(ctx context.Context, u *entity.User) (string, error) {
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, pginfra.ErrDuplicateEmail) {
			return "", apperror.NewValidation("email already in use")
		}
		return "", err
	}

	token, err := s.issueToken(ctx, u)
	if err != nil {
		return "", err
	}

	s.Mail.Enqueue(mailer.WelcomeJob(u.Email, u.Name))
	return token, nil
}

// Login authenticates by email and password. Every failure mode yields the
// same generic error so callers cannot learn which emails are registered.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, "", apperror.NewAuthFailure("unable to login")
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, "", apperror.NewAuthFailure("unable to login")
	}

	token, err := s.issueToken(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// issueToken signs a token for the user and appends it to the active set.
func (s *UserService) issueToken(ctx context.Context, u *entity.User) (string, error) {
	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("token issue failed")
		return "", err
	}
	if err := s.Users.AddToken(ctx, u.ID, token); err != nil {
		return "", err
	}
	u.Tokens = append(u.Tokens, token)
	return token, nil
}

// Logout revokes exactly the presented token; other sessions stay valid.
func (s *UserService) Logout(ctx context.Context, userID, token string) error {
	return s.Users.RemoveToken(ctx, userID, token)
}

// LogoutAll revokes every session token for the user.
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	return s.Users.ClearTokens(ctx, userID)
}

// ProfileUpdate carries the allow-listed mutable fields. Nil means "leave
// unchanged". Field allow-listing itself happens at the HTTP boundary.
type ProfileUpdate struct {
	Name     *string
	Age      *int
	Email    *string
	Password *string
}

func (s *UserService) UpdateProfile(ctx context.Context, u *entity.User, in ProfileUpdate) (*entity.User, error) {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Age != nil {
		u.Age = *in.Age
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Password != nil {
		if !validation.PasswordOK(*in.Password) {
			return nil, apperror.NewValidation("password must be at least 8 characters with one uppercase letter and one number, and must not contain the word 'password'")
		}
		// Plaintext here; the save hook re-hashes before persisting.
		u.Password = *in.Password
	}

	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, pginfra.ErrDuplicateEmail) {
			return nil, apperror.NewValidation("email already in use")
		}
		return nil, err
	}
	return u, nil
}

// DeleteAccount removes the user (the delete hook cascades to its tasks) and
// fires the goodbye notification.
func (s *UserService) DeleteAccount(ctx context.Context, u *entity.User) error {
	if err := s.Users.Delete(ctx, u); err != nil {
		return err
	}
	s.Mail.Enqueue(mailer.GoodbyeJob(u.Email, u.Name))
	return nil
}

// UploadAvatar validates the attachment, normalizes it to the canonical
// square PNG, and stores the bytes on the user record.
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename string, data []byte) error {
	if !avatar.AllowedExt(filename) {
		return apperror.NewValidation("File Type must be JPG, PNG or JPEG!")
	}
	if len(data) > avatar.MaxBytes {
		return apperror.NewValidation("avatar must be 1MB or smaller")
	}
	normalized, err := avatar.Normalize(data)
	if err != nil {
		return apperror.NewValidation("uploaded file is not a valid image")
	}
	return s.Users.SetAvatar(ctx, userID, normalized)
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID string) error {
	return s.Users.SetAvatar(ctx, userID, nil)
}

// GetAvatar serves the public avatar fetch: stored bytes or not-found, with
// no distinction between a missing user and a user without an avatar.
func (s *UserService) GetAvatar(ctx context.Context, userID string) ([]byte, error) {
	if uuid.Validate(userID) != nil {
		return nil, apperror.NewNotFound("not found")
	}
	b, err := s.Users.GetAvatar(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound("not found")
		}
		return nil, err
	}
	return b, nil
}
