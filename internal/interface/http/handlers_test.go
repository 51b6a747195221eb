package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/lukejcn/task-manager/internal/application"
	"github.com/lukejcn/task-manager/internal/domain/entity"
	"github.com/lukejcn/task-manager/internal/domain/repository"
	pginfra "github.com/lukejcn/task-manager/internal/infrastructure/postgres"
	handlers "github.com/lukejcn/task-manager/internal/interface/http"
	"github.com/lukejcn/task-manager/internal/interface/middleware"
	"github.com/lukejcn/task-manager/internal/router"
	"github.com/lukejcn/task-manager/internal/router/modules"
	"github.com/lukejcn/task-manager/pkg/helpers"
	"github.com/lukejcn/task-manager/pkg/mailer"
	"github.com/lukejcn/task-manager/pkg/validation"
)

// memUserRepo is an in-memory repository.UserRepository with the same hook
// and error contract as the Postgres implementation.
type memUserRepo struct {
	mu           sync.Mutex
	users        map[string]*entity.User
	beforeSave   []repository.UserHook
	beforeDelete []repository.UserHook
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Tokens = append([]string(nil), u.Tokens...)
	c.Avatar = append([]byte(nil), u.Avatar...)
	return &c
}

func (r *memUserRepo) BeforeSave(h repository.UserHook)   { r.beforeSave = append(r.beforeSave, h) }
func (r *memUserRepo) BeforeDelete(h repository.UserHook) { r.beforeDelete = append(r.beforeDelete, h) }

func (r *memUserRepo) runSaveHooks(ctx context.Context, u *entity.User) error {
	for _, h := range r.beforeSave {
		if err := h(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (r *memUserRepo) Create(ctx context.Context, u *entity.User) error {
	if err := r.runSaveHooks(ctx, u); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if ex.Email == u.Email {
			return pginfra.ErrDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	u.Tokens = []string{}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Update(ctx context.Context, u *entity.User) error {
	if err := r.runSaveHooks(ctx, u); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, ex := range r.users {
		if id != u.ID && ex.Email == u.Email {
			return pginfra.ErrDuplicateEmail
		}
	}
	stored.Name = u.Name
	stored.Age = u.Age
	stored.Email = u.Email
	stored.Password = u.Password
	stored.UpdatedAt = time.Now()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, u *entity.User) error {
	for _, h := range r.beforeDelete {
		if err := h(ctx, u); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, u.ID)
	return nil
}

func (r *memUserRepo) AddToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Tokens = append(u.Tokens, token)
	return nil
}

func (r *memUserRepo) RemoveToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

func (r *memUserRepo) ClearTokens(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Tokens = []string{}
	return nil
}

func (r *memUserRepo) SetAvatar(_ context.Context, userID string, avatar []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Avatar = append([]byte(nil), avatar...)
	return nil
}

func (r *memUserRepo) GetAvatar(_ context.Context, userID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || len(u.Avatar) == 0 {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), u.Avatar...), nil
}

// stored returns a snapshot of the persisted record, for assertions that
// must not go through the API surface.
func (r *memUserRepo) stored(id string) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

// memTaskRepo is an in-memory repository.TaskRepository. Creation timestamps
// are strictly increasing so sort order is deterministic.
type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*entity.Task
	base  time.Time
	seq   int
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: map[string]*entity.Task{}, base: time.Now()}
}

func (r *memTaskRepo) Create(_ context.Context, t *entity.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = r.base.Add(time.Duration(r.seq) * time.Millisecond)
	t.UpdatedAt = t.CreatedAt
	r.seq++
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *memTaskRepo) GetByOwner(_ context.Context, id, ownerID string) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTaskRepo) List(_ context.Context, f repository.TaskFilter) ([]*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Task
	for _, t := range r.tasks {
		if t.OwnerID != f.OwnerID {
			continue
		}
		if f.Completed != nil && t.Status != *f.Completed {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	less := func(a, b *entity.Task) bool {
		switch f.SortBy {
		case "title":
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case "status":
			if a.Status != b.Status {
				return !a.Status
			}
		case "updated_at":
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.SortDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memTaskRepo) Update(_ context.Context, t *entity.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[t.ID]
	if !ok || stored.OwnerID != t.OwnerID {
		return repository.ErrNotFound
	}
	stored.Title = t.Title
	stored.Status = t.Status
	stored.UpdatedAt = time.Now()
	t.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memTaskRepo) DeleteByOwner(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) DeleteAllByOwner(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tasks {
		if t.OwnerID == ownerID {
			delete(r.tasks, id)
		}
	}
	return nil
}

func (r *memTaskRepo) countByOwner(ownerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n
}

// capturePublisher records the email jobs the dispatcher publishes.
type capturePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func (p *capturePublisher) published() []mailer.EmailJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]mailer.EmailJob(nil), p.jobs...)
}

type env struct {
	engine *gin.Engine
	users  *memUserRepo
	tasks  *memTaskRepo
	tokens *helpers.TokenManager
	mail   *capturePublisher

	// closeMail drains the dispatcher so published jobs can be asserted;
	// safe to call more than once.
	closeMail func()
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := newMemUserRepo()
	tasks := newMemTaskRepo()
	users.BeforeSave(application.EnsurePasswordHashed)
	users.BeforeDelete(application.CascadeDeleteTasks(tasks))

	tokens := helpers.NewTokenManager("test-secret")
	pub := &capturePublisher{}
	dispatch := mailer.NewDispatcher(pub, logger, 16)
	closeMail := sync.OnceFunc(dispatch.Close)
	t.Cleanup(closeMail)

	userSvc := application.NewUserService(users, tokens, dispatch, logger)
	taskSvc := application.NewTaskService(tasks)
	auth := middleware.Auth(users, tokens)

	engine := gin.New()
	reg := router.NewRegistry(engine, "/api")
	reg.Add(
		modules.NewUserModule(handlers.NewUserHandler(userSvc, logger), auth),
		modules.NewTaskModule(handlers.NewTaskHandler(taskSvc, logger), auth),
	)
	reg.RegisterAll()

	return &env{engine: engine, users: users, tasks: tasks, tokens: tokens, mail: pub, closeMail: closeMail}
}

type apiEnvelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var out apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

type sessionData struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

// register creates an account via the API and returns (userID, token).
func (e *env) register(t *testing.T, name, email, password string) (string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/users", "", gin.H{
		"name": name, "age": 30, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var data sessionData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	require.NotEmpty(t, data.User.ID)
	require.NotEmpty(t, data.Token)
	return data.User.ID, data.Token
}

// login authenticates via the API and returns the fresh session token.
func (e *env) login(t *testing.T, email, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/users/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	var data sessionData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	return data.Token
}

// createTask creates a task via the API and returns it.
func (e *env) createTask(t *testing.T, token, title string, status bool) taskData {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/tasks", token, gin.H{"title": title, "status": status})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var td taskData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &td))
	return td
}

type taskData struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    bool   `json:"status"`
	CreatedBy string `json:"created_by"`
}

// multipartBody builds a one-file multipart form under the "avatar" field.
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (e *env) uploadAvatar(t *testing.T, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/users/me/avatar", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}
