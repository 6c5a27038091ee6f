package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gurkanbulca/dailytasks/internal/database/dbtest"
	"github.com/gurkanbulca/dailytasks/internal/handler"
	"github.com/gurkanbulca/dailytasks/internal/middleware"
	"github.com/gurkanbulca/dailytasks/internal/models"
	"github.com/gurkanbulca/dailytasks/internal/repository"
	"github.com/gurkanbulca/dailytasks/internal/service"
	"github.com/gurkanbulca/dailytasks/pkg/auth"
)

var (
	march1 = models.NewDate(2024, time.March, 1)
	march2 = models.NewDate(2024, time.March, 2)
)

// newBackend serves the real API over HTTP. wrap, when set, can intercept
// requests before they reach the API.
func newBackend(t *testing.T, tokenMode bool, wrap func(next http.Handler) http.Handler) string {
	t.Helper()

	db := dbtest.Open(t)
	securityLogger := service.NewSecurityLogger(log.New(io.Discard, "", 0))
	policy := auth.DefaultPasswordPolicy()
	policy.Cost = bcrypt.MinCost

	var tokens *auth.TokenManager
	var opts handler.AppOptions
	if tokenMode {
		tokens = auth.NewTokenManager("client-test-secret", time.Hour)
		opts.SessionAuth = middleware.NewSessionAuth(tokens).Handler()
	}

	app := handler.NewApp(handler.NewHandlers(
		service.NewTaskService(repository.NewTaskRepository(db), securityLogger),
		service.NewAuthService(repository.NewUserRepository(db), auth.NewPasswordManager(policy), tokens, securityLogger),
		db,
	), opts)

	var h http.Handler = adaptor.FiberApp(app)
	if wrap != nil {
		h = wrap(h)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func loggedInStore(t *testing.T, baseURL string) *TaskStore {
	t.Helper()
	ctx := context.Background()

	store := NewTaskStore(NewAPI(baseURL, nil), &MemorySession{})
	_, err := store.Register(ctx, "testuser", "password123")
	require.NoError(t, err)
	_, err = store.Login(ctx, "testuser", "password123")
	require.NoError(t, err)
	return store
}

// countLists counts GET /api/tasks requests.
func countLists(n *atomic.Int32) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && r.URL.Path == "/api/tasks" {
				n.Add(1)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	var lists atomic.Int32
	store := loggedInStore(t, newBackend(t, false, countLists(&lists)))

	require.NoError(t, store.SelectDate(ctx, &march1))
	assert.Empty(t, store.State().Tasks)

	listsBefore := lists.Load()
	created, err := store.CreateTask(ctx, NewTask{Title: "Pay rent", DueDate: march1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status)

	// Matches the filter, so the list was reloaded.
	assert.Equal(t, listsBefore+1, lists.Load())
	st := store.State()
	require.Len(t, st.Tasks, 1)
	assert.Equal(t, created.ID, st.Tasks[0].ID)

	// Another day: created but not shown, and no reload.
	listsBefore = lists.Load()
	other, err := store.CreateTask(ctx, NewTask{Title: "Dentist", DueDate: march2})
	require.NoError(t, err)
	assert.Equal(t, listsBefore, lists.Load())
	assert.Len(t, store.State().Tasks, 1)

	opened, err := store.OpenTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pay rent", opened.Title)

	updated, err := store.ChangeStatus(ctx, created.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	st = store.State()
	assert.Equal(t, models.StatusCompleted, st.Tasks[0].Status)
	assert.Equal(t, models.StatusCompleted, st.Current.Status)

	// Moving the task off the selected day drops it from the list.
	_, err = store.SaveTask(ctx, created.ID, TaskPatch{DueDate: &march2})
	require.NoError(t, err)
	assert.Empty(t, store.State().Tasks)

	require.NoError(t, store.SelectDate(ctx, nil))
	assert.Len(t, store.State().Tasks, 2)

	require.NoError(t, store.DeleteTask(ctx, other.ID))
	st = store.State()
	require.Len(t, st.Tasks, 1)
	assert.Equal(t, created.ID, st.Tasks[0].ID)

	_, err = store.OpenTask(ctx, other.ID)
	assert.True(t, IsNotFound(err))
}

func TestChangeStatusRollsBack(t *testing.T) {
	ctx := context.Background()
	failPatch := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPatch {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	store := loggedInStore(t, newBackend(t, false, failPatch))

	task, err := store.CreateTask(ctx, NewTask{Title: "Pay rent", DueDate: march1})
	require.NoError(t, err)
	_, err = store.OpenTask(ctx, task.ID)
	require.NoError(t, err)

	_, err = store.ChangeStatus(ctx, task.ID, models.StatusCompleted)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Internal server error", apiErr.Message)

	st := store.State()
	require.Len(t, st.Tasks, 1)
	assert.Equal(t, models.StatusPending, st.Tasks[0].Status)
	assert.Equal(t, models.StatusPending, st.Current.Status)
	assert.Equal(t, err, st.Err)
}

func TestFailedStatusChangeKeepsOverlappingChange(t *testing.T) {
	ctx := context.Background()
	var blocked atomic.Int64
	arrived := make(chan struct{})
	release := make(chan struct{})
	holdThenFail := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPatch && r.URL.Path == fmt.Sprintf("/api/tasks/%d", blocked.Load()) {
				close(arrived)
				<-release
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	store := loggedInStore(t, newBackend(t, false, holdThenFail))

	first, err := store.CreateTask(ctx, NewTask{Title: "Pay rent", DueDate: march1})
	require.NoError(t, err)
	second, err := store.CreateTask(ctx, NewTask{Title: "Dentist", DueDate: march1})
	require.NoError(t, err)
	require.Len(t, store.State().Tasks, 2)
	blocked.Store(first.ID)

	failed := make(chan error, 1)
	go func() {
		_, err := store.ChangeStatus(ctx, first.ID, models.StatusCompleted)
		failed <- err
	}()

	<-arrived
	_, err = store.ChangeStatus(ctx, second.ID, models.StatusCompleted)
	require.NoError(t, err)

	close(release)
	require.Error(t, <-failed)

	byID := map[int64]models.Status{}
	for _, task := range store.State().Tasks {
		byID[task.ID] = task.Status
	}
	assert.Equal(t, models.StatusPending, byID[first.ID], "failed change is reverted")
	assert.Equal(t, models.StatusCompleted, byID[second.ID], "overlapping change survives the revert")

	server, err := store.api.GetTask(ctx, store.State().User.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, server.Status)
}

func TestRefreshKeepsListOnFailure(t *testing.T) {
	ctx := context.Background()
	var down atomic.Bool
	flaky := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if down.Load() && r.Method == http.MethodGet {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	store := loggedInStore(t, newBackend(t, false, flaky))

	_, err := store.CreateTask(ctx, NewTask{Title: "Pay rent", DueDate: march1})
	require.NoError(t, err)
	require.Len(t, store.State().Tasks, 1)

	down.Store(true)
	err = store.Refresh(ctx)
	require.Error(t, err)
	st := store.State()
	assert.Len(t, st.Tasks, 1)
	assert.False(t, st.Loading)
	assert.Error(t, st.Err)

	down.Store(false)
	require.NoError(t, store.Refresh(ctx))
	assert.NoError(t, store.State().Err)
}

func TestLoginFailureClearsSession(t *testing.T) {
	ctx := context.Background()
	sessions := &MemorySession{}
	require.NoError(t, sessions.Save(&Session{ID: 7, Username: "stale"}))

	store := NewTaskStore(NewAPI(newBackend(t, false, nil), nil), sessions)
	_, err := store.Login(ctx, "nobody", "password123")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid username or password", apiErr.Message)

	sess, err := sessions.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Nil(t, store.State().User)
}

func TestInitAndLogout(t *testing.T) {
	ctx := context.Background()
	baseURL := newBackend(t, true, nil)
	sessions := &MemorySession{}

	first := NewTaskStore(NewAPI(baseURL, nil), sessions)
	_, err := first.Register(ctx, "testuser", "password123")
	require.NoError(t, err)
	sess, err := first.Login(ctx, "testuser", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	// A second store picks up the saved session, token included.
	second := NewTaskStore(NewAPI(baseURL, nil), sessions)
	require.NoError(t, second.Init())
	require.NotNil(t, second.State().User)
	_, err = second.CreateTask(ctx, NewTask{Title: "Pay rent", DueDate: march1})
	require.NoError(t, err)
	assert.Len(t, second.State().Tasks, 1)

	require.NoError(t, second.Logout())
	st := second.State()
	assert.Nil(t, st.User)
	assert.Empty(t, st.Tasks)
	assert.ErrorIs(t, second.Refresh(ctx), ErrNotLoggedIn)

	third := NewTaskStore(NewAPI(baseURL, nil), sessions)
	require.NoError(t, third.Init())
	assert.Nil(t, third.State().User)
}

func TestInitDropsExpiredSession(t *testing.T) {
	sessions := &MemorySession{}
	expired := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sessions.Save(&Session{
		ID: 1, Username: "testuser", Token: "old", ExpiresAt: &expired,
	}))

	store := NewTaskStore(NewAPI("http://unused", nil), sessions)
	store.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, store.Init())
	assert.Nil(t, store.State().User)

	sess, err := sessions.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestOperationsRequireLogin(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore(NewAPI("http://unused", nil), &MemorySession{})
	require.NoError(t, store.Init())

	_, err := store.CreateTask(ctx, NewTask{Title: "x", DueDate: march1})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = store.ChangeStatus(ctx, 1, models.StatusCompleted)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.ErrorIs(t, store.DeleteTask(ctx, 1), ErrNotLoggedIn)
}
