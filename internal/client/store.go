package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gurkanbulca/dailytasks/internal/models"
)

// ErrNotLoggedIn is returned by task operations before Login or Init found a
// session.
var ErrNotLoggedIn = errors.New("not logged in")

// State is a copy of what the store currently shows.
type State struct {
	User    *Session
	Date    *models.Date
	Tasks   []models.Task
	Current *models.Task
	Loading bool
	Err     error
}

// TaskStore holds the client-side view of one user's tasks. The mutex guards
// state only and is never held across an API call.
type TaskStore struct {
	api      *API
	sessions SessionStore
	now      func() time.Time

	mu          sync.Mutex
	initialized bool
	session     *Session
	date        *models.Date
	tasks       []models.Task
	current     *models.Task
	loading     bool
	lastErr     error
	generation  uint64
}

func NewTaskStore(api *API, sessions SessionStore) *TaskStore {
	return &TaskStore{
		api:      api,
		sessions: sessions,
		now:      time.Now,
		tasks:    []models.Task{},
	}
}

// Init restores the saved session. Only the first call reads the store.
func (s *TaskStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true

	sess, err := s.sessions.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if sess.ExpiresAt != nil && !s.now().Before(*sess.ExpiresAt) {
		return s.sessions.Clear()
	}

	s.session = sess
	s.api.SetToken(sess.Token)
	return nil
}

// Login authenticates and persists the session. A failed login leaves the
// store logged out.
func (s *TaskStore) Login(ctx context.Context, username, password string) (*Session, error) {
	sess, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.reset()
		if cerr := s.sessions.Clear(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return nil, err
	}

	if err := s.sessions.Save(sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.clearLocked()
	s.initialized = true
	s.session = sess
	s.mu.Unlock()

	s.api.SetToken(sess.Token)
	return sess, nil
}

// Register creates an account without logging in.
func (s *TaskStore) Register(ctx context.Context, username, password string) (int64, error) {
	return s.api.Register(ctx, username, password)
}

// Logout forgets the session and all task state.
func (s *TaskStore) Logout() error {
	s.reset()
	return s.sessions.Clear()
}

func (s *TaskStore) reset() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.api.SetToken("")
}

func (s *TaskStore) clearLocked() {
	s.session = nil
	s.date = nil
	s.tasks = []models.Task{}
	s.current = nil
	s.loading = false
	s.lastErr = nil
	s.generation++
}

// State returns a copy of the current state.
func (s *TaskStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Tasks:   slices.Clone(s.tasks),
		Loading: s.loading,
		Err:     s.lastErr,
	}
	if s.session != nil {
		sess := *s.session
		st.User = &sess
	}
	if s.date != nil {
		d := *s.date
		st.Date = &d
	}
	if s.current != nil {
		t := *s.current
		st.Current = &t
	}
	return st
}

func (s *TaskStore) userID() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return 0, ErrNotLoggedIn
	}
	return s.session.ID, nil
}

// SelectDate sets the due date filter and reloads the list. Nil shows every
// task.
func (s *TaskStore) SelectDate(ctx context.Context, date *models.Date) error {
	s.mu.Lock()
	if date != nil {
		d := *date
		s.date = &d
	} else {
		s.date = nil
	}
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Refresh reloads the list for the current filter. On failure the previous
// list is kept and the error recorded.
func (s *TaskStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	userID := s.session.ID
	var date *models.Date
	if s.date != nil {
		d := *s.date
		date = &d
	}
	s.generation++
	gen := s.generation
	s.loading = true
	s.mu.Unlock()

	tasks, err := s.api.ListTasks(ctx, userID, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer refresh or a logout superseded this one.
	if gen != s.generation {
		return err
	}
	s.loading = false
	if err != nil {
		s.lastErr = err
		return err
	}
	s.tasks = tasks
	s.lastErr = nil
	return nil
}

// OpenTask loads one task as the current task.
func (s *TaskStore) OpenTask(ctx context.Context, id int64) (*models.Task, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}

	task, err := s.api.GetTask(ctx, userID, id)
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	s.mu.Lock()
	t := *task
	s.current = &t
	s.lastErr = nil
	s.mu.Unlock()
	return task, nil
}

// ChangeStatus shows the new status immediately and reverts it if the server
// rejects the update. Only the changed task is reverted, and only while it
// still shows the optimistic status.
func (s *TaskStore) ChangeStatus(ctx context.Context, id int64, status models.Status) (*models.Task, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	userID := s.session.ID

	var (
		listPrev    models.Status
		currentPrev models.Status
	)
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			listPrev = s.tasks[i].Status
			s.tasks[i].Status = status
		}
	}
	if s.current != nil && s.current.ID == id {
		currentPrev = s.current.Status
		s.current.Status = status
	}
	s.mu.Unlock()

	task, err := s.api.UpdateTask(ctx, userID, id, TaskPatch{Status: &status})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		for i := range s.tasks {
			if s.tasks[i].ID == id && s.tasks[i].Status == status && listPrev != "" {
				s.tasks[i].Status = listPrev
			}
		}
		if s.current != nil && s.current.ID == id && s.current.Status == status && currentPrev != "" {
			s.current.Status = currentPrev
		}
		s.lastErr = err
		return nil, err
	}
	s.applyLocked(*task)
	s.lastErr = nil
	return task, nil
}

// CreateTask creates a task and reloads the list when the new task belongs
// in it.
func (s *TaskStore) CreateTask(ctx context.Context, t NewTask) (*models.Task, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}

	task, err := s.api.CreateTask(ctx, userID, t)
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	s.mu.Lock()
	visible := s.date == nil || *s.date == task.DueDate
	s.mu.Unlock()

	if visible {
		if err := s.Refresh(ctx); err != nil {
			return task, err
		}
	}
	return task, nil
}

// SaveTask applies an edit and updates the list and current task with the
// server's copy.
func (s *TaskStore) SaveTask(ctx context.Context, id int64, patch TaskPatch) (*models.Task, error) {
	userID, err := s.userID()
	if err != nil {
		return nil, err
	}

	task, err := s.api.UpdateTask(ctx, userID, id, patch)
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	s.mu.Lock()
	s.applyLocked(*task)
	if s.date != nil && *s.date != task.DueDate {
		s.removeLocked(id)
	}
	s.lastErr = nil
	s.mu.Unlock()
	return task, nil
}

// DeleteTask deletes a task and drops it from the local list.
func (s *TaskStore) DeleteTask(ctx context.Context, id int64) error {
	userID, err := s.userID()
	if err != nil {
		return err
	}

	if err := s.api.DeleteTask(ctx, userID, id); err != nil {
		s.recordError(err)
		return err
	}

	s.mu.Lock()
	s.removeLocked(id)
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

func (s *TaskStore) applyLocked(task models.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
		}
	}
	if s.current != nil && s.current.ID == task.ID {
		t := task
		s.current = &t
	}
}

func (s *TaskStore) removeLocked(id int64) {
	s.tasks = slices.DeleteFunc(s.tasks, func(t models.Task) bool { return t.ID == id })
}

func (s *TaskStore) recordError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
