// Package client talks to the task API and keeps the client-side view of a
// user's tasks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gurkanbulca/dailytasks/internal/models"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// NewTask is the payload for creating a task.
type NewTask struct {
	Title       string
	Description string
	DueDate     models.Date
}

// TaskPatch is a partial update. Nil fields are not sent.
type TaskPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	DueDate     *models.Date   `json:"dueDate,omitempty"`
	Status      *models.Status `json:"status,omitempty"`
}

// API is a typed client for the HTTP task API.
type API struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPI creates a client for baseURL. A nil httpClient gets a client with a
// 10s timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken sets the bearer token sent with task requests. Empty clears it.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) bearer() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Login authenticates and returns the session to persist.
func (a *API) Login(ctx context.Context, username, password string) (*Session, error) {
	var resp struct {
		ID        int64      `json:"id"`
		Username  string     `json:"username"`
		Token     string     `json:"token"`
		ExpiresAt *time.Time `json:"expiresAt"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}

	sess := &Session{ID: resp.ID, Username: resp.Username, Token: resp.Token, ExpiresAt: resp.ExpiresAt}
	if !sess.Valid() {
		return nil, errors.New("login response is missing the user")
	}
	return sess, nil
}

// Register creates an account and returns its id.
func (a *API) Register(ctx context.Context, username, password string) (int64, error) {
	var resp struct {
		UserID int64 `json:"userId"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/auth/register", nil, body, &resp); err != nil {
		return 0, err
	}
	return resp.UserID, nil
}

// ListTasks lists the user's tasks, optionally for one due date.
func (a *API) ListTasks(ctx context.Context, userID int64, date *models.Date) ([]models.Task, error) {
	q := url.Values{}
	q.Set("userId", strconv.FormatInt(userID, 10))
	if date != nil {
		q.Set("date", date.String())
	}

	var tasks []models.Task
	if err := a.do(ctx, http.MethodGet, "/api/tasks?"+q.Encode(), nil, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// CreateTask creates a task owned by userID.
func (a *API) CreateTask(ctx context.Context, userID int64, t NewTask) (*models.Task, error) {
	body := struct {
		UserID      int64       `json:"userId"`
		Title       string      `json:"title"`
		Description string      `json:"description,omitempty"`
		DueDate     models.Date `json:"dueDate"`
	}{userID, t.Title, t.Description, t.DueDate}

	var task models.Task
	if err := a.do(ctx, http.MethodPost, "/api/tasks", nil, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask fetches one task.
func (a *API) GetTask(ctx context.Context, userID, id int64) (*models.Task, error) {
	var task models.Task
	if err := a.do(ctx, http.MethodGet, taskPath(id), &userID, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies patch and returns the server's copy.
func (a *API) UpdateTask(ctx context.Context, userID, id int64, patch TaskPatch) (*models.Task, error) {
	var task models.Task
	if err := a.do(ctx, http.MethodPatch, taskPath(id), &userID, patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (a *API) DeleteTask(ctx context.Context, userID, id int64) error {
	return a.do(ctx, http.MethodDelete, taskPath(id), &userID, nil, nil)
}

func taskPath(id int64) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10)
}

func (a *API) do(ctx context.Context, method, path string, userID *int64, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != nil {
		req.Header.Set("x-user-id", strconv.FormatInt(*userID, 10))
	}
	if token := a.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError reads {"error": "..."} bodies and falls back to the status text
// for anything else.
func decodeError(code int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(code)
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: code, Message: msg}
}
