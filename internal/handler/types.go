package handler

import (
	"encoding/json"
	"time"

	"github.com/gurkanbulca/dailytasks/internal/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID int64 `json:"userId"`
}

// CreateTaskRequest accepts userId as a JSON number or numeric string.
type CreateTaskRequest struct {
	UserID      FlexibleID  `json:"userId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	DueDate     models.Date `json:"dueDate"`
}

// UpdateTaskRequest is a partial update. Absent and null fields are left as
// they are.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	DueDate     *models.Date   `json:"dueDate"`
	Status      *models.Status `json:"status"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// FlexibleID holds the raw text of an id sent as a number or a string.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}
