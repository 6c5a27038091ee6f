// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gurkanbulca/dailytasks/internal/models"
	"github.com/gurkanbulca/dailytasks/internal/repository"
)

// TaskRepository is the storage the task service needs.
type TaskRepository interface {
	List(ctx context.Context, filter repository.ListFilter) ([]*models.Task, error)
	Create(ctx context.Context, t *repository.TaskInput) (*models.Task, error)
	GetByID(ctx context.Context, id, userID int64) (*models.Task, error)
	Update(ctx context.Context, id, userID int64, input *repository.TaskUpdateInput) (*models.Task, error)
	Delete(ctx context.Context, id, userID int64) error
}

// CreateTaskInput is a new task for UserID.
type CreateTaskInput struct {
	UserID      int64
	Title       string
	Description string
	DueDate     models.Date
}

// UpdateTaskInput is a partial update; nil fields are left as they are.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *models.Date
	Status      *models.Status
}

// TaskService implements task CRUD scoped to the owning user. Input is
// validated before any storage call.
type TaskService struct {
	repo           TaskRepository
	securityLogger *SecurityLogger
	validation     ValidationConfig
}

func NewTaskService(repo TaskRepository, securityLogger *SecurityLogger) *TaskService {
	return &TaskService{
		repo:           repo,
		securityLogger: securityLogger,
		validation:     DefaultValidationConfig(),
	}
}

// List returns the user's tasks, restricted to one due date when date is set.
func (s *TaskService) List(ctx context.Context, userID int64, date *models.Date) ([]*models.Task, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if date != nil && date.IsZero() {
		return nil, invalid("date", "must be a valid date")
	}

	tasks, err := s.repo.List(ctx, repository.ListFilter{UserID: userID, DueDate: date})
	if err != nil {
		return nil, storageError("list tasks", err)
	}
	return tasks, nil
}

// Create stores a new pending task.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if err := s.validation.validateCreateTask(input); err != nil {
		return nil, err
	}

	task, err := s.repo.Create(ctx, &repository.TaskInput{
		UserID:      input.UserID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
	})
	if err != nil {
		return nil, storageError("create task", err)
	}
	return task, nil
}

// Get returns the task if userID owns it. A task owned by someone else is
// reported exactly like a missing one.
func (s *TaskService) Get(ctx context.Context, id, userID int64) (*models.Task, error) {
	if err := validateTaskID(id); err != nil {
		return nil, err
	}
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	task, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, s.lookupError(ctx, "get", id, userID, err)
	}
	return task, nil
}

// Update applies a partial update and returns the merged task.
func (s *TaskService) Update(ctx context.Context, id, userID int64, input UpdateTaskInput) (*models.Task, error) {
	if err := validateTaskID(id); err != nil {
		return nil, err
	}
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := s.validation.validateUpdateTask(input); err != nil {
		return nil, err
	}

	patch := &repository.TaskUpdateInput{
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      input.Status,
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		patch.Title = &title
	}

	task, err := s.repo.Update(ctx, id, userID, patch)
	if err != nil {
		return nil, s.lookupError(ctx, "update", id, userID, err)
	}
	return task, nil
}

// Delete removes the task. Deleting it again reports ErrNotFound.
func (s *TaskService) Delete(ctx context.Context, id, userID int64) error {
	if err := validateTaskID(id); err != nil {
		return err
	}
	if err := validateUserID(userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return s.lookupError(ctx, "delete", id, userID, err)
	}
	return nil
}

func (s *TaskService) lookupError(ctx context.Context, op string, id, userID int64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		s.securityLogger.LogOwnershipMiss(ctx, userID, id, op)
		return ErrNotFound
	}
	return storageError(op+" task", err)
}
