package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gurkanbulca/dailytasks/internal/models"
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxTitleLength       int
	MaxDescriptionLength int
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxTitleLength:       200,
		MaxDescriptionLength: 5000,
	}
}

func validateUserID(userID int64) error {
	if userID <= 0 {
		return invalid("userId", "must be a positive integer")
	}
	return nil
}

func validateTaskID(id int64) error {
	if id <= 0 {
		return invalid("id", "must be a positive integer")
	}
	return nil
}

func (v ValidationConfig) validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > v.MaxTitleLength {
		return invalid("title", fmt.Sprintf("must not exceed %d characters", v.MaxTitleLength))
	}
	return nil
}

func (v ValidationConfig) validateDescription(description string) error {
	if utf8.RuneCountInString(description) > v.MaxDescriptionLength {
		return invalid("description", fmt.Sprintf("must not exceed %d characters", v.MaxDescriptionLength))
	}
	return nil
}

func (v ValidationConfig) validateCreateTask(input CreateTaskInput) error {
	if err := validateUserID(input.UserID); err != nil {
		return err
	}
	if err := v.validateTitle(input.Title); err != nil {
		return err
	}
	if err := v.validateDescription(input.Description); err != nil {
		return err
	}
	if input.DueDate.IsZero() {
		return invalid("dueDate", "is required")
	}
	return nil
}

func (v ValidationConfig) validateUpdateTask(input UpdateTaskInput) error {
	if input.Title != nil {
		if err := v.validateTitle(*input.Title); err != nil {
			return err
		}
	}
	if input.Description != nil {
		if err := v.validateDescription(*input.Description); err != nil {
			return err
		}
	}
	if input.DueDate != nil && input.DueDate.IsZero() {
		return invalid("dueDate", "must be a valid date")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return invalid("status", fmt.Sprintf("must be one of %s", joinStatuses()))
	}
	return nil
}

func joinStatuses() string {
	names := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
