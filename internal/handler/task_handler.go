package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/dailytasks/internal/middleware"
	"github.com/gurkanbulca/dailytasks/internal/models"
	"github.com/gurkanbulca/dailytasks/internal/service"
)

const headerUserID = "x-user-id"

// ListTasks handles GET /api/tasks?userId=&date=.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	userID, err := middleware.ResolveUserID(c, c.Query("userId"))
	if err != nil {
		return writeError(c, err)
	}

	var date *models.Date
	if raw := c.Query("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "date must be in YYYY-MM-DD format")
		}
		date = &d
	}

	tasks, err := h.tasks.List(c.UserContext(), userID, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tasks)
}

// CreateTask handles POST /api/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	userID, err := middleware.ResolveUserID(c, string(req.UserID))
	if err != nil {
		return writeError(c, err)
	}

	task, err := h.tasks.Create(c.UserContext(), service.CreateTaskInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTask handles GET /api/tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	id, userID, err := taskKey(c)
	if err != nil {
		return writeError(c, err)
	}

	task, err := h.tasks.Get(c.UserContext(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(task)
}

// UpdateTask handles PATCH /api/tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	id, userID, err := taskKey(c)
	if err != nil {
		return writeError(c, err)
	}

	var req UpdateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Update(c.UserContext(), id, userID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(task)
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, userID, err := taskKey(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.tasks.Delete(c.UserContext(), id, userID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// taskKey reads the (task id, user id) pair addressing a single task.
func taskKey(c *fiber.Ctx) (int64, int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, &service.ValidationError{Field: "id", Message: "must be a positive integer"}
	}

	userID, err := middleware.ResolveUserID(c, c.Get(headerUserID))
	if err != nil {
		return 0, 0, err
	}
	return id, userID, nil
}
