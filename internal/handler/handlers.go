package handler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/dailytasks/internal/middleware"
	"github.com/gurkanbulca/dailytasks/internal/models"
	"github.com/gurkanbulca/dailytasks/internal/service"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	tasks *service.TaskService
	auth  *service.AuthService
	db    Pinger
}

// NewHandlers creates a new Handlers instance. db may be nil, in which case
// /health only reports that the process is up.
func NewHandlers(tasks *service.TaskService, auth *service.AuthService, db Pinger) *Handlers {
	return &Handlers{
		tasks: tasks,
		auth:  auth,
		db:    db,
	}
}

// writeError maps service and identity errors to status codes. Storage
// failures are logged with detail and answered generically.
func writeError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		return respondError(c, fiber.StatusBadRequest, verr.Error())
	case errors.Is(err, middleware.ErrMissingUserID):
		return respondError(c, fiber.StatusBadRequest, "User ID is required")
	case errors.Is(err, middleware.ErrInvalidUserID):
		return respondError(c, fiber.StatusBadRequest, "User ID must be a positive integer")
	case errors.Is(err, middleware.ErrSessionMismatch):
		return respondError(c, fiber.StatusUnauthorized, "User ID does not match session")
	case errors.Is(err, service.ErrInvalidCredentials):
		return respondError(c, fiber.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, service.ErrConflict):
		return respondError(c, fiber.StatusConflict, "Username already exists")
	case errors.Is(err, service.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, "Task not found")
	}

	log.Printf("[api] %s %s failed: %v", c.Method(), c.Path(), err)
	return respondError(c, fiber.StatusInternalServerError, "Internal server error")
}

// parseBody decodes the JSON body into dst. The returned error is already
// shaped for errorHandler.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		if errors.Is(err, models.ErrInvalidDate) {
			return fiber.NewError(fiber.StatusBadRequest, "dueDate must be a date in YYYY-MM-DD format")
		}
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func respondError(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(ErrorResponse{Error: message})
}

// Health reports process and database health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON(HealthResponse{Status: "healthy"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		log.Printf("[health] database ping failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{Status: "unhealthy", Database: "down"})
	}
	return c.JSON(HealthResponse{Status: "healthy", Database: "up"})
}
