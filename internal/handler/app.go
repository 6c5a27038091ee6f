package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/gurkanbulca/dailytasks/internal/middleware"
)

// AppOptions configures the HTTP application.
type AppOptions struct {
	// SessionAuth guards the task routes when set.
	SessionAuth fiber.Handler
	// AccessLog enables per-request access logging.
	AccessLog bool
}

// NewApp builds the fiber application with middleware and all routes.
func NewApp(h *Handlers, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "dailytasks",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// Add middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-Id",
	}))
	app.Use(middleware.ClientInfoExtractor())

	h.setupRoutes(app, opts)
	return app
}

// setupRoutes configures all API routes.
func (h *Handlers) setupRoutes(app *fiber.App, opts AppOptions) {
	app.Get("/health", h.Health)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/register", h.Register)

	tasks := api.Group("/tasks")
	if opts.SessionAuth != nil {
		tasks.Use(opts.SessionAuth)
	}
	tasks.Get("/", h.ListTasks)
	tasks.Post("/", h.CreateTask)
	tasks.Get("/:id", h.GetTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)
}

// errorHandler answers errors that escaped the handlers. Only fiber errors
// keep their message; anything else is logged and hidden.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] %s %s: unhandled error: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(ErrorResponse{Error: message})
}
