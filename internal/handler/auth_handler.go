package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if req.Username == "" || req.Password == "" {
		return respondError(c, fiber.StatusBadRequest, "Username and password are required")
	}

	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	resp := LoginResponse{
		ID:       result.User.ID,
		Username: result.User.Username,
		Token:    result.Token,
	}
	if result.Token != "" {
		resp.ExpiresAt = &result.ExpiresAt
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if req.Username == "" || req.Password == "" {
		return respondError(c, fiber.StatusBadRequest, "Username and password are required")
	}

	userID, err := h.auth.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{UserID: userID})
}
