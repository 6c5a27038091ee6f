// internal/middleware/auth.go
package middleware

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/dailytasks/pkg/auth"
	"github.com/gurkanbulca/dailytasks/pkg/security"
)

// Identity resolution errors
var (
	ErrMissingUserID   = errors.New("user id is required")
	ErrInvalidUserID   = errors.New("user id must be a positive integer")
	ErrSessionMismatch = errors.New("user id does not match session")
)

const localsSessionUserID = "session_user_id"

// SessionAuth validates signed session tokens on protected routes.
type SessionAuth struct {
	tokenManager *auth.TokenManager
}

// NewSessionAuth creates a new session token middleware
func NewSessionAuth(tokenManager *auth.TokenManager) *SessionAuth {
	return &SessionAuth{
		tokenManager: tokenManager,
	}
}

// Handler rejects requests without a valid bearer token and records the
// token's user for ResolveUserID.
func (a *SessionAuth) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		token, err := auth.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return unauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
		}

		claims, err := a.tokenManager.Validate(token)
		if err != nil {
			log.Printf("[security] event=%s severity=%s ip=%s reason=%q",
				security.EventTypeInvalidSession, security.DefaultSeverity(security.EventTypeInvalidSession), c.IP(), err)
			return unauthorized(c, "Invalid or expired session")
		}

		// Validate already checked the subject.
		userID, _ := claims.UserID()
		c.Locals(localsSessionUserID, userID)
		c.SetUserContext(WithUserID(c.UserContext(), userID))

		return c.Next()
	}
}

// ResolveUserID returns the user a task request acts for. Without a session
// the caller-asserted id is trusted as is; with a session the asserted id may
// be omitted but must match the session when present.
func ResolveUserID(c *fiber.Ctx, asserted string) (int64, error) {
	sessionID, hasSession := c.Locals(localsSessionUserID).(int64)

	asserted = strings.TrimSpace(asserted)
	if asserted == "" {
		if hasSession {
			return sessionID, nil
		}
		return 0, ErrMissingUserID
	}

	userID, err := ParseUserID(asserted)
	if err != nil {
		return 0, err
	}

	if hasSession && userID != sessionID {
		log.Printf("[security] event=%s severity=%s ip=%s session_user=%d asserted_user=%d",
			security.EventTypeSecurityAlert, security.SeverityHigh, c.IP(), sessionID, userID)
		return 0, ErrSessionMismatch
	}

	c.SetUserContext(WithUserID(c.UserContext(), userID))
	return userID, nil
}

// ParseUserID parses a positive decimal user id.
func ParseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidUserID
	}
	return id, nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}
