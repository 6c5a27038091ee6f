// internal/service/security_logger.go
package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gurkanbulca/dailytasks/internal/middleware"
	"github.com/gurkanbulca/dailytasks/pkg/security"
)

// SecurityLogger writes security events as single structured log lines,
// enriched with the client information found in the context.
type SecurityLogger struct {
	logger *log.Logger
}

// NewSecurityLogger creates a new security logger. A nil logger writes to the
// standard logger.
func NewSecurityLogger(logger *log.Logger) *SecurityLogger {
	if logger == nil {
		logger = log.Default()
	}
	return &SecurityLogger{
		logger: logger,
	}
}

// LogFromContext logs a security event for userID using context information.
// A zero userID marks an event without a known user.
func (sl *SecurityLogger) LogFromContext(ctx context.Context, userID int64, eventType, description string) {
	if !security.IsValidEventType(eventType) {
		description = fmt.Sprintf("unknown event %q: %s", eventType, description)
		eventType = security.EventTypeSecurityAlert
	}
	clientInfo := middleware.GetClientInfoFromContext(ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "[security] event=%s severity=%s", eventType, security.DefaultSeverity(eventType))
	if userID > 0 {
		fmt.Fprintf(&b, " user_id=%d", userID)
	}
	if clientInfo.IPAddress != "" {
		fmt.Fprintf(&b, " ip=%s", clientInfo.IPAddress)
	}
	if clientInfo.UserAgent != "" {
		fmt.Fprintf(&b, " user_agent=%q", clientInfo.UserAgent)
	}
	if clientInfo.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", clientInfo.RequestID)
	}
	fmt.Fprintf(&b, " msg=%q", description)

	sl.logger.Print(b.String())
}

// LogSystemFromContext logs a security event that has no known user
func (sl *SecurityLogger) LogSystemFromContext(ctx context.Context, eventType, description string) {
	sl.LogFromContext(ctx, 0, eventType, description)
}

// Convenience methods for common security events

func (sl *SecurityLogger) LogLoginSuccess(ctx context.Context, userID int64) {
	sl.LogFromContext(ctx, userID, security.EventTypeLoginSuccess, "User successfully logged in")
}

// LogLoginFailed records the internal reason; callers never expose it.
func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, username, reason string) {
	sl.LogSystemFromContext(ctx, security.EventTypeLoginFailed,
		fmt.Sprintf("Login failed for %s: %s", username, reason))
}

func (sl *SecurityLogger) LogUserRegistered(ctx context.Context, userID int64) {
	sl.LogFromContext(ctx, userID, security.EventTypeUserRegistered, "User registered")
}

func (sl *SecurityLogger) LogRegistrationFailed(ctx context.Context, username, reason string) {
	sl.LogSystemFromContext(ctx, security.EventTypeRegistrationFailed,
		fmt.Sprintf("Registration failed for %s: %s", username, reason))
}

// LogOwnershipMiss records a task lookup that matched no row for the user.
func (sl *SecurityLogger) LogOwnershipMiss(ctx context.Context, userID, taskID int64, op string) {
	sl.LogFromContext(ctx, userID, security.EventTypeOwnershipMiss,
		fmt.Sprintf("%s task %d: no task owned by user", op, taskID))
}
