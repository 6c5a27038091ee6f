// internal/middleware/context_extractor.go
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// ContextKeys for storing request metadata
type ContextKey string

const (
	ContextKeyIPAddress ContextKey = "ip_address"
	ContextKeyUserAgent ContextKey = "user_agent"
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyUserID    ContextKey = "user_id"
)

// ClientInfoExtractor copies the caller's address, user agent and request id
// into the request's user context so that services can read them without
// depending on fiber. Register it after the requestid middleware.
func ClientInfoExtractor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if ip := c.IP(); ip != "" {
			ctx = context.WithValue(ctx, ContextKeyIPAddress, ip)
		}

		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			ctx = context.WithValue(ctx, ContextKeyUserAgent, ua)
		}

		if rid := c.GetRespHeader(fiber.HeaderXRequestID); rid != "" {
			ctx = context.WithValue(ctx, ContextKeyRequestID, rid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// WithUserID returns a copy of ctx carrying the resolved user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// Helper functions to extract values from context

// GetIPAddressFromContext extracts IP address from context
func GetIPAddressFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyIPAddress).(string); ok {
		return ip
	}
	return ""
}

// GetUserAgentFromContext extracts user agent from context
func GetUserAgentFromContext(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

func GetRequestIDFromContext(ctx context.Context) string {
	if rid, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return rid
	}
	return ""
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(int64)
	return userID, ok
}

// ClientInfo is the request metadata available to services.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
	UserID    int64
}

// GetClientInfoFromContext extracts all client information from context
func GetClientInfoFromContext(ctx context.Context) *ClientInfo {
	info := &ClientInfo{
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		RequestID: GetRequestIDFromContext(ctx),
	}

	if userID, ok := GetUserIDFromContext(ctx); ok {
		info.UserID = userID
	}

	return info
}
