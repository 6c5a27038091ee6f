// pkg/security/event_types.go
package security

import (
	"fmt"
	"slices"
)

// EventType constants for string-based event type handling
const (
	EventTypeLoginSuccess       = "login_success"
	EventTypeLoginFailed        = "login_failed"
	EventTypeUserRegistered     = "user_registered"
	EventTypeRegistrationFailed = "registration_failed"
	EventTypeOwnershipMiss      = "ownership_miss"
	EventTypeInvalidSession     = "invalid_session"
	EventTypeSecurityAlert      = "security_alert"
)

// Severity constants for string-based severity handling
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

var defaultSeverity = map[string]string{
	EventTypeLoginSuccess:       SeverityLow,
	EventTypeLoginFailed:        SeverityMedium,
	EventTypeUserRegistered:     SeverityLow,
	EventTypeRegistrationFailed: SeverityLow,
	EventTypeOwnershipMiss:      SeverityMedium,
	EventTypeInvalidSession:     SeverityMedium,
	EventTypeSecurityAlert:      SeverityHigh,
}

// ParseEventType checks eventType against the known vocabulary.
func ParseEventType(eventType string) (string, error) {
	if _, ok := defaultSeverity[eventType]; !ok {
		return "", fmt.Errorf("unknown event type: %s", eventType)
	}
	return eventType, nil
}

// ParseSeverity checks severity against the known levels.
func ParseSeverity(severity string) (string, error) {
	if !slices.Contains(ValidSeverities(), severity) {
		return "", fmt.Errorf("unknown severity: %s", severity)
	}
	return severity, nil
}

// DefaultSeverity returns the severity an event is logged with unless the
// caller overrides it. Unknown events are treated as medium.
func DefaultSeverity(eventType string) string {
	if s, ok := defaultSeverity[eventType]; ok {
		return s
	}
	return SeverityMedium
}

// ValidEventTypes returns all valid event type strings
func ValidEventTypes() []string {
	return []string{
		EventTypeLoginSuccess,
		EventTypeLoginFailed,
		EventTypeUserRegistered,
		EventTypeRegistrationFailed,
		EventTypeOwnershipMiss,
		EventTypeInvalidSession,
		EventTypeSecurityAlert,
	}
}

// ValidSeverities returns all valid severity strings
func ValidSeverities() []string {
	return []string{
		SeverityLow,
		SeverityMedium,
		SeverityHigh,
		SeverityCritical,
	}
}

// IsValidEventType checks if the event type string is valid
func IsValidEventType(eventType string) bool {
	_, err := ParseEventType(eventType)
	return err == nil
}

// IsValidSeverity checks if the severity string is valid
func IsValidSeverity(severity string) bool {
	_, err := ParseSeverity(severity)
	return err == nil
}
