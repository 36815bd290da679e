package ai

import (
	"context"

	"github.com/benvon/social-momentum/internal/logger"
	"github.com/google/uuid"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// MaxFullLogLength caps prompts and responses even in full debug logging
	MaxFullLogLength = 10000
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// WithUserID attaches the user a completion is made for, for debug logging
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ExtractUserID returns the user attached with WithUserID, or ""
func ExtractUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDContextKey).(uuid.UUID); ok {
		return id.String()
	}
	return ""
}

// SanitizeAPIKey sanitizes an API key for logging
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging
func SanitizePrompt(prompt string, fullLog bool) string {
	return preview(prompt, fullLog)
}

// SanitizeResponse creates a safe preview of a response for logging
func SanitizeResponse(response string, fullLog bool) string {
	return preview(response, fullLog)
}

func preview(s string, fullLog bool) string {
	if fullLog {
		return logger.SanitizeString(s, MaxFullLogLength)
	}
	return logger.SanitizeString(s, MaxPreviewLength)
}
