package logging

import "context"

type contextKey string

const (
	sessionIDKey   contextKey = "session_id"
	participantKey contextKey = "participant"
)

// WithSessionID adds a session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithParticipant adds the participant ID to the context.
func WithParticipant(ctx context.Context, participant string) context.Context {
	return context.WithValue(ctx, participantKey, participant)
}

// GetSessionID retrieves the session ID from the context.
// Returns empty string if not present.
func GetSessionID(ctx context.Context) string {
	return stringValue(ctx, sessionIDKey)
}

// GetParticipant retrieves the participant ID from the context.
// Returns empty string if not present.
func GetParticipant(ctx context.Context) string {
	return stringValue(ctx, participantKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
