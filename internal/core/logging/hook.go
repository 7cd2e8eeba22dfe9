package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook copies session_id and participant from the event context
// into the log event.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	if id := GetSessionID(ctx); id != "" {
		e.Str(string(sessionIDKey), id)
	}

	if p := GetParticipant(ctx); p != "" {
		e.Str(string(participantKey), p)
	}
}
