// Package evaluation runs a DSCQS session: it owns the session state,
// drives the playback host and scoring UI, and records scores.
package evaluation

import (
	"context"
	"time"

	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/internal/core/results"
)

// Navigation is a participant action raised by the scoring UI.
type Navigation int

const (
	NavNext Navigation = iota
	NavPrevious
	NavFinish
	NavAbort
)

func (n Navigation) String() string {
	switch n {
	case NavNext:
		return "next"
	case NavPrevious:
		return "previous"
	case NavFinish:
		return "finish"
	case NavAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// ScoringUI collects scores from the participant.
type ScoringUI interface {
	// Prepare resets the UI at session start.
	Prepare()
	// InitializeFor resets the score inputs for the trial at index.
	InitializeFor(index, total int, trial plan.Trial)
	// CurrentScores returns the participant's scores for the trial, one
	// record per stimulus (A and B).
	CurrentScores(index int, trial plan.Trial) ([]results.ScoreRecord, error)
	// SetNavigation enables or disables the navigation controls.
	SetNavigation(prev, next, isLast bool)
	// Subscribe registers fn for navigation events and returns a function
	// that removes the subscription.
	Subscribe(fn func(Navigation)) (unsubscribe func())
}

// Notifier shows informational messages to the participant.
type Notifier interface {
	Notify(title, message string)
}

// SessionInfo describes a started session.
type SessionInfo struct {
	ID            string
	ParticipantID string
	SinkID        string
	Seed          uint64
	FixedPrefix   int
	Trials        int
	StartedAt     time.Time
}

// Outcome describes how a session ended.
type Outcome struct {
	Aborted  bool
	Recorded int
	EndedAt  time.Time
}

// Journal keeps a history of sessions. It is optional; failures are logged
// and never interrupt the session.
type Journal interface {
	SessionStarted(ctx context.Context, info SessionInfo) error
	SessionEnded(ctx context.Context, id string, outcome Outcome) error
}
