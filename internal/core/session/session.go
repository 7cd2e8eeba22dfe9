// Package session defines the evaluation session state and the pure
// transition function that drives it.
package session

import (
	"errors"
	"fmt"

	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/internal/core/results"
)

// ErrOutOfState is returned when an event is not valid in the current phase.
// The event has no effect.
var ErrOutOfState = errors.New("event not valid in current state")

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseNotStarted Phase = iota
	// PhasePresenting means a stimulus of the current trial is playing.
	PhasePresenting
	// PhaseAwaitingScore means the trial has been shown and is waiting for Next.
	PhaseAwaitingScore
	// PhaseAwaitingFinish is AwaitingScore on the last trial.
	PhaseAwaitingFinish
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhasePresenting:
		return "presenting"
	case PhaseAwaitingScore:
		return "awaiting-score"
	case PhaseAwaitingFinish:
		return "awaiting-finish"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Active reports whether navigation events are accepted.
func (p Phase) Active() bool {
	return p == PhasePresenting || p == PhaseAwaitingScore || p == PhaseAwaitingFinish
}

// Step is the position inside the presentation sequence of a trial.
type Step int

const (
	StepA Step = iota
	StepGap
	StepB
)

func (s Step) String() string {
	switch s {
	case StepA:
		return "A"
	case StepGap:
		return "gap"
	case StepB:
		return "B"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// State is everything held across a session's lifetime. It is a value
// type; Transition returns a new State rather than mutating its input.
type State struct {
	Phase         Phase
	Order         plan.TrialOrder
	Index         int // -1 until the first trial is presented
	Step          Step
	Token         uint64 // identifies the most recent stimulus open
	ParticipantID string
	SinkID        string
	Gap           plan.StimulusVariant
	Recorded      int // trials written to the results sink
	Subscribed    bool
	Stalled       bool
	Aborted       bool
}

// New returns a session that has not been started.
func New() State {
	return State{Phase: PhaseNotStarted, Index: -1}
}

// Total returns the number of trials.
func (s State) Total() int { return len(s.Order) }

// IsLast reports whether the current trial is the final one.
func (s State) IsLast() bool { return s.Index >= 0 && s.Index == len(s.Order)-1 }

// Current returns the current trial. ok is false before the first trial.
func (s State) Current() (plan.Trial, bool) {
	if s.Index < 0 || s.Index >= len(s.Order) {
		return plan.Trial{}, false
	}
	return s.Order[s.Index], true
}

// recordMode returns the sink mode for writing the trial at index. The
// first trial creates the sink; everything after it appends.
func recordMode(index int) results.Mode {
	if index == 0 {
		return results.ModeCreate
	}
	return results.ModeAppend
}
