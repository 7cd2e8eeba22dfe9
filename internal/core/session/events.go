package session

import (
	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/internal/core/results"
)

// Event is an input to Transition.
type Event interface{ event() }

// Start begins a session with an already randomized trial order.
type Start struct {
	Order         plan.TrialOrder
	ParticipantID string
	SinkID        string
	Gap           plan.StimulusVariant
}

// Next records the current trial and advances to the next one.
type Next struct{}

// Previous replays the current trial.
type Previous struct{}

// Finish records the last trial and ends the session.
type Finish struct{}

// Abort ends the session without writing anything further.
type Abort struct{}

// PlaybackComplete signals the end of the stimulus opened with Token.
type PlaybackComplete struct{ Token uint64 }

// Stalled signals that the stimulus opened with Token did not complete in time.
type Stalled struct{ Token uint64 }

func (Start) event()            {}
func (Next) event()             {}
func (Previous) event()         {}
func (Finish) event()           {}
func (Abort) event()            {}
func (PlaybackComplete) event() {}
func (Stalled) event()          {}

// Effect is a command produced by Transition for the controller to carry out
// against its collaborators, in order.
type Effect interface{ effect() }

// Subscribe registers the controller for navigation events.
type Subscribe struct{}

// Unsubscribe removes all navigation subscriptions.
type Unsubscribe struct{}

// PrepareScoring resets the scoring UI at session start.
type PrepareScoring struct{}

// RecordScores reads the scores for trial Index and writes them to the sink.
type RecordScores struct {
	Index int
	Trial plan.Trial
	Mode  results.Mode
}

// StopPlayback stops whatever is currently playing.
type StopPlayback struct{}

// ReleasePlayback closes all media and releases player resources.
type ReleasePlayback struct{}

// OpenStimulus starts playback of Stimulus. Completion must be reported
// with the same Token.
type OpenStimulus struct {
	Token    uint64
	Stimulus plan.StimulusVariant
	Step     Step
}

// InitScoring prepares the scoring input for a new trial.
type InitScoring struct {
	Index int
	Total int
	Trial plan.Trial
}

// SetNavigation updates which navigation controls are enabled.
type SetNavigation struct {
	Prev   bool
	Next   bool
	IsLast bool
}

// Notice is an informational message for the participant.
type Notice struct {
	Title   string
	Message string
}

func (Subscribe) effect()       {}
func (Unsubscribe) effect()     {}
func (PrepareScoring) effect()  {}
func (RecordScores) effect()    {}
func (StopPlayback) effect()    {}
func (ReleasePlayback) effect() {}
func (OpenStimulus) effect()    {}
func (InitScoring) effect()     {}
func (SetNavigation) effect()   {}
func (Notice) effect()          {}
