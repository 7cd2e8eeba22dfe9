package session

import (
	"fmt"

	"github.com/colonyops/dscqs/internal/core/plan"
)

// Notice texts shown to the participant.
const (
	LastTrialNotice = "Already the last video! Please press the Finish button."
	StalledNotice   = "Playback did not finish. Press Replay to show this trial again."
)

// Transition applies ev to s and returns the next state together with the
// effects the controller must carry out, in order. It has no side effects.
//
// Stale or mismatched playback signals yield (s, nil, nil). Events that are
// not valid in the current phase return ErrOutOfState with s unchanged.
func Transition(s State, ev Event) (State, []Effect, error) {
	switch ev := ev.(type) {
	case Start:
		return start(s, ev)
	case Next:
		return next(s)
	case Previous:
		return previous(s)
	case Finish:
		return finish(s)
	case Abort:
		return abort(s)
	case PlaybackComplete:
		return playbackComplete(s, ev.Token)
	case Stalled:
		return stalled(s, ev.Token)
	default:
		return s, nil, fmt.Errorf("unknown event %T", ev)
	}
}

func start(s State, ev Start) (State, []Effect, error) {
	if s.Phase != PhaseNotStarted {
		return s, nil, fmt.Errorf("start in %s: %w", s.Phase, ErrOutOfState)
	}
	if len(ev.Order) == 0 {
		return s, nil, fmt.Errorf("%w: trial order is empty", plan.ErrInvalidPlan)
	}

	ns := New()
	ns.Order = ev.Order
	ns.ParticipantID = ev.ParticipantID
	ns.SinkID = ev.SinkID
	ns.Gap = ev.Gap
	ns.Token = s.Token
	ns.Subscribed = true

	ns, effects := advance(ns)
	return ns, append([]Effect{Subscribe{}, PrepareScoring{}}, effects...), nil
}

func next(s State) (State, []Effect, error) {
	if !s.Phase.Active() {
		return s, nil, fmt.Errorf("next in %s: %w", s.Phase, ErrOutOfState)
	}

	if s.IsLast() {
		return s, []Effect{
			Notice{Title: "Message", Message: LastTrialNotice},
			SetNavigation{Prev: true, Next: false, IsLast: true},
		}, nil
	}

	trial, _ := s.Current()
	record := RecordScores{Index: s.Index, Trial: trial, Mode: recordMode(s.Index)}
	s.Recorded++

	ns, effects := advance(s)
	return ns, append([]Effect{record}, effects...), nil
}

func previous(s State) (State, []Effect, error) {
	if !s.Phase.Active() {
		return s, nil, fmt.Errorf("previous in %s: %w", s.Phase, ErrOutOfState)
	}

	trial, _ := s.Current()
	last := s.IsLast()

	s.Phase = PhasePresenting
	s.Step = StepA
	s.Token++
	s.Stalled = false

	return s, []Effect{
		StopPlayback{},
		SetNavigation{Prev: true, Next: !last, IsLast: last},
		Notice{Message: trial.A.Label()},
		OpenStimulus{Token: s.Token, Stimulus: trial.A, Step: StepA},
	}, nil
}

func finish(s State) (State, []Effect, error) {
	if !s.Phase.Active() || !s.IsLast() {
		return s, nil, fmt.Errorf("finish in %s at trial %d of %d: %w", s.Phase, s.Index+1, s.Total(), ErrOutOfState)
	}

	trial, _ := s.Current()
	effects := []Effect{
		RecordScores{Index: s.Index, Trial: trial, Mode: recordMode(s.Index)},
		Unsubscribe{},
		SetNavigation{},
		ReleasePlayback{},
	}

	s.Recorded++
	s.Phase = PhaseFinished
	s.Subscribed = false
	s.Stalled = false
	return s, effects, nil
}

func abort(s State) (State, []Effect, error) {
	if s.Phase == PhaseFinished {
		return s, nil, fmt.Errorf("abort in %s: %w", s.Phase, ErrOutOfState)
	}

	var effects []Effect
	if s.Subscribed {
		effects = append(effects, Unsubscribe{})
	}
	if s.Phase.Active() {
		effects = append(effects, SetNavigation{}, ReleasePlayback{})
	}

	s.Phase = PhaseFinished
	s.Subscribed = false
	s.Aborted = true
	return s, effects, nil
}

func playbackComplete(s State, token uint64) (State, []Effect, error) {
	if s.Phase != PhasePresenting || token != s.Token {
		return s, nil, nil
	}

	trial, _ := s.Current()
	switch s.Step {
	case StepA:
		s.Step = StepGap
		s.Token++
		return s, []Effect{
			Notice{Message: s.Gap.Label()},
			OpenStimulus{Token: s.Token, Stimulus: s.Gap, Step: StepGap},
		}, nil
	case StepGap:
		s.Step = StepB
		s.Token++
		return s, []Effect{
			Notice{Message: trial.B.Label()},
			OpenStimulus{Token: s.Token, Stimulus: trial.B, Step: StepB},
		}, nil
	default:
		s.Phase = awaiting(s)
		return s, nil, nil
	}
}

func stalled(s State, token uint64) (State, []Effect, error) {
	if s.Phase != PhasePresenting || token != s.Token {
		return s, nil, nil
	}

	s.Phase = awaiting(s)
	s.Stalled = true
	return s, []Effect{
		StopPlayback{},
		Notice{Title: "Stalled", Message: StalledNotice},
	}, nil
}

// advance moves to the trial after s.Index and starts its presentation.
func advance(s State) (State, []Effect) {
	s.Index++
	s.Phase = PhasePresenting
	s.Step = StepA
	s.Token++
	s.Stalled = false

	trial := s.Order[s.Index]
	last := s.IsLast()

	return s, []Effect{
		StopPlayback{},
		InitScoring{Index: s.Index, Total: s.Total(), Trial: trial},
		SetNavigation{Prev: true, Next: !last, IsLast: last},
		Notice{Message: trial.A.Label()},
		OpenStimulus{Token: s.Token, Stimulus: trial.A, Step: StepA},
	}
}

func awaiting(s State) Phase {
	if s.IsLast() {
		return PhaseAwaitingFinish
	}
	return PhaseAwaitingScore
}
