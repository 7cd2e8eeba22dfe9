package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/dscqs/internal/core/playback"
	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/internal/core/results"
	"github.com/colonyops/dscqs/internal/core/session"
)

var (
	// ErrInvalidStart is returned by Start for unusable session options.
	ErrInvalidStart = errors.New("invalid session options")
	// ErrNotStarted is returned by Run before Start succeeded.
	ErrNotStarted = errors.New("session not started")
)

const inboxSize = 16

// Deps are the collaborators of a Controller.
type Deps struct {
	Host     playback.Host
	UI       ScoringUI
	Notifier Notifier
	Recorder *results.Recorder
	Journal  Journal // optional
	Logger   zerolog.Logger
	// StallTimeout bounds the wait for a playback completion. Zero waits
	// indefinitely.
	StallTimeout time.Duration
}

// StartOptions configures a session.
type StartOptions struct {
	SessionID     string // generated when empty
	Plan          plan.TestPlan
	FixedPrefix   int
	ParticipantID string
	Gap           plan.StimulusVariant
	Seed          uint64
	Rand          plan.Rand // overrides Seed when set; the journaled seed is then 0
}

type pendingOpen struct {
	token    uint64
	done     *playback.Completion
	openedAt time.Time
}

// Controller is the session state machine host. All state transitions run
// on the goroutine that calls Start, Handle and Run; UI callbacks only
// enqueue navigation events.
type Controller struct {
	deps Deps
	log  zerolog.Logger

	state       session.State
	info        SessionInfo
	pending     *pendingOpen
	unsubscribe func()

	inbox     chan session.Event
	closed    chan struct{}
	closeOnce sync.Once
}

// NewController creates a controller in the not-started state.
func NewController(deps Deps) *Controller {
	return &Controller{
		deps:   deps,
		log:    deps.Logger,
		state:  session.New(),
		inbox:  make(chan session.Event, inboxSize),
		closed: make(chan struct{}),
	}
}

// State returns a snapshot of the session state. Call it from the control
// goroutine or after Run has returned.
func (c *Controller) State() session.State { return c.state }

// Info returns the started session's description.
func (c *Controller) Info() SessionInfo { return c.info }

// Start validates the options, randomizes the trial order and presents the
// first trial. Invalid options fail before any stimulus is opened or any
// result is written.
func (c *Controller) Start(ctx context.Context, opts StartOptions) error {
	if c.state.Phase != session.PhaseNotStarted {
		return fmt.Errorf("start: %w", session.ErrOutOfState)
	}
	if err := opts.Plan.Validate(opts.FixedPrefix); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if strings.TrimSpace(opts.ParticipantID) == "" {
		return fmt.Errorf("start: %w: participant id is required", ErrInvalidStart)
	}
	if opts.Gap == "" {
		return fmt.Errorf("start: %w: gap stimulus is required", ErrInvalidStart)
	}

	seed, rng := opts.Seed, opts.Rand
	if rng == nil {
		rng = plan.NewRand(seed)
	} else {
		seed = 0
	}
	order := plan.Randomize(opts.Plan, opts.FixedPrefix, rng)

	id := opts.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	c.info = SessionInfo{
		ID:            id,
		ParticipantID: opts.ParticipantID,
		SinkID:        results.SinkID(opts.ParticipantID),
		Seed:          seed,
		FixedPrefix:   opts.FixedPrefix,
		Trials:        len(order),
		StartedAt:     time.Now(),
	}
	c.log = c.deps.Logger.With().
		Str("session_id", id).
		Str("participant", opts.ParticipantID).
		Logger()

	if err := c.Handle(ctx, session.Start{
		Order:         order,
		ParticipantID: opts.ParticipantID,
		SinkID:        c.info.SinkID,
		Gap:           opts.Gap,
	}); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if c.deps.Journal != nil {
		if err := c.deps.Journal.SessionStarted(ctx, c.info); err != nil {
			c.log.Warn().Err(err).Msg("failed to journal session start")
		}
	}

	c.log.Info().
		Int("trials", len(order)).
		Int("fixed_prefix", opts.FixedPrefix).
		Uint64("seed", c.info.Seed).
		Str("sink", c.info.SinkID).
		Msg("session started")

	return nil
}

// Handle applies one event. Effects run in order; if recording scores
// fails, the remaining effects are skipped and the state is left as it
// was so the participant can retry.
func (c *Controller) Handle(ctx context.Context, ev session.Event) error {
	next, effects, err := session.Transition(c.state, ev)
	if err != nil {
		return err
	}

	for _, eff := range effects {
		if err := c.apply(ctx, next, eff); err != nil {
			return err
		}
	}

	wasFinished := c.state.Phase == session.PhaseFinished
	c.state = next
	if next.Phase == session.PhaseFinished && !wasFinished {
		c.ended(ctx)
	}
	return nil
}

// Run processes navigation events and playback completions until the
// session finishes. Cancelling ctx aborts the session.
func (c *Controller) Run(ctx context.Context) error {
	if c.state.Phase == session.PhaseNotStarted {
		return ErrNotStarted
	}
	defer c.closeOnce.Do(func() { close(c.closed) })

	for c.state.Phase != session.PhaseFinished {
		pending := c.pending

		var (
			done  <-chan struct{}
			stall <-chan time.Time
			timer *time.Timer
		)
		if pending != nil {
			done = pending.done.Done()
			if c.deps.StallTimeout > 0 {
				timer = time.NewTimer(max(c.deps.StallTimeout-time.Since(pending.openedAt), 0))
				stall = timer.C
			}
		}

		select {
		case <-ctx.Done():
			c.dispatch(context.WithoutCancel(ctx), session.Abort{})
			stopTimer(timer)
			return ctx.Err()
		case ev := <-c.inbox:
			c.dispatch(ctx, ev)
		case <-done:
			c.pending = nil
			c.dispatch(ctx, session.PlaybackComplete{Token: pending.token})
		case <-stall:
			c.log.Warn().Uint64("token", pending.token).Dur("timeout", c.deps.StallTimeout).Msg("presentation stalled")
			c.dispatch(ctx, session.Stalled{Token: pending.token})
		}
		stopTimer(timer)
	}

	return nil
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// dispatch handles an event from the run loop. Out-of-state events are
// logged and dropped; other failures are reported to the participant.
func (c *Controller) dispatch(ctx context.Context, ev session.Event) {
	err := c.Handle(ctx, ev)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrOutOfState):
		c.log.Debug().Err(err).Str("event", fmt.Sprintf("%T", ev)).Msg("ignored event")
	default:
		c.log.Error().Err(err).Str("event", fmt.Sprintf("%T", ev)).Msg("event failed")
		c.deps.Notifier.Notify("Error", fmt.Sprintf("Scores were not saved: %v. Please try again.", err))
	}
}

// enqueue is the navigation callback handed to the scoring UI.
func (c *Controller) enqueue(nav Navigation) {
	var ev session.Event
	switch nav {
	case NavNext:
		ev = session.Next{}
	case NavPrevious:
		ev = session.Previous{}
	case NavFinish:
		ev = session.Finish{}
	case NavAbort:
		ev = session.Abort{}
	default:
		return
	}

	select {
	case c.inbox <- ev:
	case <-c.closed:
	}
}

func (c *Controller) apply(ctx context.Context, st session.State, eff session.Effect) error {
	switch eff := eff.(type) {
	case session.Subscribe:
		c.unsubscribe = c.deps.UI.Subscribe(c.enqueue)
	case session.Unsubscribe:
		if c.unsubscribe != nil {
			c.unsubscribe()
			c.unsubscribe = nil
		}
	case session.PrepareScoring:
		c.deps.UI.Prepare()
	case session.RecordScores:
		return c.record(ctx, st, eff)
	case session.StopPlayback:
		c.pending = nil
		c.deps.Host.Stop()
	case session.ReleasePlayback:
		c.pending = nil
		if err := c.deps.Host.CloseAll(); err != nil {
			c.log.Warn().Err(err).Msg("failed to release playback")
		}
	case session.OpenStimulus:
		c.open(ctx, eff)
	case session.InitScoring:
		c.deps.UI.InitializeFor(eff.Index, eff.Total, eff.Trial)
	case session.SetNavigation:
		c.deps.UI.SetNavigation(eff.Prev, eff.Next, eff.IsLast)
	case session.Notice:
		c.deps.Notifier.Notify(eff.Title, eff.Message)
	default:
		return fmt.Errorf("unknown effect %T", eff)
	}
	return nil
}

func (c *Controller) record(ctx context.Context, st session.State, eff session.RecordScores) error {
	scores, err := c.deps.UI.CurrentScores(eff.Index, eff.Trial)
	if err != nil {
		return fmt.Errorf("read scores for trial %d: %w", eff.Index+1, err)
	}

	if err := c.deps.Recorder.Write(ctx, st.SinkID, eff.Mode, scores); err != nil {
		return fmt.Errorf("record trial %d: %w", eff.Index+1, err)
	}

	c.log.Info().
		Int("trial", eff.Index+1).
		Stringer("mode", eff.Mode).
		Int("records", len(scores)).
		Msg("scores recorded")
	return nil
}

// open starts playback. A stimulus that cannot be opened leaves nothing
// pending; the participant is told and can replay the trial.
func (c *Controller) open(ctx context.Context, eff session.OpenStimulus) {
	done, err := c.deps.Host.Open(ctx, eff.Stimulus)
	if err != nil {
		c.pending = nil
		c.log.Error().Err(err).Str("stimulus", eff.Stimulus.String()).Msg("failed to open stimulus")
		c.deps.Notifier.Notify("Playback", fmt.Sprintf("Could not play %s. Press Replay to try again.", eff.Stimulus.Label()))
		return
	}

	c.pending = &pendingOpen{token: eff.Token, done: done, openedAt: time.Now()}
	c.log.Debug().
		Uint64("token", eff.Token).
		Stringer("step", eff.Step).
		Str("stimulus", eff.Stimulus.String()).
		Msg("stimulus opened")
}

func (c *Controller) ended(ctx context.Context) {
	outcome := Outcome{
		Aborted:  c.state.Aborted,
		Recorded: c.state.Recorded,
		EndedAt:  time.Now(),
	}

	c.log.Info().Bool("aborted", outcome.Aborted).Int("recorded", outcome.Recorded).Msg("session ended")

	if c.deps.Journal != nil && c.info.ID != "" {
		if err := c.deps.Journal.SessionEnded(ctx, c.info.ID, outcome); err != nil {
			c.log.Warn().Err(err).Msg("failed to journal session end")
		}
	}
}
