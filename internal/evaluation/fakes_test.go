package evaluation

import (
	"context"
	"errors"
	"sync"

	"github.com/colonyops/dscqs/internal/core/playback"
	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/internal/core/results"
)

type fakeHost struct {
	mu          sync.Mutex
	autoDone    bool
	openErr     error
	opened      []plan.StimulusVariant
	completions []*playback.Completion
	stops       int
	closes      int
}

func (h *fakeHost) Open(_ context.Context, s plan.StimulusVariant) (*playback.Completion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.openErr != nil {
		return nil, h.openErr
	}
	c := playback.NewCompletion()
	if h.autoDone {
		c.Complete()
	}
	h.opened = append(h.opened, s)
	h.completions = append(h.completions, c)
	return c, nil
}

func (h *fakeHost) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops++
}

func (h *fakeHost) CloseAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return nil
}

func (h *fakeHost) Opened() []plan.StimulusVariant {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]plan.StimulusVariant(nil), h.opened...)
}

type navState struct {
	prev, next, isLast bool
}

type fakeUI struct {
	mu        sync.Mutex
	prepared  int
	inits     []int
	nav       navState
	fn        func(Navigation)
	unsubs    int
	scoresErr error
}

func (u *fakeUI) Prepare() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prepared++
}

func (u *fakeUI) InitializeFor(index, _ int, _ plan.Trial) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inits = append(u.inits, index)
}

func (u *fakeUI) CurrentScores(index int, trial plan.Trial) ([]results.ScoreRecord, error) {
	if u.scoresErr != nil {
		return nil, u.scoresErr
	}
	return []results.ScoreRecord{
		{TrialIndex: index, Stimulus: trial.A.String(), Score: 70},
		{TrialIndex: index, Stimulus: trial.B.String(), Score: 30},
	}, nil
}

func (u *fakeUI) SetNavigation(prev, next, isLast bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nav = navState{prev, next, isLast}
}

func (u *fakeUI) Subscribe(fn func(Navigation)) func() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.fn = fn
	return func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.fn = nil
		u.unsubs++
	}
}

func (u *fakeUI) press(nav Navigation) {
	u.mu.Lock()
	fn := u.fn
	u.mu.Unlock()
	if fn != nil {
		fn(nav)
	}
}

func (u *fakeUI) Nav() navState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.nav
}

type notice struct{ title, message string }

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *fakeNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{title, message})
}

func (n *fakeNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notices))
	for _, x := range n.notices {
		out = append(out, x.message)
	}
	return out
}

var errSinkDown = errors.New("sink unavailable")

type memHandle struct {
	sink    *memSink
	id      string
	mode    results.Mode
	pending []string
	done    bool
}

func (h *memHandle) WriteLine(text string) error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	if h.sink.failWrites > 0 {
		h.sink.failWrites--
		return errSinkDown
	}
	h.pending = append(h.pending, text)
	return nil
}

func (h *memHandle) Close() error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	if h.done {
		return nil
	}
	h.done = true
	if h.mode == results.ModeCreate {
		h.sink.lines[h.id] = nil
	}
	h.sink.lines[h.id] = append(h.sink.lines[h.id], h.pending...)
	return nil
}

func (h *memHandle) Discard() error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.done = true
	return nil
}

type memSink struct {
	mu         sync.Mutex
	fail       bool
	failWrites int
	lines      map[string][]string
	modes      []results.Mode
	opens      int
	failed     int
	journal    []string
}

func newMemSink() *memSink { return &memSink{lines: map[string][]string{}} }

func (s *memSink) Open(_ context.Context, id string, mode results.Mode) (results.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		s.failed++
		return nil, errSinkDown
	}
	s.opens++
	s.modes = append(s.modes, mode)
	return &memHandle{sink: s, id: id, mode: mode}, nil
}

// FailNextWrite makes the next line written to the sink fail.
func (s *memSink) FailNextWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = 1
}

func (s *memSink) Lines(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines[id]...)
}

func (s *memSink) SessionStarted(_ context.Context, info SessionInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal = append(s.journal, "started "+info.ID)
	return nil
}

func (s *memSink) SessionEnded(_ context.Context, id string, outcome Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := "completed"
	if outcome.Aborted {
		state = "aborted"
	}
	s.journal = append(s.journal, state+" "+id)
	return nil
}
