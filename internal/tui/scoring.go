package tui

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/dscqs/internal/core/config"
	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/internal/core/results"
	"github.com/colonyops/dscqs/internal/evaluation"
	"github.com/colonyops/dscqs/internal/tui/notify"
)

// Messages posted from the session controller into the program.
type (
	prepareMsg struct{}

	trialMsg struct {
		index int
		total int
		trial plan.Trial
	}

	navMsg struct {
		prev   bool
		next   bool
		isLast bool
	}

	noticeMsg struct {
		notice notify.Notice
	}
)

// Scoring adapts the bubbletea scoring screen to evaluation.ScoringUI.
// Controller calls are forwarded to the program as messages; scores are
// read from a shared Scoreboard so CurrentScores never waits on the UI.
type Scoring struct {
	scale config.ScaleConfig
	board *Scoreboard

	mu     sync.Mutex
	send   func(tea.Msg)
	subs   map[int]func(evaluation.Navigation)
	nextID int

	beginOnce sync.Once
	begun     chan struct{}
}

var (
	_ evaluation.ScoringUI = (*Scoring)(nil)
	_ evaluation.Notifier  = (*Scoring)(nil)
)

// NewScoring creates an adapter for the given scale.
func NewScoring(scale config.ScaleConfig) *Scoring {
	return &Scoring{
		scale: scale,
		board: NewScoreboard(),
		subs:  make(map[int]func(evaluation.Navigation)),
		begun: make(chan struct{}),
	}
}

// Bind sets the function used to deliver messages to the program,
// typically (*tea.Program).Send.
func (s *Scoring) Bind(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

func (s *Scoring) post(msg tea.Msg) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

// Begin marks the instructions as read. Only the first call has an effect.
func (s *Scoring) Begin() {
	s.beginOnce.Do(func() { close(s.begun) })
}

// Begun is closed once the participant is ready to start.
func (s *Scoring) Begun() <-chan struct{} {
	return s.begun
}

func (s *Scoring) Prepare() {
	s.board.Reset(-1, Midpoint(s.scale))
	s.post(prepareMsg{})
}

func (s *Scoring) InitializeFor(index, total int, trial plan.Trial) {
	s.board.Reset(index, Midpoint(s.scale))
	s.post(trialMsg{index: index, total: total, trial: trial})
}

func (s *Scoring) CurrentScores(index int, trial plan.Trial) ([]results.ScoreRecord, error) {
	values, ok := s.board.Values(index)
	if !ok {
		return nil, fmt.Errorf("no scores for trial %d", index)
	}
	return []results.ScoreRecord{
		{TrialIndex: index, Stimulus: trial.A.String(), Score: values[0]},
		{TrialIndex: index, Stimulus: trial.B.String(), Score: values[1]},
	}, nil
}

func (s *Scoring) SetNavigation(prev, next, isLast bool) {
	s.post(navMsg{prev: prev, next: next, isLast: isLast})
}

func (s *Scoring) Subscribe(fn func(evaluation.Navigation)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Subscribed reports whether anyone listens for navigation.
func (s *Scoring) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}

// Emit delivers nav to every subscriber.
func (s *Scoring) Emit(nav evaluation.Navigation) {
	s.mu.Lock()
	fns := make([]func(evaluation.Navigation), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(nav)
	}
}

// ShowNotice forwards a notice to the screen. It matches notify.Subscriber.
func (s *Scoring) ShowNotice(n notify.Notice) {
	s.post(noticeMsg{notice: n})
}

// Notify shows a notice without going through a bus.
func (s *Scoring) Notify(title, message string) {
	s.ShowNotice(notify.Notice{Title: title, Message: message, CreatedAt: time.Now()})
}
