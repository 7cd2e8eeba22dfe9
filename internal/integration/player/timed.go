package player

import (
	"context"
	"sync"
	"time"

	"github.com/colonyops/dscqs/internal/core/playback"
	"github.com/colonyops/dscqs/internal/core/plan"
)

// TimedHost pretends to play each stimulus for a fixed duration. It backs
// dry runs where no player is installed.
type TimedHost struct {
	duration time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	opened []plan.StimulusVariant
}

var _ playback.Host = (*TimedHost)(nil)

// NewTimedHost returns a host whose stimuli complete after d.
func NewTimedHost(d time.Duration) *TimedHost {
	return &TimedHost{duration: d}
}

func (h *TimedHost) Open(_ context.Context, stimulus plan.StimulusVariant) (*playback.Completion, error) {
	done := playback.NewCompletion()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.opened = append(h.opened, stimulus)
	h.timer = time.AfterFunc(h.duration, done.Complete)
	return done, nil
}

func (h *TimedHost) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *TimedHost) CloseAll() error {
	h.Stop()
	return nil
}

// Opened returns every stimulus opened so far, in order.
func (h *TimedHost) Opened() []plan.StimulusVariant {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]plan.StimulusVariant(nil), h.opened...)
}
