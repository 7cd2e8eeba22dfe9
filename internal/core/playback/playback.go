// Package playback defines the media playback host the session controller
// drives, and the completion signal it waits on.
package playback

import (
	"context"
	"sync"

	"github.com/colonyops/dscqs/internal/core/plan"
)

// Host opens stimuli and reports when each one has finished playing.
type Host interface {
	// Open starts playing the stimulus. The returned Completion fires once,
	// when this particular open finishes.
	Open(ctx context.Context, stimulus plan.StimulusVariant) (*Completion, error)
	// Stop halts the stimulus that is currently playing, if any.
	Stop()
	// CloseAll stops playback and releases player resources.
	CloseAll() error
}

// Completion is a single-shot signal scoped to one Open call.
type Completion struct {
	once sync.Once
	done chan struct{}
}

// NewCompletion returns a Completion that has not fired.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Done is closed when playback of the opened stimulus has ended.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Complete fires the signal. Calls after the first are ignored.
func (c *Completion) Complete() {
	c.once.Do(func() { close(c.done) })
}

// Completed reports whether Complete has been called.
func (c *Completion) Completed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
