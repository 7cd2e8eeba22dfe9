// Package notify fans participant notices out to the scoring screen and
// the log.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/dscqs/internal/evaluation"
)

// Notice is a message shown to the participant.
type Notice struct {
	Title     string
	Message   string
	CreatedAt time.Time
}

// Subscriber is a callback invoked when a notice is published.
type Subscriber func(Notice)

// Bus is a synchronous in-process notice bus. Subscribers run inline on the
// publishing goroutine, so they must not block.
type Bus struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

var _ evaluation.Notifier = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a callback that will be invoked on every Publish.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish stamps n and dispatches it to all subscribers.
func (b *Bus) Publish(n Notice) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Notify implements evaluation.Notifier.
func (b *Bus) Notify(title, message string) {
	b.Publish(Notice{Title: title, Message: message})
}

// LogTo subscribes a logger that records every notice at info level.
func (b *Bus) LogTo(log zerolog.Logger) {
	b.Subscribe(func(n Notice) {
		log.Info().Str("title", n.Title).Msg(n.Message)
	})
}
