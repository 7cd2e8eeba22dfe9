package tui

import (
	"sync"
)

// Scoreboard holds the slider values of the trial being scored. The UI
// goroutine writes it and the session controller reads it.
type Scoreboard struct {
	mu     sync.Mutex
	index  int
	values [2]float64
}

// NewScoreboard returns a board with no trial.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{index: -1}
}

// Reset starts scoring trial index with both values set to v.
func (b *Scoreboard) Reset(index int, v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.index = index
	b.values = [2]float64{v, v}
}

// Set stores the value of slot (0 for A, 1 for B). Writes for a trial
// other than the current one are dropped.
func (b *Scoreboard) Set(index, slot int, v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index != b.index || slot < 0 || slot > 1 {
		return
	}
	b.values[slot] = v
}

// Values returns the scores for trial index. ok is false when index is not
// the trial being scored.
func (b *Scoreboard) Values(index int) (values [2]float64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index != b.index {
		return values, false
	}
	return b.values, true
}
