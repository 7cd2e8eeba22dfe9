package executil

import (
	"context"
	"io"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd  string
	Args []string
}

// RecordingExecutor captures commands for testing.
// Configure Errors to control return values. With Hold set, RunStream
// blocks until Release is called or its context is cancelled, which stands
// in for a long-running player process.
type RecordingExecutor struct {
	// Errors maps command names to the error RunStream returns.
	Errors map[string]error
	Hold   bool

	mu       sync.Mutex
	commands []RecordedCommand
	waiting  []chan struct{}
}

// RunStream records the command and returns the configured error.
func (e *RecordingExecutor) RunStream(ctx context.Context, _, _ io.Writer, cmd string, args ...string) error {
	e.mu.Lock()
	e.commands = append(e.commands, RecordedCommand{Cmd: cmd, Args: args})
	var release chan struct{}
	if e.Hold {
		release = make(chan struct{})
		e.waiting = append(e.waiting, release)
	}
	err := e.Errors[cmd]
	e.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Release lets every held command return.
func (e *RecordingExecutor) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.waiting {
		close(ch)
	}
	e.waiting = nil
}

// Commands returns a copy of the recorded commands.
func (e *RecordingExecutor) Commands() []RecordedCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RecordedCommand(nil), e.commands...)
}
