// Package executil provides process execution utilities.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// MaxStderrLen caps captured stderr so noisy players cannot flood logs.
const MaxStderrLen = 500

// LimitedBuffer collects up to Max bytes and silently discards the rest.
// Safe for concurrent use.
type LimitedBuffer struct {
	Max int

	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *LimitedBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	limit := w.Max
	if limit <= 0 {
		limit = MaxStderrLen
	}
	remaining := limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}

// String returns the captured output with surrounding whitespace removed.
func (w *LimitedBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.TrimSpace(w.buf.String())
}

// Executor runs external commands.
type Executor interface {
	// RunStream executes a command, streams stdout/stderr to the provided
	// writers and returns when the process exits or ctx is cancelled.
	RunStream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) error
}

// RealExecutor runs actual processes.
type RealExecutor struct{}

// RunStream executes a command and streams stdout/stderr to the provided writers.
func (e *RealExecutor) RunStream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) error {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("exec %s: %w", cmd, err)
	}
	return nil
}
