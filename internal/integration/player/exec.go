// Package player provides playback.Host implementations.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/dscqs/internal/core/playback"
	"github.com/colonyops/dscqs/internal/core/plan"
	"github.com/colonyops/dscqs/pkg/executil"
	"github.com/colonyops/dscqs/pkg/tmpl"
)

// CommandData is the template data available to player command arguments.
type CommandData struct {
	Path  string // stimulus path or URI
	Label string // display label (base name)
}

// ExecHost plays each stimulus by running an external player process and
// treats process exit as the end of playback. Only one process runs at a
// time; opening a stimulus stops the previous one.
type ExecHost struct {
	exec    executil.Executor
	command []string
	log     zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ playback.Host = (*ExecHost)(nil)

// NewExecHost creates a host for the given command line. The first element
// is the program; every element is rendered as a template with CommandData.
func NewExecHost(exec executil.Executor, command []string, log zerolog.Logger) (*ExecHost, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("player command is empty")
	}
	if _, err := tmpl.RenderAll(command, CommandData{}); err != nil {
		return nil, fmt.Errorf("player command: %w", err)
	}
	return &ExecHost{exec: exec, command: command, log: log}, nil
}

// Open starts the player for stimulus. The completion fires when the
// process exits, including when it is stopped.
func (h *ExecHost) Open(ctx context.Context, stimulus plan.StimulusVariant) (*playback.Completion, error) {
	args, err := tmpl.RenderAll(h.command, CommandData{Path: stimulus.String(), Label: stimulus.Label()})
	if err != nil {
		return nil, fmt.Errorf("render player command: %w", err)
	}

	h.Stop()

	pctx, cancel := context.WithCancel(ctx)
	done := playback.NewCompletion()

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer done.Complete()
		defer cancel()

		stderr := &executil.LimitedBuffer{}
		err := h.exec.RunStream(pctx, io.Discard, stderr, args[0], args[1:]...)
		switch {
		case err == nil:
			h.log.Debug().Str("stimulus", stimulus.String()).Msg("playback finished")
		case pctx.Err() != nil:
			h.log.Debug().Str("stimulus", stimulus.String()).Msg("playback stopped")
		default:
			h.log.Warn().Err(err).
				Str("stimulus", stimulus.String()).
				Str("stderr", stderr.String()).
				Msg("player exited with error")
		}
	}()

	return done, nil
}

// Stop terminates the running player, if any.
func (h *ExecHost) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// CloseAll stops playback and waits for player processes to exit.
func (h *ExecHost) CloseAll() error {
	h.Stop()
	h.wg.Wait()
	return nil
}
