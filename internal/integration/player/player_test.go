package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/dscqs/pkg/executil"
)

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("completion did not fire")
	}
}

func TestNewExecHost_Validation(t *testing.T) {
	_, err := NewExecHost(&executil.RecordingExecutor{}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewExecHost(&executil.RecordingExecutor{}, []string{"ffplay", "{{ .Bogus }}"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestExecHost_CompletesOnExit(t *testing.T) {
	exec := &executil.RecordingExecutor{}
	host, err := NewExecHost(exec, []string{"ffplay", "-autoexit", "-window_title", "{{ .Label }}", "{{ .Path }}"}, zerolog.Nop())
	require.NoError(t, err)

	done, err := host.Open(context.Background(), "/clips/ref/a.yuv")
	require.NoError(t, err)
	waitDone(t, done.Done())

	require.NoError(t, host.CloseAll())
	assert.Equal(t, []executil.RecordedCommand{
		{Cmd: "ffplay", Args: []string{"-autoexit", "-window_title", "a.yuv", "/clips/ref/a.yuv"}},
	}, exec.Commands())
}

func TestExecHost_PlayerErrorStillCompletes(t *testing.T) {
	exec := &executil.RecordingExecutor{Errors: map[string]error{"mpv": errors.New("no display")}}
	host, err := NewExecHost(exec, []string{"mpv", "{{ .Path }}"}, zerolog.Nop())
	require.NoError(t, err)

	done, err := host.Open(context.Background(), "a.yuv")
	require.NoError(t, err)
	waitDone(t, done.Done())
}

func TestExecHost_OpenStopsPrevious(t *testing.T) {
	exec := &executil.RecordingExecutor{Hold: true}
	host, err := NewExecHost(exec, []string{"ffplay", "{{ .Path }}"}, zerolog.Nop())
	require.NoError(t, err)

	first, err := host.Open(context.Background(), "a.yuv")
	require.NoError(t, err)

	second, err := host.Open(context.Background(), "b.yuv")
	require.NoError(t, err)

	waitDone(t, first.Done())
	assert.False(t, second.Completed(), "second open must stay pending until its own process exits")

	require.Eventually(t, func() bool { return len(exec.Commands()) == 2 }, time.Second, 5*time.Millisecond)
	exec.Release()
	waitDone(t, second.Done())
	require.NoError(t, host.CloseAll())
}

func TestExecHost_StopCompletes(t *testing.T) {
	exec := &executil.RecordingExecutor{Hold: true}
	host, err := NewExecHost(exec, []string{"ffplay", "{{ .Path }}"}, zerolog.Nop())
	require.NoError(t, err)

	done, err := host.Open(context.Background(), "a.yuv")
	require.NoError(t, err)

	host.Stop()
	waitDone(t, done.Done())
	require.NoError(t, host.CloseAll())
}

func TestTimedHost(t *testing.T) {
	host := NewTimedHost(10 * time.Millisecond)

	done, err := host.Open(context.Background(), "a.yuv")
	require.NoError(t, err)
	waitDone(t, done.Done())

	stopped, err := host.Open(context.Background(), "b.yuv")
	require.NoError(t, err)
	host.Stop()
	time.Sleep(30 * time.Millisecond)
	assert.False(t, stopped.Completed(), "a stopped stimulus never reports completion")

	require.NoError(t, host.CloseAll())
	assert.Equal(t, []string{"a.yuv", "b.yuv"}, func() []string {
		var out []string
		for _, s := range host.Opened() {
			out = append(out, s.String())
		}
		return out
	}())
}
