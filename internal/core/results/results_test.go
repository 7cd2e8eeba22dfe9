package results

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memHandle struct {
	sink    *memSink
	id      string
	mode    Mode
	pending []string
	done    bool
}

func (h *memHandle) WriteLine(text string) error {
	if h.sink.failWrites > 0 {
		h.sink.failWrites--
		return errors.New("write refused")
	}
	if h.sink.writeErr != nil {
		return h.sink.writeErr
	}
	h.pending = append(h.pending, text)
	return nil
}

func (h *memHandle) Close() error {
	if h.done {
		return nil
	}
	h.done = true
	h.sink.closes++
	if h.sink.closeErr != nil {
		return h.sink.closeErr
	}
	if h.mode == ModeCreate {
		h.sink.lines[h.id] = nil
	}
	h.sink.lines[h.id] = append(h.sink.lines[h.id], h.pending...)
	return nil
}

func (h *memHandle) Discard() error {
	if h.done {
		return nil
	}
	h.done = true
	h.sink.discards++
	return nil
}

type memSink struct {
	lines      map[string][]string
	modes      []Mode
	closes     int
	discards   int
	openErr    error
	writeErr   error
	closeErr   error
	failWrites int
}

func newMemSink() *memSink { return &memSink{lines: map[string][]string{}} }

func (s *memSink) Open(_ context.Context, id string, mode Mode) (Handle, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.modes = append(s.modes, mode)
	return &memHandle{sink: s, id: id, mode: mode}, nil
}

func TestRecorder_CreateThenAppend(t *testing.T) {
	ctx := context.Background()
	sink := newMemSink()
	rec := NewRecorder(sink)

	require.NoError(t, rec.Write(ctx, "p1", ModeCreate, []ScoreRecord{
		{TrialIndex: 0, Stimulus: "ref.yuv", Score: 80},
		{TrialIndex: 0, Stimulus: "q1.yuv", Score: 42.5},
	}))
	require.NoError(t, rec.Write(ctx, "p1", ModeAppend, []ScoreRecord{
		{TrialIndex: 1, Stimulus: "ref2.yuv", Score: 75},
	}))

	assert.Equal(t, []string{
		Header,
		"0\tref.yuv\t80",
		"0\tq1.yuv\t42.5",
		"1\tref2.yuv\t75",
	}, sink.lines["p1"])
	assert.Equal(t, []Mode{ModeCreate, ModeAppend}, sink.modes)
	assert.Equal(t, 2, sink.closes, "sink must be closed after every write")
}

func TestRecorder_CreateTruncates(t *testing.T) {
	ctx := context.Background()
	sink := newMemSink()
	rec := NewRecorder(sink)

	require.NoError(t, rec.Write(ctx, "p1", ModeCreate, []ScoreRecord{{TrialIndex: 0, Stimulus: "a", Score: 1}}))
	require.NoError(t, rec.Write(ctx, "p1", ModeCreate, []ScoreRecord{{TrialIndex: 0, Stimulus: "b", Score: 2}}))

	assert.Equal(t, []string{Header, "0\tb\t2"}, sink.lines["p1"])
}

func TestRecorder_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("open", func(t *testing.T) {
		sink := newMemSink()
		sink.openErr = errors.New("disk gone")

		err := NewRecorder(sink).Write(ctx, "p1", ModeAppend, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open sink p1 (append): disk gone")
	})

	t.Run("write discards", func(t *testing.T) {
		sink := newMemSink()
		sink.writeErr = errors.New("no space")

		err := NewRecorder(sink).Write(ctx, "p1", ModeAppend, []ScoreRecord{{Stimulus: "a"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no space")
		assert.Equal(t, 1, sink.discards)
		assert.Equal(t, 0, sink.closes)
		assert.Empty(t, sink.lines["p1"])
	})

	t.Run("close", func(t *testing.T) {
		sink := newMemSink()
		sink.closeErr = errors.New("fsync failed")

		err := NewRecorder(sink).Write(ctx, "p1", ModeAppend, []ScoreRecord{{Stimulus: "a"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "close sink p1: fsync failed")
	})
}

func TestTee(t *testing.T) {
	ctx := context.Background()
	a, b := newMemSink(), newMemSink()

	require.NoError(t, NewRecorder(Tee(a, b)).Write(ctx, "p", ModeCreate, []ScoreRecord{{TrialIndex: 3, Stimulus: "x", Score: 9}}))

	assert.Equal(t, a.lines, b.lines)
	assert.Equal(t, 1, a.closes)
	assert.Equal(t, 1, b.closes)
}

func TestTee_OpenFailureDiscardsOpened(t *testing.T) {
	ctx := context.Background()
	a, b := newMemSink(), newMemSink()
	b.openErr = errors.New("locked")

	_, err := Tee(a, b).Open(ctx, "p", ModeAppend)
	require.Error(t, err)
	assert.Equal(t, 1, a.discards)
	assert.Equal(t, 0, a.closes)
}

func TestTee_PartialWriteFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	a, b := newMemSink(), newMemSink()
	rec := NewRecorder(Tee(a, b))

	require.NoError(t, rec.Write(ctx, "p", ModeCreate, []ScoreRecord{{TrialIndex: 0, Stimulus: "x", Score: 50}}))

	b.failWrites = 1
	err := rec.Write(ctx, "p", ModeAppend, []ScoreRecord{{TrialIndex: 1, Stimulus: "y", Score: 60}})
	require.Error(t, err)
	assert.Equal(t, 1, a.discards)
	assert.Equal(t, 1, b.discards)
	assert.Equal(t, []string{Header, "0\tx\t50"}, a.lines["p"])
	assert.Equal(t, a.lines, b.lines)

	require.NoError(t, rec.Write(ctx, "p", ModeAppend, []ScoreRecord{{TrialIndex: 1, Stimulus: "y", Score: 60}}))
	assert.Equal(t, []string{Header, "0\tx\t50", "1\ty\t60"}, a.lines["p"])
	assert.Equal(t, a.lines, b.lines)
}

func TestTee_CloseFailureDiscardsRemaining(t *testing.T) {
	ctx := context.Background()
	a, b := newMemSink(), newMemSink()
	a.closeErr = errors.New("commit failed")

	err := NewRecorder(Tee(a, b)).Write(ctx, "p", ModeCreate, []ScoreRecord{{Stimulus: "x", Score: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit failed")
	assert.Equal(t, 1, b.discards)
	assert.Empty(t, b.lines["p"])
}

func TestSinkID(t *testing.T) {
	assert.Equal(t, "Jane-Doe_DSCQS_result", SinkID("Jane Doe"))
	assert.Equal(t, "p07_DSCQS_result", SinkID("  p07 "))
	assert.Equal(t, "a-b_DSCQS_result", SinkID("../a/b"))
	assert.Equal(t, "anonymous_DSCQS_result", SinkID("   "))
}

func TestParseLine(t *testing.T) {
	rec, err := ParseLine("4\tclip.yuv\t63.5")
	require.NoError(t, err)
	assert.Equal(t, ScoreRecord{TrialIndex: 4, Stimulus: "clip.yuv", Score: 63.5}, rec)

	_, err = ParseLine(Header)
	assert.Error(t, err)

	_, err = ParseLine("only\ttwo")
	assert.Error(t, err)
}
