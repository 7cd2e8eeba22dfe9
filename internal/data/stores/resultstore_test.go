package stores

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/dscqs/internal/core/results"
	"github.com/colonyops/dscqs/internal/data/db"
	"github.com/colonyops/dscqs/internal/evaluation"
)

func newTestResultStore(t *testing.T) *ResultStore {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewResultStore(database)
}

func TestResultStore_CreateThenAppend(t *testing.T) {
	ctx := context.Background()
	store := newTestResultStore(t)
	rec := results.NewRecorder(store)

	require.NoError(t, rec.Write(ctx, "p1_DSCQS_result", results.ModeCreate, []results.ScoreRecord{
		{TrialIndex: 0, Stimulus: "ref.yuv", Score: 80},
		{TrialIndex: 0, Stimulus: "q1.yuv", Score: 41.5},
	}))
	require.NoError(t, rec.Write(ctx, "p1_DSCQS_result", results.ModeAppend, []results.ScoreRecord{
		{TrialIndex: 1, Stimulus: "ref2.yuv", Score: 60},
	}))

	lines, err := store.Lines(ctx, "p1_DSCQS_result")
	require.NoError(t, err)
	assert.Equal(t, []string{
		results.Header,
		"0\tref.yuv\t80",
		"0\tq1.yuv\t41.5",
		"1\tref2.yuv\t60",
	}, lines)
}

func TestResultStore_CreateReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	store := newTestResultStore(t)
	rec := results.NewRecorder(store)

	require.NoError(t, rec.Write(ctx, "p1", results.ModeCreate, []results.ScoreRecord{{Stimulus: "old", Score: 1}}))
	require.NoError(t, rec.Write(ctx, "other", results.ModeCreate, []results.ScoreRecord{{Stimulus: "keep", Score: 2}}))
	require.NoError(t, rec.Write(ctx, "p1", results.ModeCreate, []results.ScoreRecord{{Stimulus: "new", Score: 3}}))

	lines, err := store.Lines(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{results.Header, "0\tnew\t3"}, lines)

	other, err := store.Lines(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, other, 2)
}

func TestResultStore_UncommittedUntilClose(t *testing.T) {
	ctx := context.Background()
	store := newTestResultStore(t)

	h, err := store.Open(ctx, "p1", results.ModeCreate)
	require.NoError(t, err)
	require.NoError(t, h.WriteLine("line"))
	require.NoError(t, h.Close())

	lines, err := store.Lines(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"line"}, lines)
}

func TestResultStore_DiscardRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestResultStore(t)
	rec := results.NewRecorder(store)

	require.NoError(t, rec.Write(ctx, "p1", results.ModeCreate, []results.ScoreRecord{{Stimulus: "a", Score: 1}}))

	for _, mode := range []results.Mode{results.ModeAppend, results.ModeCreate} {
		h, err := store.Open(ctx, "p1", mode)
		require.NoError(t, err)
		require.NoError(t, h.WriteLine("1\tb\t2"))
		require.NoError(t, h.Discard())
		require.NoError(t, h.Close(), "close after discard is a no-op")
	}

	lines, err := store.Lines(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{results.Header, "0\ta\t1"}, lines)
}

func TestResultStore_LinesUnknownSink(t *testing.T) {
	store := newTestResultStore(t)
	lines, err := store.Lines(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestResultStore_Journal(t *testing.T) {
	ctx := context.Background()
	store := newTestResultStore(t)
	started := time.Unix(1_700_000_000, 0)

	require.NoError(t, store.SessionStarted(ctx, evaluation.SessionInfo{
		ID:            "a",
		ParticipantID: "Jane",
		SinkID:        "Jane_DSCQS_result",
		Seed:          1<<63 + 5,
		FixedPrefix:   1,
		Trials:        4,
		StartedAt:     started,
	}))
	require.NoError(t, store.SessionStarted(ctx, evaluation.SessionInfo{
		ID:            "b",
		ParticipantID: "Joe",
		SinkID:        "Joe_DSCQS_result",
		Trials:        2,
		StartedAt:     started.Add(time.Hour),
	}))

	ended := started.Add(10 * time.Minute)
	require.NoError(t, store.SessionEnded(ctx, "a", evaluation.Outcome{Recorded: 4, EndedAt: ended}))
	require.NoError(t, store.SessionEnded(ctx, "b", evaluation.Outcome{Aborted: true, Recorded: 1, EndedAt: ended}))

	got, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, StateAborted, got[0].State)
	assert.Equal(t, 1, got[0].Recorded)

	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, StateCompleted, got[1].State)
	assert.Equal(t, uint64(1<<63+5), got[1].Seed)
	assert.Equal(t, 1, got[1].FixedPrefix)
	assert.Equal(t, 4, got[1].Trials)
	assert.True(t, started.Equal(got[1].StartedAt))
	require.NotNil(t, got[1].EndedAt)
	assert.True(t, ended.Equal(*got[1].EndedAt))
}

func TestResultStore_SessionEndedUnknown(t *testing.T) {
	store := newTestResultStore(t)
	err := store.SessionEnded(context.Background(), "missing", evaluation.Outcome{EndedAt: time.Now()})
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestIsCorruptionError(t *testing.T) {
	assert.False(t, IsCorruptionError(nil))
	assert.False(t, IsCorruptionError(errors.New("boom")))
	assert.True(t, IsCorruptionError(errors.New("file is not a database")))
}

func TestRecoverFromCorruption(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, db.FileName)
	require.NoError(t, os.WriteFile(dbPath, []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal"), 0o644))

	backup, err := RecoverFromCorruption(dir)
	require.NoError(t, err)

	assert.NoFileExists(t, dbPath)
	assert.NoFileExists(t, dbPath+"-wal")
	assert.FileExists(t, backup)
	assert.FileExists(t, backup+"-wal")

	database, err := db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	require.NoError(t, database.Close())
}
