package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/dscqs/internal/core/results"
	"github.com/colonyops/dscqs/internal/data/db"
	"github.com/colonyops/dscqs/internal/evaluation"
)

// Session states stored in the journal.
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StateAborted   = "aborted"
)

// ErrSessionNotFound is returned when a journal entry does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord is a journal entry.
type SessionRecord struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participant_id"`
	SinkID        string     `json:"sink_id"`
	Seed          uint64     `json:"seed"`
	FixedPrefix   int        `json:"fixed_prefix"`
	Trials        int        `json:"trials"`
	State         string     `json:"state"`
	Recorded      int        `json:"recorded"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// ResultStore keeps results lines and the session journal in SQLite.
type ResultStore struct {
	db *db.DB
}

var (
	_ results.Sink       = (*ResultStore)(nil)
	_ evaluation.Journal = (*ResultStore)(nil)
)

// NewResultStore creates a new SQLite-backed result store.
func NewResultStore(db *db.DB) *ResultStore {
	return &ResultStore{db: db}
}

// Open starts a transaction for one write call. Create discards the lines
// previously stored under id; everything becomes visible on Close.
func (s *ResultStore) Open(ctx context.Context, id string, mode results.Mode) (results.Handle, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	if mode == results.ModeCreate {
		if _, err := tx.ExecContext(ctx, "DELETE FROM result_lines WHERE sink_id = ?", id); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("truncate %s: %w", id, err)
		}
	}

	return &resultHandle{ctx: ctx, tx: tx, id: id}, nil
}

type resultHandle struct {
	ctx  context.Context
	tx   *sql.Tx
	id   string
	err  error
	done bool
}

func (h *resultHandle) WriteLine(text string) error {
	if h.err != nil {
		return h.err
	}
	_, err := h.tx.ExecContext(h.ctx,
		"INSERT INTO result_lines (sink_id, text, written_at) VALUES (?, ?, ?)",
		h.id, text, time.Now().UnixNano(),
	)
	if err != nil {
		h.err = fmt.Errorf("insert line into %s: %w", h.id, err)
		return h.err
	}
	return nil
}

// Close commits the lines written so far, or rolls back if any write failed.
func (h *resultHandle) Close() error {
	if h.err != nil {
		return h.Discard()
	}
	if h.done {
		return nil
	}
	h.done = true
	if err := h.tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", h.id, err)
	}
	return nil
}

// Discard rolls the transaction back, including the truncate of a create.
func (h *resultHandle) Discard() error {
	if h.done {
		return nil
	}
	h.done = true
	if err := h.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback %s: %w", h.id, err)
	}
	return nil
}

// Lines returns the stored lines of a sink in write order.
func (s *ResultStore) Lines(ctx context.Context, sinkID string) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT text FROM result_lines WHERE sink_id = ? ORDER BY id", sinkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, text)
	}
	return lines, rows.Err()
}

// SessionStarted records a new running session.
func (s *ResultStore) SessionStarted(ctx context.Context, info evaluation.SessionInfo) error {
	return retryBusy(ctx, func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO sessions (id, participant_id, sink_id, seed, fixed_prefix, trials, state, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			info.ID, info.ParticipantID, info.SinkID, int64(info.Seed), info.FixedPrefix, info.Trials,
			StateRunning, info.StartedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// SessionEnded marks a session completed or aborted.
func (s *ResultStore) SessionEnded(ctx context.Context, id string, outcome evaluation.Outcome) error {
	state := StateCompleted
	if outcome.Aborted {
		state = StateAborted
	}

	return retryBusy(ctx, func() error {
		res, err := s.db.Conn().ExecContext(ctx,
			"UPDATE sessions SET state = ?, recorded = ?, ended_at = ? WHERE id = ?",
			state, outcome.Recorded, outcome.EndedAt.UnixNano(), id,
		)
		if err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil
	})
}

// ListSessions returns the journal, newest first.
func (s *ResultStore) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, participant_id, sink_id, seed, fixed_prefix, trials, state, recorded, started_at, ended_at
		FROM sessions ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec       SessionRecord
			seed      int64
			startedAt int64
			endedAt   sql.NullInt64
		)
		err := rows.Scan(&rec.ID, &rec.ParticipantID, &rec.SinkID, &seed, &rec.FixedPrefix,
			&rec.Trials, &rec.State, &rec.Recorded, &startedAt, &endedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.Seed = uint64(seed)
		rec.StartedAt = time.Unix(0, startedAt)
		if endedAt.Valid {
			t := time.Unix(0, endedAt.Int64)
			rec.EndedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// retryBusy retries fn while SQLite reports the database as busy.
func retryBusy(ctx context.Context, fn func() error) error {
	wait := 50 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !IsBusyError(err) || attempt == 3 {
			return err
		}

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(wait):
			wait *= 2
		}
	}
}
