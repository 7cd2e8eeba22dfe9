// Package results records trial scores to a line-oriented results sink.
package results

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Mode selects how a sink is opened.
type Mode int

const (
	// ModeCreate truncates (or creates) the sink before writing.
	ModeCreate Mode = iota
	// ModeAppend adds to the existing sink contents.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeAppend:
		return "append"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Header is written as the first line of a sink opened with ModeCreate.
const Header = "trial\tstimulus\tscore"

// ScoreRecord is the score given to one stimulus of a trial.
type ScoreRecord struct {
	TrialIndex int     `json:"trial_index"`
	Stimulus   string  `json:"stimulus"`
	Score      float64 `json:"score"`
}

// Line formats the record as a tab separated results line.
func (r ScoreRecord) Line() string {
	return strconv.Itoa(r.TrialIndex) + "\t" + r.Stimulus + "\t" + strconv.FormatFloat(r.Score, 'f', -1, 64)
}

// ParseLine is the inverse of ScoreRecord.Line.
func ParseLine(line string) (ScoreRecord, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 {
		return ScoreRecord{}, fmt.Errorf("malformed results line %q", line)
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("trial index %q: %w", parts[0], err)
	}
	score, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("score %q: %w", parts[2], err)
	}
	return ScoreRecord{TrialIndex: idx, Stimulus: parts[1], Score: score}, nil
}

// Handle is an open sink. Lines written through it become visible on Close;
// Discard drops them and leaves the sink as it was before Open. Only the
// first of Close or Discard has an effect.
type Handle interface {
	WriteLine(text string) error
	Close() error
	Discard() error
}

// Sink is the external results store.
type Sink interface {
	Open(ctx context.Context, id string, mode Mode) (Handle, error)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SinkID returns the deterministic sink name for a participant.
// "Jane Doe" -> "Jane-Doe_DSCQS_result"
func SinkID(participantID string) string {
	s := nonAlphanumeric.ReplaceAllString(strings.TrimSpace(participantID), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "anonymous"
	}
	return s + "_DSCQS_result"
}

// Recorder writes score records to a sink, opening and closing it on every
// call so no handle outlives a trial transition.
type Recorder struct {
	sink Sink
}

// NewRecorder creates a Recorder for the given sink.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Write opens sinkID with mode, writes the header on create followed by one
// line per record, and closes the sink. When any line fails the handle is
// discarded, so a failed call leaves nothing behind and can be retried.
func (r *Recorder) Write(ctx context.Context, sinkID string, mode Mode, records []ScoreRecord) error {
	h, err := r.sink.Open(ctx, sinkID, mode)
	if err != nil {
		return fmt.Errorf("open sink %s (%s): %w", sinkID, mode, err)
	}

	if mode == ModeCreate {
		if err := h.WriteLine(Header); err != nil {
			return discard(h, sinkID, fmt.Errorf("write header to %s: %w", sinkID, err))
		}
	}

	for _, rec := range records {
		if err := h.WriteLine(rec.Line()); err != nil {
			return discard(h, sinkID, fmt.Errorf("write record to %s: %w", sinkID, err))
		}
	}

	if err := h.Close(); err != nil {
		return fmt.Errorf("close sink %s: %w", sinkID, err)
	}
	return nil
}

func discard(h Handle, sinkID string, err error) error {
	if derr := h.Discard(); derr != nil {
		return errors.Join(err, fmt.Errorf("discard sink %s: %w", sinkID, derr))
	}
	return err
}
