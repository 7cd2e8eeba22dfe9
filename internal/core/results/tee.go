package results

import (
	"context"
	"errors"
)

// Tee returns a sink that writes every line to all of the given sinks.
// Opening fails if any sink fails to open; sinks opened before the failure
// are discarded.
//
// A line that fails on any sink marks the whole handle failed: Close then
// discards every sink instead of committing some of them. Sinks commit in
// order on Close and the first commit error discards the rest, so list the
// sink most likely to refuse a commit first.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) Open(ctx context.Context, id string, mode Mode) (Handle, error) {
	tee := &teeHandle{handles: make([]Handle, 0, len(t))}
	for _, s := range t {
		h, err := s.Open(ctx, id, mode)
		if err != nil {
			return nil, errors.Join(err, tee.Discard())
		}
		tee.handles = append(tee.handles, h)
	}
	return tee, nil
}

type teeHandle struct {
	handles []Handle
	failed  bool
}

func (t *teeHandle) WriteLine(text string) error {
	var errs []error
	for _, h := range t.handles {
		errs = append(errs, h.WriteLine(text))
	}
	err := errors.Join(errs...)
	if err != nil {
		t.failed = true
	}
	return err
}

func (t *teeHandle) Close() error {
	if t.failed {
		return t.Discard()
	}
	for i, h := range t.handles {
		if err := h.Close(); err != nil {
			rest := &teeHandle{handles: t.handles[i+1:]}
			return errors.Join(err, rest.Discard())
		}
	}
	return nil
}

func (t *teeHandle) Discard() error {
	var errs []error
	for _, h := range t.handles {
		errs = append(errs, h.Discard())
	}
	return errors.Join(errs...)
}
