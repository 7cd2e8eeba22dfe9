// Package textfile stores results as one tab separated text file per sink
// inside a results directory.
package textfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/colonyops/dscqs/internal/core/results"
)

// Ext is the extension of every results file.
const Ext = ".txt"

// Sink implements results.Sink with plain files named <id>.txt.
type Sink struct {
	dir string
	mu  sync.Mutex
}

var _ results.Sink = (*Sink)(nil)

// NewSink creates a sink writing into dir. The directory is created on the
// first write.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Path returns the file that backs id.
func (s *Sink) Path(id string) string {
	return filepath.Join(s.dir, id+Ext)
}

// Open locks the sink for id until the handle is closed or discarded.
// Lines are held in memory and reach the file on Close: a create replaces
// the file, an append adds to it. Discard leaves the file untouched.
func (s *Sink) Open(_ context.Context, id string, mode results.Mode) (results.Handle, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("invalid sink id %q", id)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}

	s.mu.Lock()
	return &fileHandle{sink: s, id: id, mode: mode}, nil
}

type fileHandle struct {
	sink *Sink
	id   string
	mode results.Mode
	buf  bytes.Buffer
	once sync.Once
}

func (h *fileHandle) WriteLine(text string) error {
	if strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("line contains a newline: %q", text)
	}
	h.buf.WriteString(text)
	h.buf.WriteByte('\n')
	return nil
}

func (h *fileHandle) Close() error {
	var err error
	h.once.Do(func() {
		defer h.sink.mu.Unlock()
		if h.mode == results.ModeCreate {
			err = h.sink.replace(h.id, h.buf.Bytes())
		} else {
			err = h.sink.append(h.id, h.buf.Bytes())
		}
	})
	return err
}

func (h *fileHandle) Discard() error {
	h.once.Do(func() {
		h.buf.Reset()
		h.sink.mu.Unlock()
	})
	return nil
}

// replace writes data to a temporary file and renames it over the results
// file, so a failed create never truncates what was there.
func (s *Sink) replace(id string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := errors.Join(tmp.Sync(), tmp.Close()); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path(id)); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (s *Sink) append(id string, data []byte) error {
	f, err := os.OpenFile(s.Path(id), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.Write(data)
	return errors.Join(werr, f.Sync(), f.Close())
}

// Lines reads back the lines stored for id.
func (s *Sink) Lines(id string) ([]string, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, err
	}

	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// List returns the ids of the results files in the directory.
func (s *Sink) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), Ext))
	}
	return ids, nil
}
