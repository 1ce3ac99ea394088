// Package buildlog implements the append-only, timestamped build log.
package buildlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/zerr"
)

// TimeLayout is the wall-clock timestamp format of each record.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Log is a ports.BuildLog writing one line per record:
//
//	<wall clock> +<seconds since open> [<tag>] <message>
type Log struct {
	mu     sync.Mutex
	w      io.Writer
	file   *os.File
	path   string
	clock  clockwork.Clock
	opened time.Time
	closed bool
}

// Open opens the log file at path for appending, creating it and its
// parent directories when missing.
func Open(path string, clock clockwork.Clock) (*Log, error) {
	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, unavailable(err, path)
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, unavailable(err, path)
	}

	l := New(f, clock)
	l.file = f
	l.path = path
	return l, nil
}

// New creates a Log writing to w.
func New(w io.Writer, clock clockwork.Clock) *Log {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Log{
		w:      w,
		clock:  clock,
		opened: clock.Now(),
	}
}

// Record appends message under tag. Each line of a multi-line message
// becomes its own record with the same timestamp.
func (l *Log) Record(tag, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return zerr.With(domain.Tag(domain.ErrBuildLogUnavailable, "reason", "closed"), "path", l.path)
	}

	now := l.clock.Now()
	prefix := fmt.Sprintf("%s +%.3fs [%s] ", now.Format(TimeLayout), now.Sub(l.opened).Seconds(), tag)

	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(message, "\n"), "\n") {
		b.WriteString(prefix)
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(l.w, b.String()); err != nil {
		return unavailable(err, l.path)
	}
	return nil
}

// Close syncs and closes the underlying file. Calling Close again is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.file == nil {
		return nil
	}
	err := errors.Join(l.file.Sync(), l.file.Close())
	if err != nil {
		return unavailable(err, l.path)
	}
	return nil
}

func unavailable(err error, path string) error {
	return zerr.With(errors.Join(domain.ErrBuildLogUnavailable, err), "path", path)
}

// Opener opens file-backed build logs.
type Opener struct {
	clock clockwork.Clock
}

// NewOpener creates an Opener whose logs are timestamped by clock.
func NewOpener(clock clockwork.Clock) *Opener {
	return &Opener{clock: clock}
}

// Open implements ports.BuildLogOpener.
func (o *Opener) Open(path string) (ports.BuildLog, error) {
	return Open(path, o.clock)
}
