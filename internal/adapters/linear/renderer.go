// Package linear renders build progress as plain, task-prefixed lines.
package linear

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/bild/internal/ui/output"
	"go.trai.ch/bild/internal/ui/style"
)

// Renderer implements ports.Renderer. Status lines go to stderr, command
// output goes to stdout one complete line at a time.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	term   *termenv.Output

	mu    sync.Mutex
	spans map[string]*span
}

// span is a running task and its unterminated output.
type span struct {
	task    string
	started time.Time
	pending []byte
}

// NewRenderer creates a new Renderer. Nil writers mean os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		term:   output.NewWithProfile(stderr, output.ColorProfileANSI),
		spans:  make(map[string]*span),
	}
}

// Stop prints whatever output is still pending. Calling it twice is harmless.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.spans {
		r.drainLocked(s)
	}
	return nil
}

// OnPlanEmit prints the execution order once, before the first task starts.
func (r *Renderer) OnPlanEmit(tasks []string, _ map[string][]string, targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Building %s: %s\n",
		strings.Join(targets, ", "), strings.Join(tasks, " -> "))
}

// OnTaskStart opens a span for the task.
func (r *Renderer) OnTaskStart(spanID, _, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spans[spanID] = &span{task: name, started: startTime}
	_, _ = fmt.Fprintf(r.stderr, "%s %s started\n", r.tag(name), style.Dot)
}

// OnTaskLog prints every complete line in data and keeps the remainder.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.spans[spanID]
	if !ok {
		return
	}

	rest := append(s.pending, data...)
	for {
		line, tail, found := bytes.Cut(rest, []byte{'\n'})
		if !found {
			break
		}
		r.printLocked(s.task, line)
		rest = tail
	}
	s.pending = append(s.pending[:0], rest...)
}

// OnTaskComplete prints pending output and the task's outcome, then closes
// the span.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.spans[spanID]
	if !ok {
		return
	}
	delete(r.spans, spanID)
	r.drainLocked(s)

	took := endTime.Sub(s.started).Round(time.Millisecond)
	if err != nil {
		mark := r.term.String(style.Cross).Foreground(style.Red.RGB()).String()
		_, _ = fmt.Fprintf(r.stderr, "[%s] %s failed after %v: %v\n", s.task, mark, took, err)
		return
	}
	mark := r.term.String(style.Check).Foreground(style.Green.RGB()).String()
	_, _ = fmt.Fprintf(r.stderr, "[%s] %s done in %v\n", s.task, mark, took)
}

func (r *Renderer) tag(task string) string {
	return r.term.String("[" + task + "]").Faint().String()
}

// drainLocked prints the unterminated tail of a span. r.mu must be held.
func (r *Renderer) drainLocked(s *span) {
	if len(s.pending) == 0 {
		return
	}
	r.printLocked(s.task, s.pending)
	s.pending = s.pending[:0]
}

// printLocked writes one line of command output. Blank lines are dropped.
func (r *Renderer) printLocked(task string, line []byte) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", task, line)
}
