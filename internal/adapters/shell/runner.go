// Package shell runs external programs as argument vectors.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/zerr"
)

// CommandTag is the build log tag for command records.
const CommandTag = "CMD"

// stderrTailLines bounds how much captured stderr is kept on a CommandError.
const stderrTailLines = 20

// Runner implements ports.CommandRunner using os/exec.
type Runner struct {
	logger  ports.Logger
	environ func() []string
}

// NewRunner creates a Runner. Output of commands that run outside a task
// span is forwarded to logger.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{
		logger:  logger,
		environ: os.Environ,
	}
}

// Run launches the invocation, waits for it and captures its output.
// Each invocation is recorded in the build log carried by ctx before and
// after it runs. There are no retries.
func (r *Runner) Run(ctx context.Context, inv *domain.Invocation) (*domain.CommandResult, error) {
	if inv == nil || inv.Program == "" {
		return nil, domain.ErrEmptyCommand
	}

	log := ports.BuildLogFromContext(ctx)
	if err := log.Record(CommandTag, describe(inv)); err != nil {
		return nil, err
	}

	env := inv.Environ(r.environ())

	executable := inv.Program
	if !filepath.IsAbs(executable) && !strings.ContainsRune(executable, filepath.Separator) {
		if lp, err := lookPath(executable, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, inv.Args...) //nolint:gosec // argv comes from the buildfile
	cmd.Args[0] = inv.Program
	cmd.Dir = inv.Dir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	stdoutW, stderrW, flush := r.outputs(ctx, &stdout, &stderr)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	start := time.Now()
	runErr := cmd.Run()
	flush()

	result := &domain.CommandResult{
		ExitCode: exitCode(runErr),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	launched := runErr == nil || errors.As(runErr, &exitErr)

	summary := fmt.Sprintf("exit %d after %s", result.ExitCode, result.Duration.Round(time.Millisecond))
	if !launched {
		summary = fmt.Sprintf("launch failed: %v", runErr)
	}
	if err := log.Record(CommandTag, summary); err != nil {
		return result, err
	}

	if runErr == nil {
		return result, nil
	}

	tail := tailLines(stderr.String(), stderrTailLines)
	if tail != "" {
		if err := log.Record(CommandTag, tail); err != nil {
			return result, err
		}
	}

	cmdErr := &domain.CommandError{
		Program:  inv.Program,
		Args:     inv.Args,
		ExitCode: result.ExitCode,
		Stderr:   tail,
	}
	if !launched {
		cmdErr.Err = zerr.Wrap(runErr, "failed to start process")
	}
	return result, cmdErr
}

// outputs returns the writers a command's streams are copied to. Output is
// always captured; it is also streamed to the task span when one is active,
// or to the console logger otherwise.
func (r *Runner) outputs(ctx context.Context, stdout, stderr *bytes.Buffer) (io.Writer, io.Writer, func()) {
	if span, ok := ports.SpanFromContext(ctx); ok {
		return io.MultiWriter(stdout, span), io.MultiWriter(stderr, span), func() {}
	}
	if r.logger == nil {
		return stdout, stderr, func() {}
	}

	outLog := &logWriter{logger: r.logger, level: levelInfo}
	errLog := &logWriter{logger: r.logger, level: levelWarn}
	flush := func() {
		_ = outLog.Close()
		_ = errLog.Close()
	}
	return io.MultiWriter(stdout, outLog), io.MultiWriter(stderr, errLog), flush
}

func describe(inv *domain.Invocation) string {
	msg := "exec " + inv.String()
	if inv.Dir != "" {
		msg += " (dir=" + inv.Dir + ")"
	}
	if len(inv.Classpath) > 0 {
		msg += " (classpath=" + strings.Join(inv.Classpath, string(os.PathListSeparator)) + ")"
	}
	return msg
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env rather than the current process environment.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
