package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrUnknownTask is returned when a task is requested that is not registered.
	ErrUnknownTask = zerr.New("unknown task")

	// ErrDuplicateTask is returned when two tasks are registered under the same name.
	ErrDuplicateTask = zerr.New("duplicate task")

	// ErrCyclicDependency is returned when a task transitively requires itself.
	ErrCyclicDependency = zerr.New("cyclic dependency")

	// ErrCommandFailed is returned when an external command exits non-zero or cannot be launched.
	ErrCommandFailed = zerr.New("command failed")

	// ErrArtifactFetchFailed is returned when a remote artifact cannot be retrieved.
	ErrArtifactFetchFailed = zerr.New("artifact fetch failed")

	// ErrTaskFailed is returned when a task's action fails.
	ErrTaskFailed = zerr.New("task failed")

	// ErrRegistrySealed is returned when registering into a registry after startup.
	ErrRegistrySealed = zerr.New("task registry is sealed")

	// ErrInvalidTaskName is returned when a task is registered without a name.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrEmptyCommand is returned when an invocation has no program.
	ErrEmptyCommand = zerr.New("empty command")

	// ErrBuildLogUnavailable is returned when the build log cannot be opened or written.
	ErrBuildLogUnavailable = zerr.New("build log unavailable")

	// ErrConfigReadFailed is returned when the buildfile cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read buildfile")

	// ErrConfigParseFailed is returned when the buildfile is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse buildfile")

	// ErrInvalidStep is returned when a buildfile step is malformed.
	ErrInvalidStep = zerr.New("invalid step")

	// ErrBuildExecutionFailed is returned when a build invocation fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrInvalidOutputMode is returned for an unknown --output value.
	ErrInvalidOutputMode = zerr.New("invalid output mode")

	// ErrAmbiguousDefault is returned when the default task is requested but
	// the buildfile declares no default and has more than one top-level task.
	ErrAmbiguousDefault = zerr.New("no default task: declare one with default or name a task")
)

// Tag attaches metadata to a sentinel error. The sentinel is wrapped rather
// than copied so that errors.Is keeps matching it.
func Tag(kind error, keyvals ...any) error {
	err := zerr.Wrap(kind, "")
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		err = zerr.With(err, key, keyvals[i+1])
	}
	return err
}

// CommandError describes an external command that failed.
type CommandError struct {
	Program  string
	Args     []string
	ExitCode int
	Stderr   string
	// Err is set when the process could not be started or was killed.
	Err error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	argv := strings.Join(append([]string{e.Program}, e.Args...), " ")
	if e.ExitCode < 0 {
		if e.Err != nil {
			return fmt.Sprintf("command failed: %s: %v", argv, e.Err)
		}
		return "command failed: " + argv
	}
	return fmt.Sprintf("command failed: %s: exit status %d", argv, e.ExitCode)
}

// Message returns the error message without the launch error.
func (e *CommandError) Message() string {
	if e.ExitCode < 0 {
		return "command failed: " + strings.Join(append([]string{e.Program}, e.Args...), " ")
	}
	return e.Error()
}

// Is reports whether target is ErrCommandFailed.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}

// Unwrap returns the launch error, if any.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// TaskError attributes a failure to the task whose action failed.
type TaskError struct {
	Task string
	Err  error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task, e.Err)
}

// Message returns the error message without the cause chain.
func (e *TaskError) Message() string {
	return fmt.Sprintf("task %q failed", e.Task)
}

// Is reports whether target is ErrTaskFailed.
func (e *TaskError) Is(target error) bool {
	return target == ErrTaskFailed
}

// Unwrap returns the cause of the task failure.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// BuildError reports a failed build invocation of Target.
type BuildError struct {
	Target string
	Err    error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %v", ErrBuildExecutionFailed, e.Err)
}

// Message returns the error message without the cause chain.
func (e *BuildError) Message() string {
	return ErrBuildExecutionFailed.Error()
}

// Metadata returns the requested target.
func (e *BuildError) Metadata() map[string]any {
	return map[string]any{"target": e.Target}
}

// Is reports whether target is ErrBuildExecutionFailed.
func (e *BuildError) Is(target error) bool {
	return target == ErrBuildExecutionFailed
}

// Unwrap returns the cause of the build failure.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Describe renders err followed by the metadata attached anywhere in its
// chain, e.g. "cyclic dependency (cycle: a -> b -> a)". Outer values win
// over inner ones with the same key.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	meta := make(map[string]any)
	collectMetadata(err, meta)
	if len(meta) == 0 {
		return err.Error()
	}

	keys := slices.Sorted(maps.Keys(meta))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, meta[k])
	}
	return fmt.Sprintf("%s (%s)", err.Error(), strings.Join(parts, ", "))
}

func collectMetadata(err error, into map[string]any) {
	for err != nil {
		if md, ok := err.(interface{ Metadata() map[string]any }); ok {
			for k, v := range md.Metadata() {
				if _, seen := into[k]; !seen {
					into[k] = v
				}
			}
		}
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range multi.Unwrap() {
				collectMetadata(e, into)
			}
			return
		}
		err = errors.Unwrap(err)
	}
}
