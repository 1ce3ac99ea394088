package domain_test

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bild/internal/core/domain"
)

func TestTag_KeepsSentinel(t *testing.T) {
	err := domain.Tag(domain.ErrUnknownTask, "task", "deploy", "required_by", "all")

	require.ErrorIs(t, err, domain.ErrUnknownTask)
	assert.Equal(t, "unknown task", err.Error())

	meta := metadata(t, err)
	assert.Equal(t, "deploy", meta["task"])
	assert.Equal(t, "all", meta["required_by"])
}

func TestCommandError(t *testing.T) {
	t.Run("non-zero exit", func(t *testing.T) {
		err := error(&domain.CommandError{Program: "javac", Args: []string{"-d", "out"}, ExitCode: 2})

		require.ErrorIs(t, err, domain.ErrCommandFailed)
		assert.Equal(t, "command failed: javac -d out: exit status 2", err.Error())
	})

	t.Run("launch failure unwraps", func(t *testing.T) {
		err := error(&domain.CommandError{Program: "antlr4", ExitCode: -1, Err: exec.ErrNotFound})

		require.ErrorIs(t, err, domain.ErrCommandFailed)
		require.ErrorIs(t, err, exec.ErrNotFound)
		assert.Contains(t, err.Error(), "antlr4")
	})
}

func TestTaskError(t *testing.T) {
	cause := &domain.CommandError{Program: "javac", ExitCode: 1}
	err := error(&domain.TaskError{Task: "compile", Err: cause})

	require.ErrorIs(t, err, domain.ErrTaskFailed)
	require.ErrorIs(t, err, domain.ErrCommandFailed)

	var taskErr *domain.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "compile", taskErr.Task)
	assert.Equal(t, `task "compile" failed`, taskErr.Message())
}

func TestBuildError(t *testing.T) {
	cycle := domain.Tag(domain.ErrCyclicDependency, "cycle", "a -> b -> a")
	err := error(&domain.BuildError{Target: "a", Err: cycle})

	require.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
	require.ErrorIs(t, err, domain.ErrCyclicDependency)
	assert.Equal(t, "build execution failed: cyclic dependency", err.Error())

	var buildErr *domain.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "build execution failed", buildErr.Message())
	assert.Equal(t, map[string]any{"target": "a"}, buildErr.Metadata())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "boom",
		},
		{
			name: "cycle path",
			err:  domain.Tag(domain.ErrCyclicDependency, "cycle", "a -> b -> a"),
			want: "cyclic dependency (cycle: a -> b -> a)",
		},
		{
			name: "keys sorted",
			err:  domain.Tag(domain.ErrUnknownTask, "task", "deploy", "required_by", "all"),
			want: "unknown task (required_by: all, task: deploy)",
		},
		{
			name: "metadata inside a join",
			err:  errors.Join(domain.Tag(domain.ErrUnknownTask, "task", "deploy"), errors.New("disk full")),
			want: "unknown task\ndisk full (task: deploy)",
		},
		{
			name: "metadata below a typed error",
			err: &domain.TaskError{
				Task: "compile",
				Err:  domain.Tag(&domain.CommandError{Program: "javac", ExitCode: 1}, "step", "1 (run)"),
			},
			want: `task "compile" failed: command failed: javac: exit status 1 (step: 1 (run))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Describe(tt.err))
		})
	}
}
