package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bild/cmd/bild/commands"
	"go.trai.ch/bild/internal/app"
	"go.trai.ch/bild/internal/build"
	"go.trai.ch/bild/internal/core/domain"
)

type mockApp struct {
	runFunc   func(ctx context.Context, target string, opts app.RunOptions) error
	tasksFunc func(ctx context.Context, buildfile string) error
	planFunc  func(ctx context.Context, buildfile, target string) error
	cleanFunc func(ctx context.Context, opts app.CleanOptions) error
}

func (m *mockApp) Run(ctx context.Context, target string, opts app.RunOptions) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, target, opts)
	}
	return nil
}

func (m *mockApp) Tasks(ctx context.Context, buildfile string) error {
	if m.tasksFunc != nil {
		return m.tasksFunc(ctx, buildfile)
	}
	return nil
}

func (m *mockApp) Plan(ctx context.Context, buildfile, target string) error {
	if m.planFunc != nil {
		return m.planFunc(ctx, buildfile, target)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

var defaults = commands.Defaults{
	Buildfile: "bild.yaml",
	LogFile:   "bild.log",
	JarCache:  "/home/dev/.bild/jars",
	Output:    "auto",
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.RunOptions
		var capturedTarget string
		called := false

		mock := &mockApp{
			runFunc: func(_ context.Context, target string, opts app.RunOptions) error {
				capturedOpts = opts
				capturedTarget = target
				called = true
				return nil
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"run", "compile", "-f", "other.yaml", "--log-file", "out.log", "-o", "quiet"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, "compile", capturedTarget)
		assert.Equal(t, app.RunOptions{Buildfile: "other.yaml", LogFile: "out.log", Output: "quiet"}, capturedOpts)
	})

	t.Run("uses defaults when flags are absent", func(t *testing.T) {
		var capturedOpts app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, _ string, opts app.RunOptions) error {
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"run", "compile"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, app.RunOptions{Buildfile: "bild.yaml", LogFile: "bild.log", Output: "auto"}, capturedOpts)
	})

	t.Run("empty defaults fall back to built-in values", func(t *testing.T) {
		var capturedOpts app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, _ string, opts app.RunOptions) error {
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock, commands.Defaults{})
		cli.SetArgs([]string{"run"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, app.RunOptions{Buildfile: "bild.yaml", LogFile: "bild.log", Output: "auto"}, capturedOpts)
	})

	t.Run("no task builds the default", func(t *testing.T) {
		capturedTarget := "unset"
		mock := &mockApp{
			runFunc: func(_ context.Context, target string, _ app.RunOptions) error {
				capturedTarget = target
				return nil
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"run"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Empty(t, capturedTarget)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ string, _ app.RunOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"run", "target"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects more than one task", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ string, _ app.RunOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"run", "a", "b"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		require.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Root(t *testing.T) {
	t.Run("positional task is built", func(t *testing.T) {
		var capturedTarget string
		mock := &mockApp{
			runFunc: func(_ context.Context, target string, _ app.RunOptions) error {
				capturedTarget = target
				return nil
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"mkjar"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "mkjar", capturedTarget)
	})

	t.Run("no arguments builds the default", func(t *testing.T) {
		called := false
		mock := &mockApp{
			runFunc: func(_ context.Context, target string, _ app.RunOptions) error {
				called = true
				assert.Empty(t, target)
				return nil
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, called)
	})
}

func TestCommands_Tasks(t *testing.T) {
	var capturedBuildfile string
	mock := &mockApp{
		tasksFunc: func(_ context.Context, buildfile string) error {
			capturedBuildfile = buildfile
			return nil
		},
	}

	cli := commands.New(mock, defaults)
	cli.SetArgs([]string{"tasks", "--file", "tools/bild.yaml"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "tools/bild.yaml", capturedBuildfile)
}

func TestCommands_Plan(t *testing.T) {
	var capturedBuildfile, capturedTarget string
	mock := &mockApp{
		planFunc: func(_ context.Context, buildfile, target string) error {
			capturedBuildfile = buildfile
			capturedTarget = target
			return nil
		},
	}

	cli := commands.New(mock, defaults)
	cli.SetArgs([]string{"plan", "mkjar"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "bild.yaml", capturedBuildfile)
	assert.Equal(t, "mkjar", capturedTarget)
}

func TestCommands_Clean(t *testing.T) {
	t.Run("no flags runs the clean task", func(t *testing.T) {
		var capturedTarget string
		mock := &mockApp{
			runFunc: func(_ context.Context, target string, _ app.RunOptions) error {
				capturedTarget = target
				return nil
			},
			cleanFunc: func(_ context.Context, _ app.CleanOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"clean"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "clean", capturedTarget)
	})

	tests := []struct {
		name     string
		args     []string
		expected app.CleanOptions
	}{
		{
			name:     "log only",
			args:     []string{"clean", "--log"},
			expected: app.CleanOptions{LogFile: "bild.log"},
		},
		{
			name:     "cache only",
			args:     []string{"clean", "--cache"},
			expected: app.CleanOptions{JarCache: "/home/dev/.bild/jars"},
		},
		{
			name:     "both with custom log file",
			args:     []string{"clean", "--log", "--cache", "--log-file", "custom.log"},
			expected: app.CleanOptions{LogFile: "custom.log", JarCache: "/home/dev/.bild/jars"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured app.CleanOptions
			mock := &mockApp{
				runFunc: func(_ context.Context, _ string, _ app.RunOptions) error {
					panic("should not be called")
				},
				cleanFunc: func(_ context.Context, opts app.CleanOptions) error {
					captured = opts
					return nil
				},
			}

			cli := commands.New(mock, defaults)
			cli.SetArgs(tt.args)

			require.NoError(t, cli.Execute(context.Background()))
			assert.Equal(t, tt.expected, captured)
		})
	}
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock, defaults)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "bild version "+build.Version)
}

func TestCommands_VersionFlag(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock, defaults)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"--version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), build.Version)
}

type recordingFormatter struct {
	calls []bool
}

func (f *recordingFormatter) SetJSON(enable bool) {
	f.calls = append(f.calls, enable)
}

func TestCommands_OutputMode(t *testing.T) {
	t.Run("rejects unknown mode", func(t *testing.T) {
		called := false
		mock := &mockApp{
			runFunc: func(context.Context, string, app.RunOptions) error {
				called = true
				return nil
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"run", "compile", "-o", "tui"})

		err := cli.Execute(context.Background())
		require.ErrorIs(t, err, domain.ErrInvalidOutputMode)
		assert.Contains(t, domain.Describe(err), "output: tui")
		assert.False(t, called)
	})

	t.Run("rejects unknown mode on subcommands", func(t *testing.T) {
		cli := commands.New(&mockApp{}, defaults)
		cli.SetArgs([]string{"tasks", "--output", "fancy"})

		err := cli.Execute(context.Background())
		require.ErrorIs(t, err, domain.ErrInvalidOutputMode)
	})

	t.Run("accepts ci", func(t *testing.T) {
		var got string
		mock := &mockApp{
			runFunc: func(_ context.Context, _ string, opts app.RunOptions) error {
				got = opts.Output
				return nil
			},
		}

		cli := commands.New(mock, defaults)
		cli.SetArgs([]string{"-o", "ci"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "ci", got)
	})
}

func TestCommands_JSON(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []bool
	}{
		{name: "default is pretty", args: []string{"tasks"}, want: []bool{false}},
		{name: "flag enables json", args: []string{"tasks", "--json"}, want: []bool{true}},
		{name: "flag on root build", args: []string{"--json", "compile"}, want: []bool{true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &recordingFormatter{}
			cli := commands.New(&mockApp{}, defaults)
			cli.SetLogFormatter(f)
			cli.SetArgs(tt.args)

			require.NoError(t, cli.Execute(context.Background()))
			assert.Equal(t, tt.want, f.calls)
		})
	}

	t.Run("without formatter", func(t *testing.T) {
		cli := commands.New(&mockApp{}, defaults)
		cli.SetArgs([]string{"tasks", "--json"})

		require.NoError(t, cli.Execute(context.Background()))
	})
}
