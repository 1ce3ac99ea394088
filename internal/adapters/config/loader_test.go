package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bild/internal/adapters/config"
	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/bild/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const sampleBuildfile = `
version: "0.0.1"
default: [mkjar]
vars:
  antlr: antlr-4.5-complete.jar
  out: out
tasks:
  parser:
    description: generate the parser
    steps:
      - run: [antlr4, -visitor, -o, gen, Resolve.g4]
  compile:
    description: compile the sources
    deps: [parser]
    steps:
      - fetch: {url: "http://www.antlr.org/download/${antlr}"}
      - run: [javac, -d, "${out}", Main.java]
        classpath: ["${out}", "${jarcache}/${antlr}"]
        env: {LANG: C}
  mkjar:
    deps: [compile]
    steps:
      - mkdir: dist
      - copy: {from: compiler/resources, to: "${out}"}
      - run: [jar, cf, "dist/resolve${version}.jar", -C, out, .]
        log: "Generated dist/resolve${version}.jar by ${user}"
  clean:
    steps:
      - remove: out
      - remove: gen
`

type fixture struct {
	loader  *config.Loader
	runner  *mocks.MockCommandRunner
	fetcher *mocks.MockArtifactFetcher
	fs      *mocks.MockFileSystem
	logger  *mocks.MockLogger
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		runner:  mocks.NewMockCommandRunner(ctrl),
		fetcher: mocks.NewMockArtifactFetcher(ctrl),
		fs:      mocks.NewMockFileSystem(ctrl),
		logger:  mocks.NewMockLogger(ctrl),
		dir:     t.TempDir(),
	}
	settings := config.DefaultSettings()
	settings.JarCache = "/var/cache/jars"

	f.loader = config.NewLoader(f.logger, f.runner, f.fetcher, f.fs, settings)
	f.loader.LookupEnv = func(name string) (string, bool) {
		if name == "HOME_DIR" {
			return "/home/parrt", true
		}
		return "", false
	}
	f.loader.CurrentUser = func() string { return "parrt" }
	return f
}

func (f *fixture) write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, "bild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (f *fixture) load(t *testing.T, content string) *domain.Registry {
	t.Helper()
	reg, err := f.loader.Load(f.write(t, content))
	require.NoError(t, err)
	return reg
}

func lookup(t *testing.T, reg *domain.Registry, name string) *domain.Task {
	t.Helper()
	task, err := reg.Lookup(name)
	require.NoError(t, err)
	return task
}

func TestLoad_RegistersTasks(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, sampleBuildfile)

	assert.Equal(t, []string{"all", "clean", "compile", "mkjar", "parser"}, reg.Names())
	require.ErrorIs(t, reg.Register("late", nil), domain.ErrRegistrySealed)

	compile := lookup(t, reg, "compile")
	assert.Equal(t, "compile the sources", compile.Description)
	assert.Equal(t, []string{"parser"}, domain.Strings(compile.Prerequisites))

	all := lookup(t, reg, domain.DefaultTask)
	assert.Equal(t, []string{"mkjar"}, domain.Strings(all.Prerequisites))
	assert.Nil(t, all.Action)

	order, err := reg.Plan(domain.DefaultTask)
	require.NoError(t, err)
	assert.Equal(t, []string{"parser", "compile", "mkjar", "all"}, domain.Strings(order))
}

func TestLoad_DefaultDependsOnSingleTopLevelTask(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, `
tasks:
  parser: {}
  compile: {deps: [parser]}
`)

	all := lookup(t, reg, domain.DefaultTask)
	assert.Equal(t, []string{"compile"}, domain.Strings(all.Prerequisites))
}

func TestLoad_AmbiguousDefault(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, `
tasks:
  compile: {}
  tests: {deps: [compile]}
  wipe:
    steps:
      - remove: out
`)

	order, err := reg.Plan(domain.DefaultTask)
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, domain.Strings(order))

	err = lookup(t, reg, domain.DefaultTask).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrAmbiguousDefault)
	assert.Contains(t, domain.Describe(err), "candidates: tests, wipe")

	// Named tasks still load and run.
	f.fs.EXPECT().Remove(gomock.Any(), filepath.Join(f.dir, "out")).Return(nil)
	require.NoError(t, lookup(t, reg, "wipe").Run(context.Background()))
}

func TestLoad_DeclaredAllIsKept(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, `
tasks:
  all: {deps: [tests]}
  tests: {}
`)

	all := lookup(t, reg, domain.DefaultTask)
	assert.Equal(t, []string{"tests"}, domain.Strings(all.Prerequisites))
}

func TestLoad_EmptyFile(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, "")

	assert.Equal(t, []string{domain.DefaultTask}, reg.Names())
}

func TestCompileAction_RunsStepsInOrder(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, sampleBuildfile)

	gomock.InOrder(
		f.fetcher.EXPECT().
			Fetch(gomock.Any(), "http://www.antlr.org/download/antlr-4.5-complete.jar", "/var/cache/jars").
			Return("/var/cache/jars/antlr-4.5-complete.jar", nil),
		f.runner.EXPECT().
			Run(gomock.Any(), &domain.Invocation{
				Program:   "javac",
				Args:      []string{"-d", "out", "Main.java"},
				Dir:       f.dir,
				Env:       map[string]string{"LANG": "C"},
				Classpath: []string{filepath.Join(f.dir, "out"), "/var/cache/jars/antlr-4.5-complete.jar"},
			}).
			Return(&domain.CommandResult{}, nil),
	)

	require.NoError(t, lookup(t, reg, "compile").Run(context.Background()))
}

func TestMkjarAction_LogsToConsoleAndBuildLog(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, sampleBuildfile)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockBuildLog(ctrl)
	ctx := ports.ContextWithBuildLog(context.Background(), log)

	gomock.InOrder(
		f.fs.EXPECT().MakeDir(gomock.Any(), filepath.Join(f.dir, "dist")).Return(nil),
		f.fs.EXPECT().CopyTree(gomock.Any(), filepath.Join(f.dir, "compiler", "resources"), filepath.Join(f.dir, "out")).Return(nil),
		f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, inv *domain.Invocation) (*domain.CommandResult, error) {
				assert.Equal(t, []string{"jar", "cf", "dist/resolve0.0.1.jar", "-C", "out", "."}, inv.Argv())
				return &domain.CommandResult{}, nil
			}),
		f.logger.EXPECT().Info("Generated dist/resolve0.0.1.jar by parrt"),
		log.EXPECT().Record("mkjar", "Generated dist/resolve0.0.1.jar by parrt").Return(nil),
	)

	require.NoError(t, lookup(t, reg, "mkjar").Run(ctx))
}

func TestCleanAction_RemovesOutputs(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, sampleBuildfile)

	gomock.InOrder(
		f.fs.EXPECT().Remove(gomock.Any(), filepath.Join(f.dir, "out")).Return(nil),
		f.fs.EXPECT().Remove(gomock.Any(), filepath.Join(f.dir, "gen")).Return(nil),
	)

	require.NoError(t, lookup(t, reg, "clean").Run(context.Background()))
}

func TestAction_StopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, `
tasks:
  tests:
    steps:
      - run: [java, org.junit.runner.JUnitCore, AllTests]
      - log: never printed
`)

	cmdErr := &domain.CommandError{Program: "java", Args: []string{"org.junit.runner.JUnitCore", "AllTests"}, ExitCode: 1}
	f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&domain.CommandResult{ExitCode: 1}, cmdErr)

	err := lookup(t, reg, "tests").Run(context.Background())
	require.ErrorIs(t, err, domain.ErrCommandFailed)

	var got *domain.CommandError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 1, got.ExitCode)
}

func TestLoad_ExpandsEnvironmentAndVars(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, `
version: "1.2"
vars:
  dist: "${HOME_DIR}/dist-${version}"
tasks:
  package:
    steps:
      - mkdir: "${dist}"
`)

	f.fs.EXPECT().MakeDir(gomock.Any(), "/home/parrt/dist-1.2").Return(nil)
	require.NoError(t, lookup(t, reg, "package").Run(context.Background()))
}

func TestLoad_VarOverridesJarCache(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, `
vars:
  jarcache: /opt/jars
tasks:
  deps:
    steps:
      - fetch: {url: "https://repo1.maven.org/maven2/junit/junit/4.12/junit-4.12.jar"}
`)

	f.fetcher.EXPECT().
		Fetch(gomock.Any(), "https://repo1.maven.org/maven2/junit/junit/4.12/junit-4.12.jar", "/opt/jars").
		Return("/opt/jars/junit-4.12.jar", nil)
	require.NoError(t, lookup(t, reg, "deps").Run(context.Background()))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{
			name:    "invalid yaml",
			content: "tasks: [unclosed",
			want:    domain.ErrConfigParseFailed,
		},
		{
			name:    "unknown field",
			content: "tasks:\n  a:\n    dependsOn: [b]\n",
			want:    domain.ErrConfigParseFailed,
		},
		{
			name:    "unknown prerequisite",
			content: "tasks:\n  compile:\n    deps: [parser]\n",
			want:    domain.ErrUnknownTask,
		},
		{
			name:    "unknown default",
			content: "default: [missing]\ntasks:\n  a: {}\n",
			want:    domain.ErrUnknownTask,
		},
		{
			name:    "two step kinds",
			content: "tasks:\n  a:\n    steps:\n      - {mkdir: out, remove: gen}\n",
			want:    domain.ErrInvalidStep,
		},
		{
			name:    "empty step",
			content: "tasks:\n  a:\n    steps:\n      - {}\n",
			want:    domain.ErrInvalidStep,
		},
		{
			name:    "undefined variable",
			content: "tasks:\n  a:\n    steps:\n      - mkdir: \"${nope}\"\n",
			want:    domain.ErrInvalidStep,
		},
		{
			name:    "dir on a non-run step",
			content: "tasks:\n  a:\n    steps:\n      - {mkdir: out, dir: sub}\n",
			want:    domain.ErrInvalidStep,
		},
		{
			name:    "duplicate task",
			content: "tasks:\n  compile: {}\n  compile: {}\n",
			want:    domain.ErrDuplicateTask,
		},
		{
			name:    "write without path",
			content: "tasks:\n  a:\n    steps:\n      - write: {content: x}\n",
			want:    domain.ErrInvalidStep,
		},
		{
			name:    "copy without target",
			content: "tasks:\n  a:\n    steps:\n      - copy: {from: res}\n",
			want:    domain.ErrInvalidStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.loader.Load(f.write(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_DuplicateTaskNamesLine(t *testing.T) {
	f := newFixture(t)
	_, err := f.loader.Load(f.write(t, "version: \"1\"\ntasks:\n  compile: {}\n  tests: {}\n  compile:\n    deps: [tests]\n"))
	require.ErrorIs(t, err, domain.ErrDuplicateTask)
	require.NotErrorIs(t, err, domain.ErrConfigParseFailed)
	assert.Equal(t, "duplicate task (first_line: 3, line: 5, path: "+filepath.Join(f.dir, "bild.yaml")+", task: compile)",
		domain.Describe(err))
}

func TestMkjarAction_WritesManifest(t *testing.T) {
	f := newFixture(t)
	reg := f.load(t, `
version: "0.0.1"
tasks:
  mkjar:
    steps:
      - run: [jar, xf, "${jarcache}/antlr-runtime-4.5.jar"]
        dir: out
      - write:
          path: out/manifest
          content: |
            Version: ${version}
            Built-By: ${user}
      - run: [jar, cmf, out/manifest, "dist/resolve${version}.jar", -C, out, .]
`)

	gomock.InOrder(
		f.runner.EXPECT().
			Run(gomock.Any(), &domain.Invocation{
				Program: "jar",
				Args:    []string{"xf", "/var/cache/jars/antlr-runtime-4.5.jar"},
				Dir:     filepath.Join(f.dir, "out"),
			}).
			Return(&domain.CommandResult{}, nil),
		f.fs.EXPECT().
			WriteFile(gomock.Any(), filepath.Join(f.dir, "out", "manifest"), "Version: 0.0.1\nBuilt-By: parrt\n").
			Return(nil),
		f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, inv *domain.Invocation) (*domain.CommandResult, error) {
				assert.Equal(t, []string{"jar", "cmf", "out/manifest", "dist/resolve0.0.1.jar", "-C", "out", "."}, inv.Argv())
				return &domain.CommandResult{}, nil
			}),
	)

	require.NoError(t, lookup(t, reg, "mkjar").Run(context.Background()))
}

func TestLoad_MissingFile(t *testing.T) {
	f := newFixture(t)

	_, err := f.loader.Load(filepath.Join(f.dir, "missing.yaml"))
	require.ErrorIs(t, err, domain.ErrConfigReadFailed)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
