// Package app implements the application layer for bild: one build
// invocation from buildfile to exit status.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/bild/internal/adapters/detector"
	"go.trai.ch/bild/internal/adapters/telemetry"
	"go.trai.ch/bild/internal/build"
	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/bild/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	logOpener    ports.BuildLogOpener
	fs           ports.FileSystem
	renderer     ports.Renderer

	out    io.Writer
	detect func() detector.OutputMode
	newID  func() string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	opener ports.BuildLogOpener,
	fsys ports.FileSystem,
	renderer ports.Renderer,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		logOpener:    opener,
		fs:           fsys,
		renderer:     renderer,
		out:          os.Stdout,
		detect:       detector.DetectEnvironment,
		newID:        uuid.NewString,
	}
}

// WithOutput sets where task listings and plans are printed.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithDetector replaces output mode auto-detection.
func (a *App) WithDetector(detect func() detector.OutputMode) *App {
	a.detect = detect
	return a
}

// WithIDGenerator replaces the invocation id generator.
func (a *App) WithIDGenerator(newID func() string) *App {
	a.newID = newID
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	Buildfile string
	LogFile   string
	// Output is "auto", "linear" or "quiet".
	Output string
}

// Run builds target, or the default task when target is empty. Every
// outcome is recorded in the build log at opts.LogFile, which is closed on
// all paths.
func (a *App) Run(ctx context.Context, target string, opts RunOptions) (err error) {
	if target == "" {
		target = domain.DefaultTask
	}

	log, err := a.logOpener.Open(opts.LogFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := log.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	header := fmt.Sprintf("bild %s invocation %s: target=%s buildfile=%s",
		build.Version, a.newID(), target, opts.Buildfile)
	if err := log.Record(scheduler.BuildTag, header); err != nil {
		return err
	}

	registry, err := a.configLoader.Load(opts.Buildfile)
	if err != nil {
		if logErr := log.Record(scheduler.BuildTag, "FAIL load: "+domain.Describe(err)); logErr != nil {
			return errors.Join(err, logErr)
		}
		return err
	}

	tracer, shutdown := a.tracer(opts.Output)
	sched := scheduler.New(registry, log, tracer)
	buildErr := sched.Build(ctx, target)
	shutdown()

	if buildErr != nil {
		failed := target
		var taskErr *domain.TaskError
		if errors.As(buildErr, &taskErr) {
			failed = taskErr.Task
			buildErr = taskErr
		}
		failure := &domain.BuildError{Target: target, Err: buildErr}
		if logErr := log.Record(scheduler.BuildTag,
			fmt.Sprintf("FAIL %s: %s", failed, domain.Describe(cause(buildErr)))); logErr != nil {
			return errors.Join(failure, logErr)
		}
		return failure
	}

	return log.Record(scheduler.BuildTag,
		fmt.Sprintf("SUCCESS %s: %d task(s) run", target, len(sched.Completed())))
}

// tracer returns the tracer for the resolved output mode and a function
// that flushes it.
func (a *App) tracer(output string) (ports.Tracer, func()) {
	mode := detector.ResolveMode(a.detect(), output)
	if mode != detector.ModeLinear || a.renderer == nil {
		return telemetry.NewNoOpTracer(), func() {}
	}

	tp := telemetry.Setup(a.renderer)
	tracer := telemetry.NewOTelTracerFrom(tp, telemetry.InstrumentationName).WithRenderer(a.renderer)
	return tracer, func() {
		// Shutdown stops the renderer through the bridge.
		if err := tp.Shutdown(context.Background()); err != nil {
			a.logger.Warn(fmt.Sprintf("failed to flush progress output: %v", err))
		}
	}
}

// cause strips the task attribution so the FAIL record names the task once.
func cause(err error) error {
	var taskErr *domain.TaskError
	if errors.As(err, &taskErr) && taskErr.Err != nil {
		return taskErr.Err
	}
	return err
}

// Tasks prints every task of the buildfile with its description, its
// prerequisites and the tasks that require it.
func (a *App) Tasks(_ context.Context, buildfile string) error {
	registry, err := a.configLoader.Load(buildfile)
	if err != nil {
		return err
	}

	names := registry.Names()
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	for _, name := range names {
		task, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%-*s", width, name)
		if task.Description != "" {
			line += "  " + task.Description
		}
		if len(task.Prerequisites) > 0 {
			line += fmt.Sprintf("  [requires: %s]", strings.Join(domain.Strings(task.Prerequisites), ", "))
		}
		if dependents := registry.Dependents(name); len(dependents) > 0 {
			line += fmt.Sprintf("  [required by: %s]", strings.Join(dependents, ", "))
		}
		if _, err := fmt.Fprintln(a.out, strings.TrimRight(line, " ")); err != nil {
			return zerr.Wrap(err, "failed to print tasks")
		}
	}
	return nil
}

// Plan prints the order in which building target would run its tasks,
// without running any of them.
func (a *App) Plan(_ context.Context, buildfile, target string) error {
	if target == "" {
		target = domain.DefaultTask
	}

	registry, err := a.configLoader.Load(buildfile)
	if err != nil {
		return err
	}

	order, err := registry.Plan(target)
	if err != nil {
		return err
	}

	for i, name := range order {
		if _, err := fmt.Fprintf(a.out, "%d. %s\n", i+1, name); err != nil {
			return zerr.Wrap(err, "failed to print plan")
		}
	}
	return nil
}

// CleanOptions configuration for the Clean method. Empty paths are skipped.
type CleanOptions struct {
	LogFile  string
	JarCache string
}

// Clean removes the build log and the shared artifact cache.
func (a *App) Clean(ctx context.Context, options CleanOptions) error {
	var errs error

	remove := func(path, name string) {
		if path == "" {
			return
		}
		if err := a.fs.Remove(ctx, path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s (%s)", name, path))
	}

	remove(options.LogFile, "build log")
	remove(options.JarCache, "artifact cache")

	return errs
}
