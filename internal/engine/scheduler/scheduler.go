// Package scheduler implements the memoized task executor.
//
// Ensure is the "require" primitive: a task's action runs at most once per
// invocation once it has succeeded, every prerequisite runs before the
// dependent task, and a task that transitively requires itself is reported
// as a cycle instead of recursing forever.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/zerr"
)

// BuildTag is the build log tag for invocation-level records.
const BuildTag = "BUILD"

// Scheduler executes tasks from a sealed registry for one build invocation.
// It owns the task status map and the execution record.
type Scheduler struct {
	registry *domain.Registry
	log      ports.BuildLog
	tracer   ports.Tracer

	mu        sync.RWMutex
	status    map[domain.InternedString]domain.TaskStatus
	completed []domain.InternedString
	stack     []domain.InternedString
}

// New creates a Scheduler. A nil log discards records.
func New(registry *domain.Registry, log ports.BuildLog, tracer ports.Tracer) *Scheduler {
	if log == nil {
		log = ports.NopBuildLog{}
	}
	return &Scheduler{
		registry: registry,
		log:      log,
		tracer:   tracer,
		status:   make(map[domain.InternedString]domain.TaskStatus),
	}
}

// Build validates the dependency closure of root and then ensures it.
// An empty root builds the default task. Unknown tasks and cycles are
// reported before any action runs.
func (s *Scheduler) Build(ctx context.Context, root string) error {
	if root == "" {
		root = domain.DefaultTask
	}

	if _, err := s.registry.Lookup(root); err != nil {
		return err
	}

	order, err := s.registry.Plan(root)
	if err != nil {
		return err
	}

	names := domain.Strings(order)
	deps := make(map[string][]string, len(order))
	for _, name := range order {
		if task, ok := s.registry.Get(name); ok {
			deps[name.String()] = domain.Strings(task.Prerequisites)
		}
	}
	s.tracer.EmitPlan(ctx, names, deps, root)

	if err := s.log.Record(BuildTag, fmt.Sprintf("plan %s: %v", root, names)); err != nil {
		return err
	}

	return s.Ensure(ctx, root)
}

// Ensure runs name's prerequisites and then its action, unless the task
// already completed during this invocation.
func (s *Scheduler) Ensure(ctx context.Context, name string) error {
	return s.ensure(ports.ContextWithBuildLog(ctx, s.log), domain.NewInternedString(name), domain.InternedString{})
}

func (s *Scheduler) ensure(ctx context.Context, name, requiredBy domain.InternedString) error {
	switch s.Status(name.String()) {
	case domain.StatusDone:
		return nil
	case domain.StatusInProgress:
		return s.cycleError(name)
	}

	task, ok := s.registry.Get(name)
	if !ok {
		if requiredBy.IsZero() {
			return domain.Tag(domain.ErrUnknownTask, "task", name.String())
		}
		return domain.Tag(domain.ErrUnknownTask, "task", name.String(), "required_by", requiredBy.String())
	}

	s.push(name)
	defer s.pop()

	for _, prereq := range task.Prerequisites {
		if err := s.ensure(ctx, prereq, name); err != nil {
			s.setStatus(name, domain.StatusFailed)
			return err
		}
	}

	if err := s.run(ctx, task); err != nil {
		s.setStatus(name, domain.StatusFailed)
		return &domain.TaskError{Task: name.String(), Err: err}
	}

	s.mu.Lock()
	s.status[name] = domain.StatusDone
	s.completed = append(s.completed, name)
	s.mu.Unlock()
	return nil
}

// run executes the task's action inside a span, recording start and
// outcome in the build log.
func (s *Scheduler) run(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return zerr.Wrap(err, "build interrupted")
	}

	tag := task.Name.String()
	if err := s.log.Record(tag, "start"); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, tag)
	ctx = ports.ContextWithSpan(ctx, span)
	span.SetAttribute("task.prerequisites", domain.Strings(task.Prerequisites))

	start := time.Now()
	err := task.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.End()
		if logErr := s.log.Record(tag, fmt.Sprintf("failed after %s: %v", elapsed.Round(time.Millisecond), err)); logErr != nil {
			return zerr.With(logErr, "task_error", err.Error())
		}
		return err
	}

	span.End()
	return s.log.Record(tag, fmt.Sprintf("done in %s", elapsed.Round(time.Millisecond)))
}

func (s *Scheduler) cycleError(name domain.InternedString) error {
	s.mu.RLock()
	path := slices.Clone(s.stack)
	s.mu.RUnlock()
	return domain.Tag(domain.ErrCyclicDependency, "cycle", domain.CyclePath(path, name))
}

func (s *Scheduler) push(name domain.InternedString) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[name] = domain.StatusInProgress
	s.stack = append(s.stack, name)
}

func (s *Scheduler) pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Scheduler) setStatus(name domain.InternedString, status domain.TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[name] = status
}

// Status returns the current status of the named task.
func (s *Scheduler) Status(name string) domain.TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if status, ok := s.status[domain.NewInternedString(name)]; ok {
		return status
	}
	return domain.StatusNotStarted
}

// Completed returns the execution record: the names of successfully
// completed tasks in completion order.
func (s *Scheduler) Completed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Strings(s.completed)
}
