// Package domain contains the core domain models of the build orchestrator:
// tasks, the task registry and the static dependency plan.
package domain

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Registry maps task names to tasks. It is populated once at startup,
// sealed, and only read afterwards.
type Registry struct {
	mu     sync.RWMutex
	tasks  map[InternedString]*Task
	order  []InternedString
	sealed bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[InternedString]*Task),
	}
}

// Register adds a task built from name, action and prerequisites.
func (r *Registry) Register(name string, action Action, prerequisites ...string) error {
	return r.Add(NewTask(name, action, prerequisites...))
}

// Add adds a task to the registry.
func (r *Registry) Add(t *Task) error {
	if t == nil || t.Name.String() == "" {
		return ErrInvalidTaskName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return Tag(ErrRegistrySealed, "task", t.Name.String())
	}
	if _, exists := r.tasks[t.Name]; exists {
		return Tag(ErrDuplicateTask, "task", t.Name.String())
	}
	r.tasks[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Lookup returns the task registered under name.
func (r *Registry) Lookup(name string) (*Task, error) {
	t, ok := r.Get(NewInternedString(name))
	if !ok {
		return nil, Tag(ErrUnknownTask, "task", name)
	}
	return t, nil
}

// Get returns the task registered under name and whether it exists.
func (r *Registry) Get(name InternedString) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Seal makes the registry immutable.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Names returns the registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := Strings(r.order)
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Tasks yields tasks in registration order.
func (r *Registry) Tasks() iter.Seq[*Task] {
	return func(yield func(*Task) bool) {
		r.mu.RLock()
		order := slices.Clone(r.order)
		r.mu.RUnlock()

		for _, name := range order {
			t, ok := r.Get(name)
			if !ok {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Dependents returns the names of tasks that list name as a prerequisite, sorted.
func (r *Registry) Dependents(name string) []string {
	target := NewInternedString(name)
	var out []string
	for t := range r.Tasks() {
		if slices.Contains(t.Prerequisites, target) {
			out = append(out, t.Name.String())
		}
	}
	slices.Sort(out)
	return out
}

// EnsureDefault registers the implicit root task unless one was declared.
// The root depends on prerequisites. Without any, it depends on the single
// task nothing else depends on; when there are several such tasks the root
// fails on request and names them, since building all of them would also
// run cleanup tasks.
func (r *Registry) EnsureDefault(prerequisites ...string) error {
	if _, ok := r.Get(NewInternedString(DefaultTask)); ok {
		return nil
	}

	var action Action
	description := "build every top-level task"

	if len(prerequisites) == 0 {
		var sinks []string
		for _, name := range r.Names() {
			if len(r.Dependents(name)) == 0 {
				sinks = append(sinks, name)
			}
		}
		if len(sinks) > 1 {
			candidates := strings.Join(sinks, ", ")
			action = func(context.Context) error {
				return Tag(ErrAmbiguousDefault, "candidates", candidates)
			}
			description = "no default declared; name one of: " + candidates
		} else {
			prerequisites = sinks
		}
	}

	t := NewTask(DefaultTask, action, prerequisites...)
	t.Description = description
	return r.Add(t)
}
