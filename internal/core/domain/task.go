package domain

import "context"

// DefaultTask is the root task built when no task is named on the command line.
const DefaultTask = "all"

// Action is the procedure behind a task. It produces no value and may fail.
type Action func(ctx context.Context) error

// Task represents a named unit of build work.
type Task struct {
	Name          InternedString
	Description   string
	Prerequisites []InternedString
	Action        Action
}

// NewTask creates a task with the given prerequisites in declaration order.
func NewTask(name string, action Action, prerequisites ...string) *Task {
	return &Task{
		Name:          NewInternedString(name),
		Prerequisites: NewInternedStrings(prerequisites),
		Action:        action,
	}
}

// Run invokes the task's action. A task without an action succeeds.
func (t *Task) Run(ctx context.Context) error {
	if t.Action == nil {
		return nil
	}
	return t.Action(ctx)
}
