package domain

// TaskStatus represents the state of a task within one build invocation.
type TaskStatus string

const (
	// StatusNotStarted means the task has not been required yet.
	StatusNotStarted TaskStatus = "NotStarted"
	// StatusInProgress means the task's prerequisites or action are running.
	StatusInProgress TaskStatus = "InProgress"
	// StatusDone means the action completed successfully. Done is memoized.
	StatusDone TaskStatus = "Done"
	// StatusFailed means the task or one of its prerequisites failed.
	// Failed is not memoized: requiring the task again re-attempts it.
	StatusFailed TaskStatus = "Failed"
)
