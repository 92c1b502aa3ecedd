package domain

import "context"

// TaskRepository defines persistence for task entities. It is the single
// source of truth for task state: written by the one worker execution owning
// a task id, read concurrently by the API and the status notifier.
type TaskRepository interface {
	// Create inserts a new pending task.
	Create(ctx context.Context, task *Task) error

	// ClaimNext atomically moves the oldest pending task to running and
	// returns it. Returns ErrNotFound when no task is claimable.
	ClaimNext(ctx context.Context) (*Task, error)

	// SetProgress records a progress percentage. Implementations must keep
	// progress monotonically non-decreasing.
	SetProgress(ctx context.Context, taskID string, progress int) error

	// Finish writes the terminal state, progress and variant list as one
	// atomic update. A task already in a terminal state is left untouched.
	Finish(ctx context.Context, taskID string, state TaskState, variants []Variant, errMsg string) error

	// GetByID fetches a task. Returns ErrExpired once the retention window
	// has elapsed and ErrNotFound for unknown ids.
	GetByID(ctx context.Context, taskID string) (*Task, error)
}
