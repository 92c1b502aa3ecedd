package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"bannergen/internal/domain"
)

// TaskRepositoryMemory is an in-process domain.TaskRepository for tests and
// single-binary development setups. Semantics mirror the PostgreSQL
// implementation: monotonic progress, claim-once, finish-once, expiry.
type TaskRepositoryMemory struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task

	// now is swappable so expiry behaviour is testable.
	now func() time.Time
}

func NewTaskRepositoryMemory() *TaskRepositoryMemory {
	return &TaskRepositoryMemory{
		tasks: make(map[string]*domain.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the repository clock. Test helper.
func (r *TaskRepositoryMemory) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *TaskRepositoryMemory) Create(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneTask(task)
	r.tasks[task.ID] = clone
	return nil
}

func (r *TaskRepositoryMemory) ClaimNext(ctx context.Context) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []*domain.Task
	now := r.now()
	for _, t := range r.tasks {
		if t.State == domain.TaskStatePending && !t.Expired(now) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })

	claimed := pending[0]
	claimed.State = domain.TaskStateRunning
	claimed.UpdatedAt = now
	return cloneTask(claimed), nil
}

func (r *TaskRepositoryMemory) SetProgress(ctx context.Context, taskID string, progress int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	if t.State != domain.TaskStateRunning {
		return nil
	}
	if progress > t.Progress {
		t.Progress = progress
	}
	t.UpdatedAt = r.now()
	return nil
}

func (r *TaskRepositoryMemory) Finish(ctx context.Context, taskID string, state domain.TaskState, variants []domain.Variant, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	if t.State.Terminal() {
		return nil
	}
	t.State = state
	if state == domain.TaskStateSucceeded {
		t.Progress = 100
		t.Variants = append([]domain.Variant(nil), variants...)
	}
	t.ErrorMessage = errMsg
	t.UpdatedAt = r.now()
	return nil
}

func (r *TaskRepositoryMemory) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if t.Expired(r.now()) {
		return nil, domain.ErrExpired
	}
	return cloneTask(t), nil
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	clone.Variants = append([]domain.Variant(nil), t.Variants...)
	return &clone
}

var _ domain.TaskRepository = (*TaskRepositoryMemory)(nil)
