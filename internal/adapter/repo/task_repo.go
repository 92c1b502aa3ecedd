package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bannergen/internal/domain"
	"bannergen/internal/sqlinline"
)

// TaskRepositoryPG implements domain.TaskRepository on PostgreSQL.
type TaskRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new task repository backed by PostgreSQL.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepositoryPG {
	return &TaskRepositoryPG{pool: pool}
}

// Create inserts a new pending task record.
func (r *TaskRepositoryPG) Create(ctx context.Context, task *domain.Task) error {
	requestJSON, err := json.Marshal(task.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	_, err = r.pool.Exec(ctx, sqlinline.QInsertTask,
		task.ID,
		task.Kind,
		task.State,
		task.Progress,
		requestJSON,
		task.CreatedAt,
		task.ExpiresAt,
	)
	return err
}

// ClaimNext moves the oldest claimable pending task to running. The SKIP
// LOCKED clause keeps concurrent workers from racing on the same task id.
func (r *TaskRepositoryPG) ClaimNext(ctx context.Context) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, sqlinline.QClaimNextTask)
	var (
		task        domain.Task
		requestJSON []byte
	)
	if err := row.Scan(&task.ID, &task.Kind, &requestJSON, &task.CreatedAt, &task.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(requestJSON, &task.Request); err != nil {
		// A row with an undecodable payload can never run; fail it so it
		// does not sit in running forever, then try the next one.
		_, _ = r.pool.Exec(ctx, sqlinline.QFinishTask,
			task.ID, domain.TaskStateFailed, 0, []byte(nil), "request payload undecodable")
		return r.ClaimNext(ctx)
	}
	task.State = domain.TaskStateRunning
	return &task, nil
}

// SetProgress records a progress percentage. GREATEST keeps the stored value
// monotonically non-decreasing regardless of write ordering.
func (r *TaskRepositoryPG) SetProgress(ctx context.Context, taskID string, progress int) error {
	_, err := r.pool.Exec(ctx, sqlinline.QSetTaskProgress, taskID, progress)
	return err
}

// Finish writes the terminal state, progress and result as one atomic update.
// Tasks already terminal are left untouched, so a task transitions to a
// terminal state at most once.
func (r *TaskRepositoryPG) Finish(ctx context.Context, taskID string, state domain.TaskState, variants []domain.Variant, errMsg string) error {
	if !state.Terminal() {
		return fmt.Errorf("finish requires a terminal state, got %q", state)
	}
	progress := 100
	var resultJSON []byte
	if state == domain.TaskStateSucceeded {
		encoded, err := json.Marshal(variants)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		resultJSON = encoded
	} else {
		progress = 0
	}
	_, err := r.pool.Exec(ctx, sqlinline.QFinishTask, taskID, state, progress, resultJSON, errMsg)
	return err
}

// GetByID fetches a task by its identifier. Rows past their retention window
// surface as ErrExpired, a distinct outcome from an unknown id.
func (r *TaskRepositoryPG) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, sqlinline.QSelectTask, taskID)
	var (
		task        domain.Task
		requestJSON []byte
		resultJSON  []byte
	)
	if err := row.Scan(
		&task.ID,
		&task.Kind,
		&task.State,
		&task.Progress,
		&requestJSON,
		&resultJSON,
		&task.ErrorMessage,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if task.Expired(time.Now().UTC()) {
		return nil, domain.ErrExpired
	}
	if len(requestJSON) > 0 {
		if err := json.Unmarshal(requestJSON, &task.Request); err != nil {
			return nil, fmt.Errorf("decode request for task %s: %w", task.ID, err)
		}
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &task.Variants); err != nil {
			return nil, fmt.Errorf("decode result for task %s: %w", task.ID, err)
		}
	}
	return &task, nil
}

var _ domain.TaskRepository = (*TaskRepositoryPG)(nil)
