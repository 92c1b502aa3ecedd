package domain

// Client-facing status strings, kept compatible with the original result
// backend vocabulary the frontends already understand.
const (
	SnapshotPending  = "PENDING"
	SnapshotProgress = "PROGRESS"
	SnapshotSuccess  = "SUCCESS"
	SnapshotFailure  = "FAILURE"
)

// StatusSnapshot is a transient projection of a task's externally visible
// state. It is produced on demand and never persisted on its own.
type StatusSnapshot struct {
	TaskID   string    `json:"task_id"`
	Status   string    `json:"status"`
	Progress int       `json:"progress"`
	Count    int       `json:"count,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Snapshot projects the task into its client-facing form.
func Snapshot(t *Task) StatusSnapshot {
	snap := StatusSnapshot{TaskID: t.ID, Progress: t.Progress}
	switch t.State {
	case TaskStateSucceeded:
		snap.Status = SnapshotSuccess
		snap.Progress = 100
		snap.Count = len(t.Variants)
		snap.Variants = t.Variants
	case TaskStateFailed:
		snap.Status = SnapshotFailure
		snap.Error = t.ErrorMessage
	case TaskStateRunning:
		snap.Status = SnapshotProgress
	default:
		snap.Status = SnapshotPending
	}
	return snap
}

// Terminal reports whether the snapshot reflects a finished task.
func (s StatusSnapshot) Terminal() bool {
	return s.Status == SnapshotSuccess || s.Status == SnapshotFailure
}
