// Package task implements the Task Manager (C8): lifecycle of
// asynchronous reconciliation tasks — creation, a bounded worker pool,
// status polling, cancellation, and completion callbacks.
package task

import (
	"time"

	"reconciled/pkg/report"
	"reconciled/pkg/schema"
)

// State is one node of the task state machine (§3): pending -> running ->
// {completed, failed} or running -> canceled, pending -> canceled.
// Terminal states never transition further (I5).
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// IsTerminal reports whether s is one of the three terminal states.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCanceled
}

// Task is one reconciliation run's lifecycle record. Fields are read
// under the registry lock and never mutated concurrently with a reader —
// Manager is the only writer.
type Task struct {
	ID          string
	State       State
	CreatedAt   time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	Schema      *schema.Schema
	Files       []string
	CallbackURL string

	Result *report.Artifact
	Error  string
}

// Summary is the lightweight view returned by list() (§6.1).
type Summary struct {
	TaskID    string    `json:"task_id"`
	Status    State     `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Task) summary() Summary {
	return Summary{TaskID: t.ID, Status: t.State, CreatedAt: t.CreatedAt}
}

// StatusView is what status(task_id) returns — state plus a best-effort
// progress hint while running.
type StatusView struct {
	TaskID   string `json:"task_id"`
	Status   State  `json:"status"`
	Progress string `json:"progress,omitempty"`
}
