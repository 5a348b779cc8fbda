package task

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reconciled/internal/config"
	"reconciled/pkg/reconerr"
	"reconciled/pkg/schema"
)

// Manager owns the task registry and the bounded worker pool that drains
// it. The registry lock is held only for state transitions and reads;
// all I/O and compute happen outside it, per the design notes' single-
// registry-object rule.
type Manager struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	cancels map[string]context.CancelFunc

	cfg      config.Config
	jobs     chan string
	log      *slog.Logger
	onFinish func(*Task) // test hook; nil in production
}

// NewManager starts cfg.MaxConcurrentTasks worker goroutines consuming a
// pending-task queue. Workers run until the process exits — there is no
// graceful-shutdown drain in scope here, matching the in-process-only
// persistence model of §4.8.
func NewManager(cfg config.Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		tasks:   make(map[string]*Task),
		cancels: make(map[string]context.CancelFunc),
		cfg:     cfg,
		jobs:    make(chan string, 4096),
		log:     log,
	}
	for i := 0; i < cfg.MaxConcurrentTasks; i++ {
		go m.workerLoop()
	}
	return m
}

func (m *Manager) workerLoop() {
	for id := range m.jobs {
		m.run(id)
	}
}

// Create validates the schema (C1) and registers a new pending task,
// returning immediately — the pipeline runs on a worker goroutine.
func (m *Manager) Create(rawSchema map[string]any, files []string, callbackURL string) (string, error) {
	s, err := schema.ParseAndValidateMap(rawSchema)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", reconerr.New(reconerr.SchemaInvalid, "files must not be empty")
	}

	id := "task_" + uuid.NewString()
	t := &Task{
		ID:          id,
		State:       StatePending,
		CreatedAt:   time.Now().UTC(),
		Schema:      s,
		Files:       files,
		CallbackURL: callbackURL,
	}

	m.mu.Lock()
	m.tasks[id] = t
	m.mu.Unlock()

	m.jobs <- id
	return id, nil
}

// Status returns the current state of task_id.
func (m *Manager) Status(taskID string) (StatusView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return StatusView{}, reconerr.New(reconerr.TaskNotFound, taskID)
	}
	view := StatusView{TaskID: t.ID, Status: t.State}
	if t.State == StateRunning {
		view.Progress = "running"
	}
	return view, nil
}

// Result returns the completed artifact for task_id, or TaskIncomplete if
// the task has not reached a terminal state with a result.
func (m *Manager) Result(taskID string) (*TaskResultView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return nil, reconerr.New(reconerr.TaskNotFound, taskID)
	}
	if !t.State.IsTerminal() {
		return nil, reconerr.New(reconerr.TaskIncomplete, taskID)
	}

	return &TaskResultView{
		TaskID:   t.ID,
		Status:   t.State,
		Artifact: t.Result,
		Error:    t.Error,
	}, nil
}

// TaskResultView is the reconciliation_result tool's response shape.
type TaskResultView struct {
	TaskID   string `json:"task_id"`
	Status   State  `json:"status"`
	Artifact any    `json:"artifact,omitempty"`
	Error    string `json:"error,omitempty"`
}

// List returns every task's lightweight summary, in creation order.
func (m *Manager) List() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Summary, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Cancel is idempotent: it transitions pending -> canceled immediately,
// or signals a running task's cancel flag so it stops at the next phase
// boundary (§5). Canceling an already-terminal task is a no-op.
func (m *Manager) Cancel(taskID string) error {
	m.mu.Lock()
	t, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		return reconerr.New(reconerr.TaskNotFound, taskID)
	}

	switch t.State {
	case StatePending:
		t.State = StateCanceled
		now := time.Now().UTC()
		t.FinishedAt = &now
		m.mu.Unlock()
		m.fireCallback(t)
		return nil

	case StateRunning:
		cancel := m.cancels[taskID]
		m.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return nil

	default:
		m.mu.Unlock()
		return nil
	}
}

// run executes one task's pipeline on the calling worker goroutine.
func (m *Manager) run(taskID string) {
	m.mu.Lock()
	t, ok := m.tasks[taskID]
	if !ok || t.State != StatePending {
		m.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	t.State = StateRunning
	t.StartedAt = &now

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.TaskTimeout)
	m.cancels[taskID] = cancel
	m.mu.Unlock()

	defer cancel()

	artifact, err := runPipeline(ctx, t)

	m.mu.Lock()
	delete(m.cancels, taskID)
	finished := time.Now().UTC()
	t.FinishedAt = &finished

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		t.State = StateCanceled
		t.Error = string(reconerr.TimedOut)
	case ctx.Err() == context.Canceled:
		t.State = StateCanceled
	case err != nil:
		t.State = StateFailed
		t.Error = err.Error()
	default:
		t.State = StateCompleted
		t.Result = &artifact
	}
	m.mu.Unlock()

	if t.State == StateCompleted {
		m.persistResult(t)
	}

	if m.onFinish != nil {
		m.onFinish(t)
	}
	m.fireCallback(t)
}
