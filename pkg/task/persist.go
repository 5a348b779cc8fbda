package task

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// persistResult writes t's completed artifact to <results>/<task_id>.json
// (§6.3). It runs synchronously on the worker goroutine, outside the
// registry lock, and never alters task state — a write failure is logged
// only, the same disposition fireCallback gives an unreachable callback
// endpoint.
func (m *Manager) persistResult(t *Task) {
	if t.Result == nil {
		return
	}

	body, err := json.MarshalIndent(t.Result, "", "  ")
	if err != nil {
		m.log.Error("result artifact encode failed", "task_id", t.ID, "error", err)
		return
	}

	if err := os.MkdirAll(m.cfg.ResultsDir, 0o755); err != nil {
		m.log.Error("result artifact directory create failed", "task_id", t.ID, "dir", m.cfg.ResultsDir, "error", err)
		return
	}

	path := filepath.Join(m.cfg.ResultsDir, t.ID+".json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		m.log.Error("result artifact write failed", "task_id", t.ID, "path", path, "error", err)
	}
}
