package task

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"reconciled/pkg/reconerr"
	"reconciled/pkg/report"
)

// callbackRetrySchedule is the delay before each POST attempt (§6.2):
// immediate, then two backoff retries. A callback failure never alters
// task state — it is logged only, via the CallbackFailed kind.
var callbackRetrySchedule = []time.Duration{0, 5 * time.Second, 30 * time.Second}

// callbackEnvelope is the JSON body posted to a task's callback_url on
// reaching a terminal state.
type callbackEnvelope struct {
	TaskID  string          `json:"task_id"`
	Status  State           `json:"status"`
	Summary *report.Summary `json:"summary,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// fireCallback posts t's terminal state to its callback URL, retrying on
// the schedule above. It runs synchronously on the calling goroutine (the
// worker for a finished task, Cancel's caller for a pending one) but
// outside the registry lock, since a slow or unreachable endpoint must
// never block other tasks' state transitions.
func (m *Manager) fireCallback(t *Task) {
	if t.CallbackURL == "" {
		return
	}

	env := callbackEnvelope{TaskID: t.ID, Status: t.State, Error: t.Error}
	if t.Result != nil {
		env.Summary = &t.Result.Summary
	}
	body, err := json.Marshal(env)
	if err != nil {
		m.log.Error("callback envelope encode failed", "task_id", t.ID, "error", err)
		return
	}

	var lastErr error
	for i, delay := range callbackRetrySchedule {
		if delay > 0 {
			time.Sleep(delay)
		}
		if lastErr = postCallback(t.CallbackURL, body); lastErr == nil {
			return
		}
		m.log.Warn("callback attempt failed", "task_id", t.ID, "attempt", i+1, "error", lastErr)
	}
	m.log.Error("callback exhausted retries", "task_id", t.ID, "url", t.CallbackURL, "error", lastErr, "kind", reconerr.CallbackFailed)
}

func postCallback(url string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &httpStatusError{resp.StatusCode}
	}
	return nil
}

type httpStatusError struct{ code int }

func (e *httpStatusError) Error() string {
	return http.StatusText(e.code)
}
