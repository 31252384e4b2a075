package api

import (
	"sync"
	"time"

	"playlist-importer/pkg/models"
)

const (
	ImportRunning  = "running"
	ImportFinished = "finished"
	ImportFailed   = "failed"
)

type ImportStatus struct {
	State      string               `json:"state"`
	Request    models.ImportRequest `json:"request"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt *time.Time           `json:"finishedAt,omitempty"`
	Result     *models.ImportResult `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// importTracker allows a single import at a time and remembers the latest one.
type importTracker struct {
	mu      sync.Mutex
	current *ImportStatus
}

func (t *importTracker) start(req models.ImportRequest) (ImportStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && t.current.State == ImportRunning {
		return *t.current, false
	}
	t.current = &ImportStatus{
		State:     ImportRunning,
		Request:   req,
		StartedAt: time.Now().UTC(),
	}
	return *t.current, true
}

func (t *importTracker) finish(result *models.ImportResult, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	t.current.FinishedAt = &now
	t.current.Result = result
	if err != nil {
		t.current.State = ImportFailed
		t.current.Error = err.Error()
		return
	}
	t.current.State = ImportFinished
}

func (t *importTracker) snapshot() (ImportStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return ImportStatus{}, false
	}
	return *t.current, true
}
