// Package jobs keeps ephemeral job-status records for background phases.
// A phase is the single writer of its record; HTTP pollers read snapshots
// concurrently.
package jobs

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"storybook/internal/domain"
)

// Tracker is an in-memory job-status sink. Finished jobs are kept until the
// process exits; garbage collection is an operator concern.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*domain.Job)}
}

// Create registers a new running job for the project and returns its id.
func (t *Tracker) Create(projectID string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[id] = &domain.Job{
		ID:        id,
		ProjectID: projectID,
		Status:    domain.JobStatusRunning,
		Log:       []string{},
	}
	return id
}

// Append adds one human-readable line to the job's log.
func (t *Tracker) Append(jobID, line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[jobID]; ok {
		j.Log = append(j.Log, line)
	}
}

// SetProgress updates the job's progress percentage, clamped to [0,100].
func (t *Tracker) SetProgress(jobID string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[jobID]; ok {
		j.Progress = percent
	}
}

// SetStatus moves the job to the given lifecycle state.
func (t *Tracker) SetStatus(jobID string, status domain.JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[jobID]; ok {
		j.Status = status
	}
}

// SetError records a terminal error message and moves the job to the error
// state.
func (t *Tracker) SetError(jobID, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[jobID]; ok {
		j.Status = domain.JobStatusError
		j.Error = message
	}
}

// Snapshot returns a copy of the job safe to serialize while the phase keeps
// writing.
func (t *Tracker) Snapshot(jobID string) (domain.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[jobID]
	if !ok {
		return domain.Job{}, false
	}
	out := *j
	out.Log = append([]string(nil), j.Log...)
	return out, true
}
