package domain

// JobStatus enumerates job lifecycle states. Image generation parks in
// "review" so a human can approve pages before finalize.
type JobStatus string

const (
	JobStatusRunning JobStatus = "running"
	JobStatusReview  JobStatus = "review"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Job is the poll-side snapshot of one background phase run. It exists only
// for the run's lifetime; nothing persists it.
type Job struct {
	ID        string    `json:"job_id"`
	ProjectID string    `json:"project_id"`
	Status    JobStatus `json:"status"`
	Log       []string  `json:"log"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
}
