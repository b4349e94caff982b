package pool

import (
	"time"

	"sndx/internal/metadata"
	"sndx/internal/session"
)

// Outcome is the result of one URL. FailedAt is the last state reached
// before a failure.
type Outcome struct {
	URL       string
	SessionID string
	State     session.State
	FailedAt  session.State
	Metadata  metadata.RecordingMetadata
	File      string
	Err       error
}

// Succeeded reports whether the URL was fully recorded.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.State == session.StateCompleted
}

// SessionInfo identifies one allocated session.
type SessionInfo struct {
	ID        string
	ProfileID string
	Sink      string
}

// Report summarizes a run.
type Report struct {
	RunID         string
	Sessions      []SessionInfo
	Outcomes      []Outcome
	CleanupErrors []error
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Completed returns the successful outcomes.
func (r *Report) Completed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the unsuccessful outcomes.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}
