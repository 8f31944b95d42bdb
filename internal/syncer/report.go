package syncer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the overall outcome of a sync run.
type Status string

const (
	// StatusSucceeded means every operation completed.
	StatusSucceeded Status = "succeeded"
	// StatusPartiallySucceeded means at least one operation failed, was
	// not attempted, or was skipped over a conflict; details are in the
	// report.
	StatusPartiallySucceeded Status = "partially_succeeded"
)

// Failure records one operation's terminal error.
type Failure struct {
	Path      string `json:"path"`
	Op        string `json:"op"`
	ErrorKind string `json:"error_kind"` // "transient_exhausted", "rejected", "cancelled"
	Message   string `json:"message"`
}

// Report aggregates the outcome of one sync run. It enumerates every
// non-keep operation with its outcome; a bare success boolean is never
// enough to audit what a run did to the remote collection.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     Status    `json:"status"`

	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Kept      int `json:"kept"`
	Conflicts int `json:"conflicts"`

	Ignored       []string  `json:"ignored,omitempty"`
	ConflictPaths []string  `json:"conflict_paths,omitempty"`
	Failures      []Failure `json:"failures,omitempty"`
	NotAttempted  []string  `json:"not_attempted,omitempty"`

	mu sync.Mutex
}

func newReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

func (r *Report) recordOp(kind OpKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case OpCreate:
		r.Created++
	case OpUpdate:
		r.Updated++
	case OpDelete:
		r.Deleted++
	case OpKeep:
		r.Kept++
	}
}

func (r *Report) recordFailure(f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, f)
}

func (r *Report) recordNotAttempted(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NotAttempted = append(r.NotAttempted, path)
}

func (r *Report) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
	if len(r.Failures) == 0 && len(r.NotAttempted) == 0 && r.Conflicts == 0 {
		r.Status = StatusSucceeded
	} else {
		r.Status = StatusPartiallySucceeded
	}
}

// MutationCount returns how many mutating operations completed.
func (r *Report) MutationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Created + r.Updated + r.Deleted
}
