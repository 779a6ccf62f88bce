package analyses

import (
	"time"
)

// ID tipe untuk Analysis
type AnalysisID string

// Mode enum
type Mode string

const (
	ModeFast Mode = "fast"
	ModeDeep Mode = "deep"
)

// Status enum
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Aggregate Root: Analysis
// Written exactly twice: once at creation (running) and once on the
// terminal transition to done or failed.
type Analysis struct {
	ID          AnalysisID `json:"id"`
	Name        string     `json:"name,omitempty"`
	Pitch       string     `json:"pitch,omitempty"`
	Description string     `json:"description,omitempty"`
	Industry    string     `json:"industry,omitempty"`
	Mode        Mode       `json:"mode"`
	UserID      string     `json:"user_id,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	ArtifactURL string     `json:"artifact_url,omitempty"`
}

// Patch is a merge update: only non-nil fields are written, everything
// else on the record is preserved.
type Patch struct {
	Status      *Status
	Result      *string
	Error       *string
	CompletedAt *time.Time
	ArtifactURL *string
}
