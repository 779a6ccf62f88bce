package genfailures

import "time"

// Failure represents a persisted generation failure entry
type Failure struct {
	ID         int64     `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	Provider   string    `json:"provider,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
