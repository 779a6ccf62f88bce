package analyses

import "context"

// MaxHistory caps listing; history is a recency window, not an archive.
const MaxHistory = 50

// Repository port (interface untuk persistence)
type Repository interface {
	// Create stores a new record and returns the store-generated key.
	Create(ctx context.Context, a *Analysis) (AnalysisID, error)
	// Update applies a merge patch to an existing record.
	Update(ctx context.Context, id AnalysisID, p Patch) error
	// Get returns ErrNotFound for an unknown key.
	Get(ctx context.Context, id AnalysisID) (*Analysis, error)
	// Latest returns up to limit records, newest first, capped at MaxHistory.
	Latest(ctx context.Context, limit int) ([]*Analysis, error)
}

// ArchiveStore port (interface untuk penyimpanan laporan)
type ArchiveStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
