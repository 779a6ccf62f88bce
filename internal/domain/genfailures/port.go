package genfailures

import (
	"context"
)

// Repository defines persistence for generation failures
type Repository interface {
	Save(ctx context.Context, f *Failure) error
	ListByAnalysis(ctx context.Context, analysisID string, limit int) ([]*Failure, error)
}
