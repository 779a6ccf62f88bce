package analyses

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/analyses"
	"github.com/bryanwahyu/pitchlens/internal/domain/genfailures"
	"github.com/bryanwahyu/pitchlens/internal/domain/generation"
	"github.com/bryanwahyu/pitchlens/internal/infra/ai/prompt"
)

// PlaceholderResult is stored when no generation backend is configured.
// Absence of a backend is not an error condition.
const PlaceholderResult = "Mock analysis (generation backend not configured)"

const defaultGenTimeout = 30 * time.Second

// Service implements use-cases untuk Analysis
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo     domain.Repository
	Gen      generation.Client      // nil → placeholder result
	Archive  domain.ArchiveStore    // nil → no report archiving
	Failures genfailures.Repository // nil → failures only logged
	Clock    Clock

	// GenTimeout bounds a single generation call. Zero means 30s.
	GenTimeout time.Duration

	// Provider label recorded alongside failures.
	Provider string
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

//
// ==== USE CASES ====
//

// Command untuk submit analisa
type SubmitCommand struct {
	Name        string
	Pitch       string
	Description string
	Industry    string
	Mode        string
	UserID      string
}

type SubmitResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Submit creates the record in "running" state, runs one bounded
// generation call, and reconciles the outcome into the same record.
// The record exists and stays queryable even when generation fails;
// in that case the returned error wraps ErrGenerationFailed and the
// result still carries the record ID.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (SubmitResult, error) {
	if strings.TrimSpace(cmd.Name) == "" &&
		strings.TrimSpace(cmd.Pitch) == "" &&
		strings.TrimSpace(cmd.Description) == "" {
		return SubmitResult{}, domain.ErrInvalidInput
	}

	mode := domain.Mode(cmd.Mode)
	if mode == "" {
		mode = domain.ModeFast
	}

	initial := &domain.Analysis{
		Name:        cmd.Name,
		Pitch:       cmd.Pitch,
		Description: cmd.Description,
		Industry:    cmd.Industry,
		Mode:        mode,
		UserID:      cmd.UserID,
		Status:      domain.StatusRunning,
		CreatedAt:   s.Clock.Now(),
	}
	id, err := s.Repo.Create(ctx, initial)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	text, genErr := s.generate(ctx, cmd, mode)
	completed := s.Clock.Now()

	if genErr != nil {
		detail := genErr.Error()
		failed := domain.StatusFailed
		// Terminal update runs on a fresh context so a cancelled request
		// cannot leave the record stuck in "running".
		if uerr := s.Repo.Update(context.Background(), id, domain.Patch{
			Status:      &failed,
			Error:       &detail,
			CompletedAt: &completed,
		}); uerr != nil {
			log.Printf("analysis %s: failed-state update error: %v", id, uerr)
		}
		s.recordFailure(id, genErr)
		return SubmitResult{ID: string(id), Status: string(domain.StatusFailed)},
			fmt.Errorf("%w: %v", domain.ErrGenerationFailed, genErr)
	}

	done := domain.StatusDone
	patch := domain.Patch{
		Status:      &done,
		Result:      &text,
		CompletedAt: &completed,
	}
	if url := s.archive(id, text); url != "" {
		patch.ArtifactURL = &url
	}
	if uerr := s.Repo.Update(context.Background(), id, patch); uerr != nil {
		log.Printf("analysis %s: done-state update error: %v", id, uerr)
		// The record must not stay "running" after we return: try to park
		// it in "failed" so its state reflects the lost result.
		detail := fmt.Sprintf("result could not be stored: %v", uerr)
		failed := domain.StatusFailed
		if ferr := s.Repo.Update(context.Background(), id, domain.Patch{
			Status:      &failed,
			Error:       &detail,
			CompletedAt: &completed,
		}); ferr != nil {
			log.Printf("analysis %s: failed-state fallback update error: %v", id, ferr)
		}
		return SubmitResult{ID: string(id), Status: string(domain.StatusFailed)},
			fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, uerr)
	}

	return SubmitResult{ID: string(id), Status: string(domain.StatusDone)}, nil
}

// Get ambil 1 analysis by id
func (s *Service) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	return s.Repo.Get(ctx, id)
}

// Latest ambil N analysis terakhir (newest first)
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	return s.Repo.Latest(ctx, limit)
}

// generate runs exactly one bounded call, no retry.
func (s *Service) generate(ctx context.Context, cmd SubmitCommand, mode domain.Mode) (string, error) {
	if s.Gen == nil {
		return PlaceholderResult, nil
	}

	timeout := s.GenTimeout
	if timeout <= 0 {
		timeout = defaultGenTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := prompt.BuildAnalysisPrompt(cmd.Name, cmd.Pitch, cmd.Description, cmd.Industry, string(mode))
	text, err := s.Gen.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", generation.ErrMalformedResponse
	}
	return text, nil
}

// archive uploads the finished report; failures never break the lifecycle.
func (s *Service) archive(id domain.AnalysisID, text string) string {
	if s.Archive == nil {
		return ""
	}
	key := fmt.Sprintf("analyses/%s.txt", id)
	url, err := s.Archive.Put(context.Background(), key, "text/plain", []byte(text))
	if err != nil {
		log.Printf("analysis %s: archive upload error: %v", id, err)
		return ""
	}
	return url
}

func (s *Service) recordFailure(id domain.AnalysisID, genErr error) {
	if s.Failures == nil {
		return
	}
	f := &genfailures.Failure{
		AnalysisID: string(id),
		Provider:   s.Provider,
		Message:    genErr.Error(),
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Failures.Save(context.Background(), f); err != nil {
		log.Printf("analysis %s: failure log error: %v", id, err)
	}
}
