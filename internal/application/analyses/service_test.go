package analyses

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/analyses"
	"github.com/bryanwahyu/pitchlens/internal/domain/genfailures"
	"github.com/bryanwahyu/pitchlens/internal/domain/generation"
)

// --- fakes ---

type fakeRepo struct {
	mu      sync.Mutex
	seq     int
	records map[domain.AnalysisID]*domain.Analysis
	order   []domain.AnalysisID

	createErr error
	updateErr error

	// rejectResult fails only the updates that carry a result, so the
	// follow-up status-only update still goes through.
	rejectResult bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[domain.AnalysisID]*domain.Analysis)}
}

func (r *fakeRepo) Create(ctx context.Context, a *domain.Analysis) (domain.AnalysisID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	r.seq++
	id := domain.AnalysisID(fmt.Sprintf("rec-%04d", r.seq))
	cp := *a
	cp.ID = id
	r.records[id] = &cp
	r.order = append(r.order, id)
	a.ID = id
	return id, nil
}

func (r *fakeRepo) Update(ctx context.Context, id domain.AnalysisID, p domain.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.rejectResult && p.Result != nil {
		return errors.New("column result: value too long")
	}
	rec, ok := r.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.Result != nil {
		rec.Result = *p.Result
	}
	if p.Error != nil {
		rec.Error = *p.Error
	}
	if p.CompletedAt != nil {
		rec.CompletedAt = p.CompletedAt
	}
	if p.ArtifactURL != nil {
		rec.ArtifactURL = *p.ArtifactURL
	}
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRepo) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > domain.MaxHistory {
		limit = domain.MaxHistory
	}
	var out []*domain.Analysis
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.records[r.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeGen struct {
	fn func(ctx context.Context, prompt string) (string, error)
}

func (g *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	return g.fn(ctx, prompt)
}

type fakeArchive struct {
	keys []string
}

func (a *fakeArchive) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	a.keys = append(a.keys, key)
	return "http://archive.local/" + key, nil
}

type fakeFailures struct {
	saved []*genfailures.Failure
}

func (f *fakeFailures) Save(ctx context.Context, fl *genfailures.Failure) error {
	f.saved = append(f.saved, fl)
	return nil
}

func (f *fakeFailures) ListByAnalysis(ctx context.Context, analysisID string, limit int) ([]*genfailures.Failure, error) {
	return f.saved, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newService(repo *fakeRepo, gen generation.Client) *Service {
	return &Service{
		Repo:  repo,
		Gen:   gen,
		Clock: fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
}

// --- tests ---

func TestSubmitSuccess(t *testing.T) {
	repo := newFakeRepo()
	var statusAtGenTime domain.Status
	gen := &fakeGen{fn: func(ctx context.Context, prompt string) (string, error) {
		// the record must already exist in "running" state when the
		// generation call starts
		recs, _ := repo.Latest(context.Background(), 1)
		if len(recs) == 1 {
			statusAtGenTime = recs[0].Status
		}
		return "Market fit: strong.\nScore: 8/10", nil
	}}
	svc := newService(repo, gen)

	res, err := svc.Submit(context.Background(), SubmitCommand{
		Name: "Acme", Pitch: "Rockets", Industry: "Aerospace",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	assert.Equal(t, string(domain.StatusDone), res.Status)
	assert.Equal(t, domain.StatusRunning, statusAtGenTime)

	rec, err := repo.Get(context.Background(), domain.AnalysisID(res.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, rec.Status)
	assert.Equal(t, "Market fit: strong.\nScore: 8/10", rec.Result)
	assert.Empty(t, rec.Error)
	require.NotNil(t, rec.CompletedAt)
	assert.Equal(t, domain.ModeFast, rec.Mode)
}

func TestSubmitGenerationFailureKeepsRecord(t *testing.T) {
	repo := newFakeRepo()
	gen := &fakeGen{fn: func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("%w: missing candidates", generation.ErrMalformedResponse)
	}}
	failures := &fakeFailures{}
	svc := newService(repo, gen)
	svc.Failures = failures
	svc.Provider = "gemini"

	res, err := svc.Submit(context.Background(), SubmitCommand{Pitch: "Rockets"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGenerationFailed))
	// the id is still returned so the failure is discoverable
	require.NotEmpty(t, res.ID)

	rec, gerr := repo.Get(context.Background(), domain.AnalysisID(res.ID))
	require.NoError(t, gerr)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.NotEmpty(t, rec.Error)
	assert.Empty(t, rec.Result)
	require.NotNil(t, rec.CompletedAt)

	require.Len(t, failures.saved, 1)
	assert.Equal(t, res.ID, failures.saved[0].AnalysisID)
	assert.Equal(t, "gemini", failures.saved[0].Provider)
}

func TestSubmitTerminalStateIsExclusive(t *testing.T) {
	cases := []struct {
		name   string
		genErr error
	}{
		{name: "done", genErr: nil},
		{name: "failed", genErr: errors.New("backend unreachable")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			gen := &fakeGen{fn: func(ctx context.Context, prompt string) (string, error) {
				if tc.genErr != nil {
					return "", tc.genErr
				}
				return "ok", nil
			}}
			svc := newService(repo, gen)

			res, _ := svc.Submit(context.Background(), SubmitCommand{Name: "x"})
			rec, err := repo.Get(context.Background(), domain.AnalysisID(res.ID))
			require.NoError(t, err)

			assert.True(t, rec.Status.Terminal())
			// exactly one of result/error once terminal, never both, never neither
			assert.NotEqual(t, rec.Result == "", rec.Error == "")
		})
	}
}

func TestSubmitInvalidInputCreatesNoRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)

	for _, cmd := range []SubmitCommand{
		{},
		{Name: "  ", Pitch: "\t", Description: ""},
		{Industry: "Aerospace", Mode: "fast"}, // industry alone is not enough
	} {
		_, err := svc.Submit(context.Background(), cmd)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	}
	assert.Equal(t, 0, repo.count())
}

func TestSubmitPlaceholderWhenNoBackend(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)

	res, err := svc.Submit(context.Background(), SubmitCommand{
		Name: "Acme", Pitch: "Rockets", Industry: "Aerospace",
	})
	require.NoError(t, err)

	rec, err := repo.Get(context.Background(), domain.AnalysisID(res.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, rec.Status)
	assert.Equal(t, PlaceholderResult, rec.Result)
}

func TestSubmitStoreUnavailable(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("dial tcp: connection refused")
	svc := newService(repo, nil)

	_, err := svc.Submit(context.Background(), SubmitCommand{Name: "Acme"})
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestSubmitDoneUpdateFailureParksRecordAsFailed(t *testing.T) {
	repo := newFakeRepo()
	repo.rejectResult = true
	gen := &fakeGen{fn: func(ctx context.Context, prompt string) (string, error) {
		return "report text", nil
	}}
	svc := newService(repo, gen)

	res, err := svc.Submit(context.Background(), SubmitCommand{Name: "Acme"})
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	require.NotEmpty(t, res.ID)
	assert.Equal(t, string(domain.StatusFailed), res.Status)

	// the record must not stay "running" once Submit has returned
	rec, gerr := repo.Get(context.Background(), domain.AnalysisID(res.ID))
	require.NoError(t, gerr)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "could not be stored")
	assert.Empty(t, rec.Result)
	require.NotNil(t, rec.CompletedAt)
}

func TestSubmitEmptyGenerationTextIsFailure(t *testing.T) {
	repo := newFakeRepo()
	gen := &fakeGen{fn: func(ctx context.Context, prompt string) (string, error) {
		return "   ", nil
	}}
	svc := newService(repo, gen)

	res, err := svc.Submit(context.Background(), SubmitCommand{Name: "Acme"})
	assert.True(t, errors.Is(err, domain.ErrGenerationFailed))

	rec, gerr := repo.Get(context.Background(), domain.AnalysisID(res.ID))
	require.NoError(t, gerr)
	assert.Equal(t, domain.StatusFailed, rec.Status)
}

func TestSubmitArchivesReport(t *testing.T) {
	repo := newFakeRepo()
	gen := &fakeGen{fn: func(ctx context.Context, prompt string) (string, error) {
		return "report text", nil
	}}
	archive := &fakeArchive{}
	svc := newService(repo, gen)
	svc.Archive = archive

	res, err := svc.Submit(context.Background(), SubmitCommand{Name: "Acme"})
	require.NoError(t, err)

	rec, err := repo.Get(context.Background(), domain.AnalysisID(res.ID))
	require.NoError(t, err)
	assert.Equal(t, "http://archive.local/analyses/"+res.ID+".txt", rec.ArtifactURL)
	require.Len(t, archive.keys, 1)
}

func TestSubmitModeDefaultsToFast(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)

	res, err := svc.Submit(context.Background(), SubmitCommand{Name: "Acme", Mode: ""})
	require.NoError(t, err)

	rec, err := repo.Get(context.Background(), domain.AnalysisID(res.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.ModeFast, rec.Mode)
}

func TestSubmitGenerationTimeoutBound(t *testing.T) {
	repo := newFakeRepo()
	gen := &fakeGen{fn: func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc := newService(repo, gen)
	svc.GenTimeout = 20 * time.Millisecond

	start := time.Now()
	res, err := svc.Submit(context.Background(), SubmitCommand{Name: "Acme"})
	assert.True(t, errors.Is(err, domain.ErrGenerationFailed))
	assert.Less(t, time.Since(start), 2*time.Second)

	rec, gerr := repo.Get(context.Background(), domain.AnalysisID(res.ID))
	require.NoError(t, gerr)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.NotEmpty(t, rec.Error)
}

func TestSubmitNoDeduplication(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, nil)

	cmd := SubmitCommand{Name: "Acme", Pitch: "Rockets"}
	r1, err := svc.Submit(context.Background(), cmd)
	require.NoError(t, err)
	r2, err := svc.Submit(context.Background(), cmd)
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, 2, repo.count())
}
