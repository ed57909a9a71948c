package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/getcoachly/coachly/internal/cache"
	"github.com/getcoachly/coachly/internal/models"
	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/summarizer"
	"github.com/getcoachly/coachly/internal/utils"
)

// --- fakes ---------------------------------------------------------------

type fakeRepRepo struct {
	pgrepo.RepRepository
	byID   map[string]*models.RepProfile
	active []models.RepProfile
	byTeam map[string][]models.RepProfile
}

func (f *fakeRepRepo) GetByID(_ context.Context, id string) (*models.RepProfile, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeRepRepo) ListActive(context.Context) ([]models.RepProfile, error) {
	return f.active, nil
}

func (f *fakeRepRepo) ListByTeam(_ context.Context, teamID string) ([]models.RepProfile, error) {
	return f.byTeam[teamID], nil
}

type fakeTeamRepo struct {
	pgrepo.TeamRepository
	teams []models.Team
}

func (f *fakeTeamRepo) List(context.Context) ([]models.Team, error) { return f.teams, nil }

type fakeAnalysisRepo struct {
	pgrepo.AnalysisRepository
	rows []models.CallAnalysis
}

func (f *fakeAnalysisRepo) ListForReps(_ context.Context, repIDs []string, from, toExclusive time.Time) ([]models.CallAnalysis, error) {
	allowed := make(map[string]bool, len(repIDs))
	for _, id := range repIDs {
		allowed[id] = true
	}
	var out []models.CallAnalysis
	for _, r := range f.rows {
		if allowed[r.RepID] && !r.CreatedAt.Before(from) && r.CreatedAt.Before(toExclusive) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSummarizer struct {
	mu    sync.Mutex
	calls int
	last  summarizer.Request
	out   *summarizer.TrendSummary
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, req summarizer.Request) (*summarizer.TrendSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &summarizer.TrendSummary{
		OverallAssessment:  "steady quarter",
		KeyStrengths:       []string{"discovery"},
		CoachingPriorities: []summarizer.CoachingPriority{{Area: "closing", Recommendation: "ask for the close"}},
		TrendDirection:     "steady",
	}, nil
}

// failingCache accepts reads but rejects writes.
type failingCache struct{ cache.Cache }

func (failingCache) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (failingCache) SetJSON(context.Context, string, any, time.Duration) error {
	return errors.New("cache down")
}

// --- fixtures ------------------------------------------------------------

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func analysesFor(repID string, n int, start time.Time, gap time.Duration) []models.CallAnalysis {
	result, _ := json.Marshal(models.AnalysisResult{
		HeatScore: f(70),
		Framework: models.FrameworkScores{Discovery: f(6), ClosingTechnique: f(4)},
		Summary:   "solid call",
	})
	rows := make([]models.CallAnalysis, n)
	for i := 0; i < n; i++ {
		rows[i] = models.CallAnalysis{
			ID:        fmt.Sprintf("%s-a%03d", repID, i),
			RepID:     repID,
			Result:    datatypes.JSON(result),
			CreatedAt: start.Add(time.Duration(i) * gap),
		}
	}
	return rows
}

func newTestService(calls []models.CallAnalysis) (Service, *fakeSummarizer, cache.Cache) {
	reps := &fakeRepRepo{
		byID: map[string]*models.RepProfile{
			"R1": {ID: "R1", FullName: "Ada Okafor", Active: true},
		},
		active: []models.RepProfile{{ID: "R1", FullName: "Ada Okafor", Active: true}},
	}
	teams := &fakeTeamRepo{}
	summ := &fakeSummarizer{}
	c := cache.NewMemoryCache()
	svc := NewService(reps, teams, &fakeAnalysisRepo{rows: calls}, c, summ, testLogger())
	return svc, summ, c
}

func repRequest(from, to string) GenerateRequest {
	return GenerateRequest{
		Scope:     ScopeRep,
		RepID:     "R1",
		DateRange: DateRange{From: from, To: to},
	}
}

// --- tests ---------------------------------------------------------------

func TestGenerateRepScopeDirect(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc, summ, _ := newTestService(analysesFor("R1", 5, start, 48*time.Hour))

	rep, err := svc.Generate(context.Background(), repRequest("2026-01-01", "2026-01-10"))
	require.NoError(t, err)

	assert.Equal(t, TierDirect, rep.Metadata.Tier)
	assert.Equal(t, 5, rep.Metadata.TotalCalls)
	assert.Equal(t, 5, rep.Metadata.AnalyzedCalls)
	assert.Nil(t, rep.Metadata.Sampling)
	assert.False(t, rep.Cached)
	assert.Nil(t, rep.CachedAt)
	assert.NotNil(t, rep.Analysis)

	require.Len(t, rep.Metadata.RepContributions, 1)
	c := rep.Metadata.RepContributions[0]
	assert.Equal(t, "R1", c.RepID)
	assert.Equal(t, 5, c.CallCount)
	assert.InDelta(t, 100, c.PercentageOfTotal, 1e-9)

	assert.Equal(t, "rep", summ.last.Scope)
	assert.Equal(t, "direct", summ.last.Tier)
	assert.Len(t, summ.last.Calls, 5)
}

func TestGenerateInclusiveDayBoundaries(t *testing.T) {
	// one call at 23:59 on the final day of the range must be included
	late := time.Date(2026, 1, 10, 23, 59, 0, 0, time.UTC)
	svc, summ, _ := newTestService(analysesFor("R1", 1, late, 0))

	_, err := svc.Generate(context.Background(), repRequest("2026-01-01", "2026-01-10"))
	require.NoError(t, err)
	assert.Len(t, summ.last.Calls, 1)
}

func TestGenerateTierBoundaries(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		calls    int
		tier     Tier
		sampled  bool
		analyzed int // upper bound when sampled
	}{
		{30, TierDirect, false, 30},
		{31, TierSampled, true, 30},
		{100, TierSampled, true, 30},
		{101, TierHierarchical, true, 30},
	}

	for _, tc := range cases {
		svc, _, _ := newTestService(analysesFor("R1", tc.calls, start, time.Hour))
		rep, err := svc.Generate(context.Background(), repRequest("2026-01-01", "2026-01-31"))
		require.NoError(t, err, "calls=%d", tc.calls)

		assert.Equal(t, tc.tier, rep.Metadata.Tier, "calls=%d", tc.calls)
		assert.Equal(t, tc.calls, rep.Metadata.TotalCalls)
		if tc.sampled {
			require.NotNil(t, rep.Metadata.Sampling, "calls=%d", tc.calls)
			assert.Equal(t, tc.calls, rep.Metadata.Sampling.OriginalCount)
			assert.Equal(t, "stratified-weekly", rep.Metadata.Sampling.Method)
			assert.LessOrEqual(t, rep.Metadata.AnalyzedCalls, tc.analyzed)
			assert.Equal(t, rep.Metadata.AnalyzedCalls, rep.Metadata.Sampling.SampledCount)
		} else {
			assert.Nil(t, rep.Metadata.Sampling)
			assert.Equal(t, tc.calls, rep.Metadata.AnalyzedCalls)
		}
	}
}

func TestGenerateCacheHit(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc, summ, _ := newTestService(analysesFor("R1", 5, start, 24*time.Hour))
	req := repRequest("2026-01-01", "2026-01-10")

	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	require.NotNil(t, second.CachedAt)
	assert.True(t, first.Metadata.GeneratedAt.Equal(second.Metadata.GeneratedAt))
	assert.Equal(t, 1, summ.calls, "cache hit must not re-summarize")
}

func TestGenerateForceRefresh(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc, summ, _ := newTestService(analysesFor("R1", 5, start, 24*time.Hour))
	req := repRequest("2026-01-01", "2026-01-10")

	_, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	req.ForceRefresh = true
	rep, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, rep.Cached)
	assert.Equal(t, 2, summ.calls)
}

func TestGenerateExpiredEnvelopeRegenerates(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc, summ, c := newTestService(analysesFor("R1", 5, start, 24*time.Hour))
	req := repRequest("2026-01-01", "2026-01-10")

	// entry still present in the store but past its own expiry stamp
	stale := cacheEnvelope{
		Report:     Report{Metadata: Metadata{Tier: TierDirect}},
		ComputedAt: time.Now().Add(-20 * time.Minute),
		ExpiresAt:  time.Now().Add(-5 * time.Minute),
	}
	require.NoError(t, c.SetJSON(context.Background(), cacheKey(req), stale, time.Hour))

	rep, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, rep.Cached)
	assert.Equal(t, 1, summ.calls)
}

func TestGenerateCacheWriteFailureIsNonFatal(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	reps := &fakeRepRepo{byID: map[string]*models.RepProfile{"R1": {ID: "R1", FullName: "Ada"}}}
	svc := NewService(reps, &fakeTeamRepo{}, &fakeAnalysisRepo{rows: analysesFor("R1", 3, start, time.Hour)},
		failingCache{}, &fakeSummarizer{}, testLogger())

	rep, err := svc.Generate(context.Background(), repRequest("2026-01-01", "2026-01-10"))
	require.NoError(t, err)
	assert.NotNil(t, rep.Analysis)
}

func TestGenerateValidation(t *testing.T) {
	svc, _, _ := newTestService(nil)

	cases := []GenerateRequest{
		{Scope: "galaxy", DateRange: DateRange{From: "2026-01-01", To: "2026-01-10"}},
		{Scope: ScopeRep, DateRange: DateRange{From: "2026-01-01", To: "2026-01-10"}},                  // missing repId
		{Scope: ScopeTeam, DateRange: DateRange{From: "2026-01-01", To: "2026-01-10"}},                 // missing teamId
		{Scope: ScopeRep, RepID: "R1"},                                                                 // missing dates
		{Scope: ScopeRep, RepID: "R1", DateRange: DateRange{From: "01/01/2026", To: "2026-01-10"}},     // bad format
		{Scope: ScopeRep, RepID: "R1", DateRange: DateRange{From: "2026-01-10", To: "2026-01-01"}},     // inverted
	}
	for i, req := range cases {
		_, err := svc.Generate(context.Background(), req)
		require.Error(t, err, "case %d", i)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), "case %d: %v", i, err)
	}
}

func TestGenerateUnknownRep(t *testing.T) {
	svc, _, _ := newTestService(nil)

	req := repRequest("2026-01-01", "2026-01-10")
	req.RepID = "ghost"
	_, err := svc.Generate(context.Background(), req)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), "got %v", err)
}

func TestGenerateNoCallsInPeriod(t *testing.T) {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(analysesFor("R1", 5, start, time.Hour))

	_, err := svc.Generate(context.Background(), repRequest("2026-01-01", "2026-01-10"))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), "got %v", err)
}

func TestGenerateSummarizerTimeout(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	reps := &fakeRepRepo{byID: map[string]*models.RepProfile{"R1": {ID: "R1", FullName: "Ada"}}}
	summ := &fakeSummarizer{err: context.DeadlineExceeded}
	svc := NewService(reps, &fakeTeamRepo{}, &fakeAnalysisRepo{rows: analysesFor("R1", 3, start, time.Hour)},
		cache.NewMemoryCache(), summ, testLogger())

	_, err := svc.Generate(context.Background(), repRequest("2026-01-01", "2026-01-10"))
	assert.True(t, utils.IsCode(err, utils.CodeTimeout), "got %v", err)
}

func TestGenerateSummarizerFailure(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	reps := &fakeRepRepo{byID: map[string]*models.RepProfile{"R1": {ID: "R1", FullName: "Ada"}}}
	summ := &fakeSummarizer{err: errors.New("model unavailable")}
	svc := NewService(reps, &fakeTeamRepo{}, &fakeAnalysisRepo{rows: analysesFor("R1", 3, start, time.Hour)},
		cache.NewMemoryCache(), summ, testLogger())

	_, err := svc.Generate(context.Background(), repRequest("2026-01-01", "2026-01-10"))
	assert.True(t, utils.IsCode(err, utils.CodeInternal), "got %v", err)
}

func TestGenerateOrganizationScope(t *testing.T) {
	teamID := "T1"
	reps := &fakeRepRepo{active: []models.RepProfile{
		{ID: "R1", FullName: "Ada Okafor", TeamID: &teamID, Active: true},
		{ID: "R2", FullName: "Ben Silva", Active: true},
	}}
	teams := &fakeTeamRepo{teams: []models.Team{{ID: "T1", Name: "Enterprise East"}}}

	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	rows := append(analysesFor("R1", 4, start, time.Hour), analysesFor("R2", 2, start, time.Hour)...)
	svc := NewService(reps, teams, &fakeAnalysisRepo{rows: rows},
		cache.NewMemoryCache(), &fakeSummarizer{}, testLogger())

	rep, err := svc.Generate(context.Background(), GenerateRequest{
		Scope:     ScopeOrganization,
		DateRange: DateRange{From: "2026-01-01", To: "2026-01-10"},
	})
	require.NoError(t, err)

	require.Len(t, rep.Metadata.RepContributions, 2)
	assert.Equal(t, "R1", rep.Metadata.RepContributions[0].RepID)
	assert.Equal(t, "Enterprise East", rep.Metadata.RepContributions[0].TeamName)
	assert.Equal(t, "R2", rep.Metadata.RepContributions[1].RepID)
}

func TestGenerateKeepsUnparseableRows(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	rows := analysesFor("R1", 2, start, time.Hour)
	rows = append(rows, models.CallAnalysis{
		ID:        "R1-bad",
		RepID:     "R1",
		Result:    datatypes.JSON(`{"heat_score": "not a number"}`),
		CreatedAt: start.Add(3 * time.Hour),
	})

	svc, _, _ := newTestService(rows)
	rep, err := svc.Generate(context.Background(), repRequest("2026-01-01", "2026-01-10"))
	require.NoError(t, err)

	// the bad row still counts toward volume and per-rep call counts
	assert.Equal(t, 3, rep.Metadata.TotalCalls)
	require.Len(t, rep.Metadata.RepContributions, 1)
	assert.Equal(t, 3, rep.Metadata.RepContributions[0].CallCount)
	require.NotNil(t, rep.Metadata.RepContributions[0].AvgHeatScore)
	assert.InDelta(t, 70, *rep.Metadata.RepContributions[0].AvgHeatScore, 1e-9)
}
