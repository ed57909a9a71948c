package trends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/getcoachly/coachly/internal/cache"
	"github.com/getcoachly/coachly/internal/models"
	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/summarizer"
	"github.com/getcoachly/coachly/internal/utils"
)

type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*Report, error)
}

type service struct {
	reps  pgrepo.RepRepository
	teams pgrepo.TeamRepository
	calls pgrepo.AnalysisRepository
	cache cache.Cache
	summ  summarizer.Summarizer
	log   *logrus.Entry
}

func NewService(
	reps pgrepo.RepRepository,
	teams pgrepo.TeamRepository,
	calls pgrepo.AnalysisRepository,
	c cache.Cache,
	summ summarizer.Summarizer,
	log *logrus.Entry,
) Service {
	return &service{reps: reps, teams: teams, calls: calls, cache: c, summ: summ, log: log}
}

func (s *service) Generate(ctx context.Context, req GenerateRequest) (*Report, error) {
	const op = "TrendService.Generate"

	from, toExclusive, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	key := cacheKey(req)
	if !req.ForceRefresh {
		if cached := s.readCache(ctx, key); cached != nil {
			return cached, nil
		}
	}

	reps, teamNames, err := s.resolveScope(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(reps) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no reps found for the requested scope", nil)
	}

	repIDs := make([]string, len(reps))
	for i, r := range reps {
		repIDs[i] = r.ID
	}

	analyses, err := s.calls.ListForReps(ctx, repIDs, from, toExclusive)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load call analyses", err)
	}
	if len(analyses) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no analyzed calls in the selected period", nil)
	}

	records := s.toRecords(analyses)
	total := len(records)

	tier := TierDirect
	switch {
	case total > sampledMaxCalls:
		tier = TierHierarchical
	case total > directMaxCalls:
		tier = TierSampled
	}

	analyzed := records
	var sampling *SamplingDetails
	if tier != TierDirect {
		// The hierarchical tier currently goes through the same flat sampler
		// as the sampled tier; only the label differs.
		res := SampleStratified(records, sampleTargetSize)
		analyzed = res.Sampled
		sampling = &SamplingDetails{
			OriginalCount: res.OriginalCount,
			SampledCount:  len(res.Sampled),
			Method:        "stratified-weekly",
		}
	}

	sctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	summary, err := s.summ.Summarize(sctx, summarizer.Request{
		Scope: string(req.Scope),
		From:  req.DateRange.From,
		To:    req.DateRange.To,
		Tier:  string(tier),
		Calls: toFeatures(analyzed),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || sctx.Err() == context.DeadlineExceeded {
			return nil, utils.E(utils.CodeTimeout, op, "trend summarization timed out", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "trend summarization failed", err)
	}

	now := time.Now().UTC()
	report := Report{
		Analysis: summary,
		Metadata: Metadata{
			Scope:            req.Scope,
			TeamID:           req.TeamID,
			RepID:            req.RepID,
			DateRange:        req.DateRange,
			Tier:             tier,
			TotalCalls:       total,
			AnalyzedCalls:    len(analyzed),
			Sampling:         sampling,
			RepContributions: ComputeContributions(records, reps, teamNames, total),
			GeneratedAt:      now,
		},
	}

	env := cacheEnvelope{Report: report, ComputedAt: now, ExpiresAt: now.Add(cacheTTL)}
	if err := s.cache.SetJSON(ctx, key, env, cacheTTL); err != nil {
		// best-effort: a stale cache beats a failed request
		s.log.WithError(err).WithField("key", key).Warn("trend cache write failed")
	}

	return &report, nil
}

func validateRequest(req GenerateRequest) (from, toExclusive time.Time, err error) {
	const op = "TrendService.Generate"

	switch req.Scope {
	case ScopeOrganization:
	case ScopeTeam:
		if req.TeamID == "" {
			return from, toExclusive, utils.E(utils.CodeInvalidArgument, op, "teamId is required for team scope", nil)
		}
	case ScopeRep:
		if req.RepID == "" {
			return from, toExclusive, utils.E(utils.CodeInvalidArgument, op, "repId is required for rep scope", nil)
		}
	default:
		return from, toExclusive, utils.E(utils.CodeInvalidArgument, op, "scope must be organization, team, or rep", nil)
	}

	if req.DateRange.From == "" || req.DateRange.To == "" {
		return from, toExclusive, utils.E(utils.CodeInvalidArgument, op, "dateRange.from and dateRange.to are required", nil)
	}
	from, err = time.ParseInLocation("2006-01-02", req.DateRange.From, time.UTC)
	if err != nil {
		return from, toExclusive, utils.E(utils.CodeInvalidArgument, op, "dateRange.from must be YYYY-MM-DD", err)
	}
	to, err := time.ParseInLocation("2006-01-02", req.DateRange.To, time.UTC)
	if err != nil {
		return from, toExclusive, utils.E(utils.CodeInvalidArgument, op, "dateRange.to must be YYYY-MM-DD", err)
	}
	if to.Before(from) {
		return from, toExclusive, utils.E(utils.CodeInvalidArgument, op, "dateRange.to is before dateRange.from", nil)
	}

	// inclusive day boundaries
	return from, to.AddDate(0, 0, 1), nil
}

func cacheKey(req GenerateRequest) string {
	target := "-"
	switch req.Scope {
	case ScopeTeam:
		target = req.TeamID
	case ScopeRep:
		target = req.RepID
	}
	return fmt.Sprintf("trends:%s:%s:%s_%s", req.Scope, target, req.DateRange.From, req.DateRange.To)
}

func (s *service) readCache(ctx context.Context, key string) *Report {
	var env cacheEnvelope
	hit, err := s.cache.GetJSON(ctx, key, &env)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("trend cache read failed")
		return nil
	}
	if !hit || !time.Now().Before(env.ExpiresAt) {
		return nil
	}

	r := env.Report
	r.Cached = true
	computedAt := env.ComputedAt
	r.CachedAt = &computedAt
	return &r
}

// resolveScope loads the rep set for the request; organization scope also
// loads team names concurrently with the rep list.
func (s *service) resolveScope(ctx context.Context, req GenerateRequest) ([]models.RepProfile, map[string]string, error) {
	const op = "TrendService.Generate"
	teamNames := make(map[string]string)

	switch req.Scope {
	case ScopeRep:
		rep, err := s.reps.GetByID(ctx, req.RepID)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return nil, nil, utils.E(utils.CodeInvalidArgument, op, "no reps found for the requested scope", err)
			}
			return nil, nil, utils.E(utils.CodeInternal, op, "failed to load rep", err)
		}
		return []models.RepProfile{*rep}, teamNames, nil

	case ScopeTeam:
		reps, err := s.reps.ListByTeam(ctx, req.TeamID)
		if err != nil {
			return nil, nil, utils.E(utils.CodeInternal, op, "failed to load team reps", err)
		}
		return reps, teamNames, nil

	default: // organization
		var reps []models.RepProfile
		var teams []models.Team

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			reps, err = s.reps.ListActive(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			teams, err = s.teams.List(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, nil, utils.E(utils.CodeInternal, op, "failed to load reps and teams", err)
		}

		for _, t := range teams {
			teamNames[t.ID] = t.Name
		}
		return reps, teamNames, nil
	}
}

func (s *service) toRecords(analyses []models.CallAnalysis) []CallRecord {
	records := make([]CallRecord, 0, len(analyses))
	for _, a := range analyses {
		rec := CallRecord{ID: a.ID, RepID: a.RepID, Date: a.CreatedAt}
		if parsed, err := a.ParseResult(); err != nil {
			// keep the row; its scores just won't contribute
			s.log.WithError(err).WithField("analysis_id", a.ID).Warn("unparseable analysis result")
		} else {
			rec.Result = *parsed
		}
		records = append(records, rec)
	}
	return records
}

func toFeatures(records []CallRecord) []summarizer.CallFeature {
	features := make([]summarizer.CallFeature, 0, len(records))
	for _, r := range records {
		features = append(features, summarizer.CallFeature{
			RepID:        r.RepID,
			Date:         r.Date,
			HeatScore:    r.Result.HeatScore,
			Framework:    r.Result.Framework,
			Summary:      r.Result.Summary,
			Strengths:    r.Result.Strengths,
			Improvements: r.Result.Improvements,
		})
	}
	return features
}
