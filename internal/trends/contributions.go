package trends

import (
	"sort"

	"github.com/getcoachly/coachly/internal/models"
)

// ComputeContributions aggregates per-rep stats from raw call records. Reps
// with no matched calls are omitted entirely. Averages skip absent scores,
// each framework sub-score independently.
func ComputeContributions(records []CallRecord, reps []models.RepProfile, teamNames map[string]string, totalCalls int) []RepContribution {
	byRep := make(map[string][]CallRecord)
	for _, r := range records {
		byRep[r.RepID] = append(byRep[r.RepID], r)
	}

	out := make([]RepContribution, 0, len(reps))
	for _, rep := range reps {
		calls := byRep[rep.ID]
		if len(calls) == 0 {
			continue
		}

		var heats, disc, obj, val, clo []*float64
		for _, c := range calls {
			heats = append(heats, c.Result.HeatScore)
			disc = append(disc, c.Result.Framework.Discovery)
			obj = append(obj, c.Result.Framework.ObjectionHandling)
			val = append(val, c.Result.Framework.ValueArticulation)
			clo = append(clo, c.Result.Framework.ClosingTechnique)
		}

		contrib := RepContribution{
			RepID:        rep.ID,
			RepName:      rep.FullName,
			CallCount:    len(calls),
			AvgHeatScore: meanSkippingNil(heats),
			AvgFramework: models.FrameworkScores{
				Discovery:         meanSkippingNil(disc),
				ObjectionHandling: meanSkippingNil(obj),
				ValueArticulation: meanSkippingNil(val),
				ClosingTechnique:  meanSkippingNil(clo),
			},
		}
		if totalCalls > 0 {
			contrib.PercentageOfTotal = float64(len(calls)) / float64(totalCalls) * 100
		}
		if rep.TeamID != nil {
			contrib.TeamName = teamNames[*rep.TeamID]
		}

		out = append(out, contrib)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CallCount != out[j].CallCount {
			return out[i].CallCount > out[j].CallCount
		}
		return out[i].RepID < out[j].RepID
	})
	return out
}

func meanSkippingNil(vals []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range vals {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}
