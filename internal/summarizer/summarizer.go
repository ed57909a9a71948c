package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/getcoachly/coachly/internal/models"
)

// CallFeature is the per-call record handed to the summarization step:
// scores and analyzer notes, never the raw transcript.
type CallFeature struct {
	RepID        string                 `json:"rep_id"`
	Date         time.Time              `json:"date"`
	HeatScore    *float64               `json:"heat_score,omitempty"`
	Framework    models.FrameworkScores `json:"framework_scores"`
	Summary      string                 `json:"summary,omitempty"`
	Strengths    []string               `json:"strengths,omitempty"`
	Improvements []string               `json:"improvements,omitempty"`
}

type Request struct {
	Scope string        `json:"scope"`
	From  string        `json:"from"`
	To    string        `json:"to"`
	Tier  string        `json:"tier"`
	Calls []CallFeature `json:"calls"`
}

type CoachingPriority struct {
	Area           string `json:"area"`
	Recommendation string `json:"recommendation"`
	Urgency        string `json:"urgency,omitempty"` // high|medium|low
}

type TrendSummary struct {
	OverallAssessment  string             `json:"overall_assessment"`
	KeyStrengths       []string           `json:"key_strengths"`
	CommonChallenges   []string           `json:"common_challenges"`
	CoachingPriorities []CoachingPriority `json:"coaching_priorities"`
	TrendDirection     string             `json:"trend_direction"` // improving|steady|declining
}

// Summarizer synthesizes a trend summary from per-call features. Callers are
// expected to bound it with a context deadline.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (*TrendSummary, error)
}

// ValidateSummary checks a response against the expected shape and returns
// the list of problems. Callers log the problems and use the summary anyway:
// a partially off-schema summary still beats a hard failure here.
func ValidateSummary(s *TrendSummary) []string {
	var problems []string
	if s == nil {
		return []string{"summary is empty"}
	}
	if s.OverallAssessment == "" {
		problems = append(problems, "missing overall_assessment")
	}
	if len(s.KeyStrengths) == 0 {
		problems = append(problems, "missing key_strengths")
	}
	if len(s.CoachingPriorities) == 0 {
		problems = append(problems, "missing coaching_priorities")
	}
	switch s.TrendDirection {
	case "improving", "steady", "declining":
	case "":
		problems = append(problems, "missing trend_direction")
	default:
		problems = append(problems, fmt.Sprintf("unexpected trend_direction %q", s.TrendDirection))
	}
	return problems
}
