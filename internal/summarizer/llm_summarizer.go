package summarizer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/getcoachly/coachly/internal/providers/llm"
	"github.com/getcoachly/coachly/internal/utils"
)

const trendPrompt = `You are a sales coaching analyst. Below are analyzed sales calls for a %s-level review covering %s to %s.

Calls (JSON):
%s

Synthesize the coaching trends across these calls. Respond with only a JSON object:
{
  "overall_assessment": "2-3 sentence assessment",
  "key_strengths": ["..."],
  "common_challenges": ["..."],
  "coaching_priorities": [{"area": "...", "recommendation": "...", "urgency": "high|medium|low"}],
  "trend_direction": "improving|steady|declining"
}`

// LLMSummarizer runs the summarization step in-process against the
// configured LLM provider.
type LLMSummarizer struct {
	provider llm.Provider
	log      *logrus.Entry
}

func NewLLMSummarizer(provider llm.Provider, log *logrus.Entry) *LLMSummarizer {
	return &LLMSummarizer{provider: provider, log: log}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, req Request) (*TrendSummary, error) {
	calls, err := json.Marshal(req.Calls)
	if err != nil {
		return nil, fmt.Errorf("marshal call features: %w", err)
	}

	prompt := fmt.Sprintf(trendPrompt, req.Scope, req.From, req.To, string(calls))

	text, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm summarization: %w", err)
	}

	var out TrendSummary
	if err := json.Unmarshal([]byte(utils.ExtractJSONBlock(text)), &out); err != nil {
		return nil, fmt.Errorf("parse trend summary: %w", err)
	}

	if problems := ValidateSummary(&out); len(problems) > 0 {
		s.log.WithField("problems", problems).Warn("trend summary failed schema check, using as-is")
	}
	return &out, nil
}
