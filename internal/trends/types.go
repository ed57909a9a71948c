package trends

import (
	"time"

	"github.com/getcoachly/coachly/internal/models"
	"github.com/getcoachly/coachly/internal/summarizer"
)

type Scope string

const (
	ScopeOrganization Scope = "organization"
	ScopeTeam         Scope = "team"
	ScopeRep          Scope = "rep"
)

// Tier is the analysis strategy chosen from call volume.
type Tier string

const (
	TierDirect       Tier = "direct"
	TierSampled      Tier = "sampled"
	TierHierarchical Tier = "hierarchical"
)

const (
	directMaxCalls   = 30
	sampledMaxCalls  = 100
	sampleTargetSize = 30

	cacheTTL         = 15 * time.Minute
	summarizeTimeout = 55 * time.Second
)

type DateRange struct {
	From string `json:"from"` // YYYY-MM-DD, inclusive
	To   string `json:"to"`   // YYYY-MM-DD, inclusive
}

type GenerateRequest struct {
	Scope        Scope     `json:"scope"`
	TeamID       string    `json:"teamId,omitempty"`
	RepID        string    `json:"repId,omitempty"`
	DateRange    DateRange `json:"dateRange"`
	ForceRefresh bool      `json:"forceRefresh,omitempty"`
}

// CallRecord is the slice of a CallAnalysis row the pipeline works on.
type CallRecord struct {
	ID     string
	RepID  string
	Date   time.Time
	Result models.AnalysisResult
}

type SamplingDetails struct {
	OriginalCount int    `json:"originalCount"`
	SampledCount  int    `json:"sampledCount"`
	Method        string `json:"method"`
}

type RepContribution struct {
	RepID             string                 `json:"repId"`
	RepName           string                 `json:"repName"`
	TeamName          string                 `json:"teamName,omitempty"`
	CallCount         int                    `json:"callCount"`
	AvgHeatScore      *float64               `json:"avgHeatScore"`
	AvgFramework      models.FrameworkScores `json:"avgFrameworkScores"`
	PercentageOfTotal float64                `json:"percentageOfTotal"`
}

type Metadata struct {
	Scope            Scope             `json:"scope"`
	TeamID           string            `json:"teamId,omitempty"`
	RepID            string            `json:"repId,omitempty"`
	DateRange        DateRange         `json:"dateRange"`
	Tier             Tier              `json:"tier"`
	TotalCalls       int               `json:"totalCalls"`
	AnalyzedCalls    int               `json:"analyzedCalls"`
	Sampling         *SamplingDetails  `json:"sampling,omitempty"`
	RepContributions []RepContribution `json:"repContributions"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}

type Report struct {
	Analysis *summarizer.TrendSummary `json:"analysis"`
	Metadata Metadata                 `json:"metadata"`

	Cached   bool       `json:"_cached,omitempty"`
	CachedAt *time.Time `json:"_cachedAt,omitempty"`
}

// cacheEnvelope wraps a stored report. ExpiresAt is checked again at read
// time so the 15-minute contract holds even if the store's own TTL lags.
type cacheEnvelope struct {
	Report     Report    `json:"report"`
	ComputedAt time.Time `json:"computed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
