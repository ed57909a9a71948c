package models

import (
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CallAnalysis is one analyzed sales call. Rows are immutable once written
// except for the soft-delete marker.
type CallAnalysis struct {
	ID     string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RepID  string `gorm:"column:rep_id;type:uuid;index" json:"rep_id"`
	UserID string `gorm:"column:user_id;type:uuid;index" json:"user_id"` // uploader

	CompanyName string `gorm:"column:company_name;type:text" json:"company_name"`
	ContactName string `gorm:"column:contact_name;type:text" json:"contact_name"`

	Transcript     string `gorm:"column:transcript;type:text" json:"transcript"`
	RecordingPath  string `gorm:"column:recording_path;type:text" json:"recording_path,omitempty"`
	TranscriptPath string `gorm:"column:transcript_path;type:text" json:"transcript_path,omitempty"`

	// Structured analyzer output (heat score, framework scores, behavioral
	// metrics). Stored raw; parse with ParseResult.
	Result datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`

	// pgvector, filled by the embedding pipeline when available
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`

	CallDate  time.Time      `gorm:"column:call_date;type:timestamptz;index" json:"call_date"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (CallAnalysis) TableName() string { return "call_analyses" }

// FrameworkScores are the coaching sub-scores on a 0-10 scale. Pointers:
// the analyzer omits scores it could not ground in the transcript.
type FrameworkScores struct {
	Discovery         *float64 `json:"discovery"`
	ObjectionHandling *float64 `json:"objection_handling"`
	ValueArticulation *float64 `json:"value_articulation"`
	ClosingTechnique  *float64 `json:"closing_technique"`
}

type AnalysisResult struct {
	HeatScore  *float64           `json:"heat_score"` // 0-100 deal engagement
	Framework  FrameworkScores    `json:"framework_scores"`
	Behavioral map[string]float64 `json:"behavioral_metrics,omitempty"` // talk_ratio, question_count, ...

	Summary      string   `json:"summary,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

func (a *CallAnalysis) ParseResult() (*AnalysisResult, error) {
	var out AnalysisResult
	if len(a.Result) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(a.Result, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
