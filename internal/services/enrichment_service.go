package services

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"time"

	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/utils"
)

type EnrichedRow struct {
	Opportunity string `json:"opportunity"`
	Company     string `json:"company"`
	Contact     string `json:"contact,omitempty"`
	Email       string `json:"email,omitempty"`

	Matched      bool       `json:"matched"`
	CallCount    int        `json:"callCount"`
	AvgHeatScore *float64   `json:"avgHeatScore,omitempty"`
	LastCallDate *time.Time `json:"lastCallDate,omitempty"`
}

type EnrichmentResult struct {
	Rows         []EnrichedRow `json:"rows"`
	TotalRows    int           `json:"totalRows"`
	MatchedRows  int           `json:"matchedRows"`
	DuplicateRows int          `json:"duplicateRows"`
}

type EnrichmentService interface {
	// EnrichCSV matches a Salesforce opportunity export against analyzed
	// calls by normalized company name. Duplicate rows (same opportunity,
	// company, and email) are counted and skipped.
	EnrichCSV(ctx context.Context, r io.Reader) (*EnrichmentResult, error)
}

type enrichmentService struct {
	analyses pgrepo.AnalysisRepository
}

func NewEnrichmentService(analyses pgrepo.AnalysisRepository) EnrichmentService {
	return &enrichmentService{analyses: analyses}
}

func (s *enrichmentService) EnrichCSV(ctx context.Context, r io.Reader) (*EnrichmentResult, error) {
	const op = "EnrichmentService.EnrichCSV"

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "failed to read CSV header", err)
	}

	cols := columnIndex(header)
	oppIdx := colOf(cols, "opportunity name", "opportunity")
	companyIdx := colOf(cols, "account name", "company")
	if companyIdx < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "CSV is missing an Account Name or Company column", nil)
	}
	contactIdx := colOf(cols, "contact name")
	emailIdx := colOf(cols, "contact email", "email")

	result := &EnrichmentResult{}
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "malformed CSV row", err)
		}
		result.TotalRows++

		row := EnrichedRow{
			Opportunity: field(record, oppIdx),
			Company:     field(record, companyIdx),
			Contact:     field(record, contactIdx),
			Email:       field(record, emailIdx),
		}

		hash := rowHash(row.Opportunity, row.Company, row.Email)
		if seen[hash] {
			result.DuplicateRows++
			continue
		}
		seen[hash] = true

		if company := strings.ToLower(strings.TrimSpace(row.Company)); company != "" {
			calls, err := s.analyses.ListByCompany(ctx, company)
			if err != nil {
				return nil, utils.E(utils.CodeInternal, op, "failed to match calls", err)
			}
			if len(calls) > 0 {
				row.Matched = true
				row.CallCount = len(calls)
				result.MatchedRows++

				var sum float64
				var n int
				for _, c := range calls {
					if parsed, perr := c.ParseResult(); perr == nil && parsed.HeatScore != nil {
						sum += *parsed.HeatScore
						n++
					}
					if row.LastCallDate == nil || c.CallDate.After(*row.LastCallDate) {
						d := c.CallDate
						row.LastCallDate = &d
					}
				}
				if n > 0 {
					avg := sum / float64(n)
					row.AvgHeatScore = &avg
				}
			}
		}

		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func colOf(cols map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func rowHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
