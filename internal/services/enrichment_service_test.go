package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/getcoachly/coachly/internal/models"
	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/utils"
)

type stubAnalysisRepo struct {
	pgrepo.AnalysisRepository
	byCompany map[string][]models.CallAnalysis
}

func (s *stubAnalysisRepo) ListByCompany(_ context.Context, company string) ([]models.CallAnalysis, error) {
	return s.byCompany[company], nil
}

func analysisWithHeat(heat float64, callDate time.Time) models.CallAnalysis {
	raw, _ := json.Marshal(map[string]float64{"heat_score": heat})
	return models.CallAnalysis{Result: datatypes.JSON(raw), CallDate: callDate}
}

func TestEnrichCSVMatchesAndAverages(t *testing.T) {
	early := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	repo := &stubAnalysisRepo{byCompany: map[string][]models.CallAnalysis{
		"acme corp": {
			analysisWithHeat(60, early),
			analysisWithHeat(80, late),
		},
	}}

	csv := strings.Join([]string{
		"Opportunity Name,Account Name,Contact Name,Contact Email",
		"Renewal FY26,Acme Corp,Jo Vega,jo@acme.example",
		"New Logo,Globex,Sam Reed,sam@globex.example",
	}, "\n")

	res, err := NewEnrichmentService(repo).EnrichCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 1, res.MatchedRows)
	assert.Equal(t, 0, res.DuplicateRows)
	require.Len(t, res.Rows, 2)

	acme := res.Rows[0]
	assert.True(t, acme.Matched)
	assert.Equal(t, 2, acme.CallCount)
	require.NotNil(t, acme.AvgHeatScore)
	assert.InDelta(t, 70, *acme.AvgHeatScore, 1e-9)
	require.NotNil(t, acme.LastCallDate)
	assert.True(t, acme.LastCallDate.Equal(late))

	globex := res.Rows[1]
	assert.False(t, globex.Matched)
	assert.Zero(t, globex.CallCount)
	assert.Nil(t, globex.AvgHeatScore)
}

func TestEnrichCSVCountsDuplicates(t *testing.T) {
	repo := &stubAnalysisRepo{}
	csv := strings.Join([]string{
		"Opportunity,Company,Email",
		"Renewal,Acme,jo@acme.example",
		"renewal,ACME,JO@acme.example", // same row, different casing
		"Renewal,Acme,other@acme.example",
	}, "\n")

	res, err := NewEnrichmentService(repo).EnrichCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 1, res.DuplicateRows)
	assert.Len(t, res.Rows, 2)
}

func TestEnrichCSVMissingCompanyColumn(t *testing.T) {
	csv := "Opportunity Name,Contact Email\nRenewal,jo@acme.example\n"

	_, err := NewEnrichmentService(&stubAnalysisRepo{}).EnrichCSV(context.Background(), strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestEnrichCSVSkipsHeatlessCallsInAverage(t *testing.T) {
	noHeat := models.CallAnalysis{Result: datatypes.JSON(`{}`), CallDate: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)}
	repo := &stubAnalysisRepo{byCompany: map[string][]models.CallAnalysis{
		"acme": {noHeat, analysisWithHeat(90, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))},
	}}

	csv := "Company\nAcme\n"
	res, err := NewEnrichmentService(repo).EnrichCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, 2, row.CallCount)
	require.NotNil(t, row.AvgHeatScore)
	assert.InDelta(t, 90, *row.AvgHeatScore, 1e-9, "calls without a heat score stay out of the average")
}
