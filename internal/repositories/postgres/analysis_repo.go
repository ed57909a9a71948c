package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/getcoachly/coachly/internal/models"
	"github.com/getcoachly/coachly/internal/utils"
	"gorm.io/gorm"
)

type AnalysisRepository interface {
	Insert(ctx context.Context, a *models.CallAnalysis) error
	GetByID(ctx context.Context, id string) (*models.CallAnalysis, error)
	// ListForReps returns non-deleted analyses for the rep set, created in
	// [from, toExclusive), oldest first.
	ListForReps(ctx context.Context, repIDs []string, from, toExclusive time.Time) ([]models.CallAnalysis, error)
	ListByRep(ctx context.Context, repID string, limit int) ([]models.CallAnalysis, error)
	SoftDelete(ctx context.Context, id string) error
	// ListByCompany matches analyses by normalized company name, used by the
	// Salesforce-export enrichment.
	ListByCompany(ctx context.Context, company string) ([]models.CallAnalysis, error)
	// SimilarByEmbedding returns the nearest analyses to the query vector,
	// used to pull relevant past calls into chat context.
	SimilarByEmbedding(ctx context.Context, repID string, query pgvector.Vector, limit int) ([]models.CallAnalysis, error)
}

type analysisRepo struct {
	db *gorm.DB
}

func NewAnalysisRepo(db *gorm.DB) AnalysisRepository {
	return &analysisRepo{db: db}
}

func (r *analysisRepo) Insert(ctx context.Context, a *models.CallAnalysis) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *analysisRepo) GetByID(ctx context.Context, id string) (*models.CallAnalysis, error) {
	var row models.CallAnalysis
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *analysisRepo) ListForReps(ctx context.Context, repIDs []string, from, toExclusive time.Time) ([]models.CallAnalysis, error) {
	if len(repIDs) == 0 {
		return nil, nil
	}
	var rows []models.CallAnalysis
	err := r.db.WithContext(ctx).
		Where("rep_id IN ? AND created_at >= ? AND created_at < ?", repIDs, from, toExclusive).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *analysisRepo) ListByRep(ctx context.Context, repID string, limit int) ([]models.CallAnalysis, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.CallAnalysis
	err := r.db.WithContext(ctx).
		Where("rep_id = ?", repID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *analysisRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CallAnalysis{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *analysisRepo) ListByCompany(ctx context.Context, company string) ([]models.CallAnalysis, error) {
	var rows []models.CallAnalysis
	err := r.db.WithContext(ctx).
		Where("LOWER(TRIM(company_name)) = ?", company).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *analysisRepo) SimilarByEmbedding(ctx context.Context, repID string, query pgvector.Vector, limit int) ([]models.CallAnalysis, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []models.CallAnalysis
	err := r.db.WithContext(ctx).
		Where("rep_id = ? AND embedding IS NOT NULL", repID).
		Order(gorm.Expr("embedding <-> ?", query)).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
