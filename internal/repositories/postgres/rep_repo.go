package postgres

import (
	"context"
	"errors"

	"github.com/getcoachly/coachly/internal/models"
	"github.com/getcoachly/coachly/internal/utils"
	"gorm.io/gorm"
)

type RepRepository interface {
	GetByID(ctx context.Context, repID string) (*models.RepProfile, error)
	ListActive(ctx context.Context) ([]models.RepProfile, error)
	ListByTeam(ctx context.Context, teamID string) ([]models.RepProfile, error)
}

type repRepo struct {
	db *gorm.DB
}

func NewRepRepo(db *gorm.DB) RepRepository {
	return &repRepo{db: db}
}

func (r *repRepo) GetByID(ctx context.Context, repID string) (*models.RepProfile, error) {
	var p models.RepProfile
	err := r.db.WithContext(ctx).
		Where("id = ?", repID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *repRepo) ListActive(ctx context.Context) ([]models.RepProfile, error) {
	var rows []models.RepProfile
	err := r.db.WithContext(ctx).
		Where("active = ? AND role = ?", true, string(models.RoleRep)).
		Order("full_name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repRepo) ListByTeam(ctx context.Context, teamID string) ([]models.RepProfile, error) {
	var rows []models.RepProfile
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND active = ?", teamID, true).
		Order("full_name ASC").
		Find(&rows).Error
	return rows, err
}
