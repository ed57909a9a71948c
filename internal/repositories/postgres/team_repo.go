package postgres

import (
	"context"
	"errors"

	"github.com/getcoachly/coachly/internal/models"
	"github.com/getcoachly/coachly/internal/utils"
	"gorm.io/gorm"
)

type TeamRepository interface {
	GetByID(ctx context.Context, teamID string) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
}

type teamRepo struct {
	db *gorm.DB
}

func NewTeamRepo(db *gorm.DB) TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) GetByID(ctx context.Context, teamID string) (*models.Team, error) {
	var t models.Team
	err := r.db.WithContext(ctx).Where("id = ?", teamID).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &t, err
}

func (r *teamRepo) List(ctx context.Context) ([]models.Team, error) {
	var rows []models.Team
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}
