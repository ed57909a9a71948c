package postgres

import (
	"context"

	"github.com/getcoachly/coachly/internal/models"
	"gorm.io/gorm"
)

type TranscriptFileRepository interface {
	Insert(ctx context.Context, f *models.TranscriptFile) error
	ListByCall(ctx context.Context, callID string) ([]models.TranscriptFile, error)
}

type transcriptFileRepo struct {
	db *gorm.DB
}

func NewTranscriptFileRepo(db *gorm.DB) TranscriptFileRepository {
	return &transcriptFileRepo{db: db}
}

func (r *transcriptFileRepo) Insert(ctx context.Context, f *models.TranscriptFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *transcriptFileRepo) ListByCall(ctx context.Context, callID string) ([]models.TranscriptFile, error) {
	var rows []models.TranscriptFile
	err := r.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("uploaded_at DESC").
		Find(&rows).Error
	return rows, err
}
