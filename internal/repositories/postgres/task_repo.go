package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/getcoachly/coachly/internal/models"
	"github.com/getcoachly/coachly/internal/utils"
	"gorm.io/gorm"
)

type TaskRepository interface {
	Insert(ctx context.Context, t *models.FollowUpTask) error
	GetByID(ctx context.Context, id string) (*models.FollowUpTask, error)
	ListByRep(ctx context.Context, repID string, status string, limit int) ([]models.FollowUpTask, error)
	Update(ctx context.Context, t *models.FollowUpTask) error
	Delete(ctx context.Context, id string) error
	// MarkOverdue flips open tasks whose due date has passed and returns how
	// many changed.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type taskRepo struct {
	db *gorm.DB
}

func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) Insert(ctx context.Context, t *models.FollowUpTask) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*models.FollowUpTask, error) {
	var row models.FollowUpTask
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *taskRepo) ListByRep(ctx context.Context, repID string, status string, limit int) ([]models.FollowUpTask, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("rep_id = ?", repID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []models.FollowUpTask
	err := q.Order("due_date ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *taskRepo) Update(ctx context.Context, t *models.FollowUpTask) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *taskRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FollowUpTask{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *taskRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FollowUpTask{}).
		Where("status = ? AND due_date < ?", models.TaskStatusOpen, now).
		Updates(map[string]any{"status": models.TaskStatusOverdue, "updated_at": now})
	return res.RowsAffected, res.Error
}
