package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/getcoachly/coachly/internal/models"
	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/utils"
)

type CreateTaskInput struct {
	RepID   string
	CallID  *string
	Title   string
	Detail  string
	DueDate time.Time
}

type TaskService interface {
	Create(ctx context.Context, userID string, in CreateTaskInput) (*models.FollowUpTask, error)
	Get(ctx context.Context, id string) (*models.FollowUpTask, error)
	ListByRep(ctx context.Context, repID, status string, limit int) ([]models.FollowUpTask, error)
	Complete(ctx context.Context, id string) (*models.FollowUpTask, error)
	Delete(ctx context.Context, id string) error
	// ScanOverdue flips past-due open tasks to overdue; the reminder worker
	// runs it on a schedule.
	ScanOverdue(ctx context.Context) (int64, error)
}

type taskService struct {
	tasks pgrepo.TaskRepository
	log   *logrus.Entry
}

func NewTaskService(tasks pgrepo.TaskRepository, log *logrus.Entry) TaskService {
	return &taskService{tasks: tasks, log: log}
}

func (s *taskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*models.FollowUpTask, error) {
	const op = "TaskService.Create"

	if userID == "" || in.RepID == "" || in.Title == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id, rep_id, and title are required", nil)
	}
	if in.DueDate.IsZero() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "due_date is required", nil)
	}

	now := time.Now().UTC()
	t := &models.FollowUpTask{
		ID:        uuid.NewString(),
		RepID:     in.RepID,
		UserID:    userID,
		CallID:    in.CallID,
		Title:     in.Title,
		Detail:    in.Detail,
		Status:    models.TaskStatusOpen,
		DueDate:   in.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tasks.Insert(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create task", err)
	}
	return t, nil
}

func (s *taskService) Get(ctx context.Context, id string) (*models.FollowUpTask, error) {
	const op = "TaskService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "task not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get task", err)
	}
	return t, nil
}

func (s *taskService) ListByRep(ctx context.Context, repID, status string, limit int) ([]models.FollowUpTask, error) {
	const op = "TaskService.ListByRep"

	if repID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "rep_id is required", nil)
	}
	rows, err := s.tasks.ListByRep(ctx, repID, status, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list tasks", err)
	}
	return rows, nil
}

func (s *taskService) Complete(ctx context.Context, id string) (*models.FollowUpTask, error) {
	const op = "TaskService.Complete"

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Status = models.TaskStatusDone
	t.UpdatedAt = time.Now().UTC()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update task", err)
	}
	return t, nil
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	const op = "TaskService.Delete"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "task not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete task", err)
	}
	return nil
}

func (s *taskService) ScanOverdue(ctx context.Context) (int64, error) {
	const op = "TaskService.ScanOverdue"

	n, err := s.tasks.MarkOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to mark overdue tasks", err)
	}
	if n > 0 {
		s.log.WithField("count", n).Info("follow-up tasks marked overdue")
	}
	return n, nil
}
