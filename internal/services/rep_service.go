package services

import (
	"context"
	"errors"

	"github.com/getcoachly/coachly/internal/models"
	pgrepo "github.com/getcoachly/coachly/internal/repositories/postgres"
	"github.com/getcoachly/coachly/internal/utils"
)

type RepService interface {
	Get(ctx context.Context, repID string) (*models.RepProfile, error)
	// List returns active reps, optionally narrowed to one team.
	List(ctx context.Context, teamID string) ([]models.RepProfile, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
}

type repService struct {
	reps  pgrepo.RepRepository
	teams pgrepo.TeamRepository
}

func NewRepService(reps pgrepo.RepRepository, teams pgrepo.TeamRepository) RepService {
	return &repService{reps: reps, teams: teams}
}

func (s *repService) Get(ctx context.Context, repID string) (*models.RepProfile, error) {
	const op = "RepService.Get"

	if repID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "rep_id is required", nil)
	}
	rep, err := s.reps.GetByID(ctx, repID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "rep not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get rep", err)
	}
	return rep, nil
}

func (s *repService) List(ctx context.Context, teamID string) ([]models.RepProfile, error) {
	const op = "RepService.List"

	var rows []models.RepProfile
	var err error
	if teamID != "" {
		rows, err = s.reps.ListByTeam(ctx, teamID)
	} else {
		rows, err = s.reps.ListActive(ctx)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list reps", err)
	}
	return rows, nil
}

func (s *repService) ListTeams(ctx context.Context) ([]models.Team, error) {
	const op = "RepService.ListTeams"

	rows, err := s.teams.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list teams", err)
	}
	return rows, nil
}
