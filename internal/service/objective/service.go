package objective

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/mohd-abex/abex-okr/internal/access"
	"github.com/mohd-abex/abex-okr/internal/domain"
	"github.com/mohd-abex/abex-okr/internal/repository"
	"github.com/mohd-abex/abex-okr/internal/shape"
)

const dateLayout = "2006-01-02"

// Service handles objective reads and creation within the caller's scope.
type Service struct {
	objectives repository.ObjectiveRepository
	guard      access.Guard
	logger     *slog.Logger
}

// New constructs a Service.
func New(objectives repository.ObjectiveRepository, guard access.Guard, logger *slog.Logger) Service {
	return Service{objectives: objectives, guard: guard, logger: logger}
}

// List returns the flattened objectives of every team the identity may read.
func (s Service) List(ctx context.Context, identity domain.Identity) ([]shape.FlatObjective, error) {
	if err := s.guard.Require(identity, access.OpListObjectives); err != nil {
		return nil, err
	}
	teamIDs, err := s.guard.ResolveReadableTeams(ctx, identity)
	if err != nil {
		return nil, err
	}
	rows, err := s.objectives.ListObjectivesByTeams(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("list objectives: %w", err)
	}
	return shape.Objectives(rows), nil
}

// CreateInput captures the create-objective payload. Dates arrive as
// YYYY-MM-DD strings.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TeamID      string `json:"team_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// Create inserts an objective after the two-stage target check: the team must
// belong to the caller's organization (NotFound otherwise, masking cross-org
// existence), and a team lead must target their own team (Forbidden
// otherwise), in that order.
func (s Service) Create(ctx context.Context, identity domain.Identity, input CreateInput) (*shape.FlatObjective, error) {
	if err := s.guard.Require(identity, access.OpCreateObjective); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(input.TeamID) == "" {
		return nil, fmt.Errorf("%w: team_id is required", domain.ErrInvalidInput)
	}
	start, err := time.Parse(dateLayout, input.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	end, err := time.Parse(dateLayout, input.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date precedes start_date", domain.ErrInvalidInput)
	}

	team, err := s.guard.AuthorizeTeamWrite(ctx, identity, input.TeamID)
	if err != nil {
		return nil, err
	}

	objective := domain.Objective{
		ID:          uuid.NewString(),
		TeamID:      team.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		StartDate:   start,
		EndDate:     end,
		Progress:    0,
		Status:      domain.StatusOnTrack,
		CreatedBy:   identity.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.objectives.CreateObjective(ctx, &objective); err != nil {
		return nil, fmt.Errorf("create objective: %w", err)
	}
	s.logger.Info("objective created", "objective_id", objective.ID, "team_id", team.ID, "user_id", identity.ID)

	flat := shape.Objective(domain.ObjectiveRow{Objective: objective, TeamName: team.Name})
	return &flat, nil
}
