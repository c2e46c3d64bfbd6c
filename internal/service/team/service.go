package team

import (
	"context"
	"errors"
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

// Service handles team workflows: creation, lead assignment, aggregation and
// deletion.
type Service struct {
	teams      repository.TeamRepository
	users      repository.UserRepository
	objectives repository.ObjectiveRepository
	guard      access.Guard
	logger     *slog.Logger
}

// New constructs a Service.
func New(teams repository.TeamRepository, users repository.UserRepository, objectives repository.ObjectiveRepository, guard access.Guard, logger *slog.Logger) Service {
	return Service{teams: teams, users: users, objectives: objectives, guard: guard, logger: logger}
}

// Team is the outward-facing team record.
type Team struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	LeadID         *string   `json:"lead_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func toWire(team domain.Team) Team {
	wire := Team{
		ID:             team.ID,
		OrganizationID: team.OrganizationID,
		Name:           team.Name,
		CreatedAt:      team.CreatedAt,
	}
	if team.LeadID != "" {
		lead := team.LeadID
		wire.LeadID = &lead
	}
	return wire
}

// Create registers a team in the caller's organization with no lead assigned.
func (s Service) Create(ctx context.Context, identity domain.Identity, name string) (*Team, error) {
	if err := s.guard.Require(identity, access.OpCreateTeam); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", domain.ErrInvalidInput)
	}
	team := domain.Team{
		ID:             uuid.NewString(),
		OrganizationID: identity.OrganizationID,
		Name:           name,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.teams.CreateTeam(ctx, &team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	s.logger.Info("team created", "team_id", team.ID, "org_id", team.OrganizationID, "user_id", identity.ID)
	wire := toWire(team)
	return &wire, nil
}

// ListByOrganization returns the aggregated view of every team in the
// organization. Counts and averages are recomputed from live reads.
func (s Service) ListByOrganization(ctx context.Context, identity domain.Identity, orgID string) ([]shape.TeamView, error) {
	if err := s.guard.Require(identity, access.OpListTeams); err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwnOrganization(identity, orgID); err != nil {
		return nil, err
	}
	teams, err := s.teams.ListTeamsByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	users, err := s.users.ListUsersByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	byID := make(map[string]domain.User, len(users))
	byTeam := make(map[string][]domain.User)
	for _, user := range users {
		byID[user.ID] = user
		if user.TeamID != "" {
			byTeam[user.TeamID] = append(byTeam[user.TeamID], user)
		}
	}

	views := make([]shape.TeamView, 0, len(teams))
	for _, team := range teams {
		objectives, err := s.objectives.ListObjectivesByTeam(ctx, team.ID)
		if err != nil {
			return nil, fmt.Errorf("list team objectives: %w", err)
		}
		var lead *domain.User
		if team.LeadID != "" {
			if user, ok := byID[team.LeadID]; ok {
				lead = &user
			}
		}
		views = append(views, shape.Team(team, lead, objectives, byTeam[team.ID]))
	}
	return views, nil
}

// UpdateInput carries a team update. A nil LeadID leaves the assignment
// untouched; an empty string clears it.
type UpdateInput struct {
	Name   string  `json:"name"`
	LeadID *string `json:"lead_id"`
}

// Update renames a team and, when requested, moves the lead assignment.
// Promoting a lead demotes any team that currently holds them; both steps
// commit in one transaction so readers never see the lead on two teams.
func (s Service) Update(ctx context.Context, identity domain.Identity, teamID string, input UpdateInput) (*Team, error) {
	if err := s.guard.Require(identity, access.OpUpdateTeam); err != nil {
		return nil, err
	}
	team, err := s.guard.AuthorizeTeamWrite(ctx, identity, teamID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != team.Name {
		if err := s.teams.RenameTeam(ctx, team.ID, name); err != nil {
			return nil, fmt.Errorf("rename team: %w", err)
		}
	}

	if input.LeadID != nil {
		leadID := strings.TrimSpace(*input.LeadID)
		if leadID != "" {
			lead, err := s.users.GetUserByID(ctx, leadID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, fmt.Errorf("%w: lead user not found", domain.ErrInvalidInput)
				}
				return nil, fmt.Errorf("load lead: %w", err)
			}
			if lead.OrganizationID != identity.OrganizationID {
				return nil, repository.ErrNotFound
			}
			if lead.TeamID != team.ID {
				return nil, fmt.Errorf("%w: lead must be a member of the team", domain.ErrInvalidInput)
			}
		}
		if err := s.teams.AssignTeamLead(ctx, team.ID, leadID); err != nil {
			return nil, fmt.Errorf("assign team lead: %w", err)
		}
		s.logger.Info("team lead assigned", "team_id", team.ID, "lead_id", leadID, "user_id", identity.ID)
	}

	updated, err := s.teams.GetTeamByID(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("reload team: %w", err)
	}
	wire := toWire(*updated)
	return &wire, nil
}

// Delete removes a team. Schema rules detach members and cascade objectives;
// a store without those rules surfaces the failure as a conflict.
func (s Service) Delete(ctx context.Context, identity domain.Identity, teamID string) error {
	if err := s.guard.Require(identity, access.OpDeleteTeam); err != nil {
		return err
	}
	if _, err := s.guard.AuthorizeTeamWrite(ctx, identity, teamID); err != nil {
		return err
	}
	if err := s.teams.DeleteTeam(ctx, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	s.logger.Info("team deleted", "team_id", teamID, "user_id", identity.ID)
	return nil
}
