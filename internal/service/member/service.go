package member

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
	"github.com/mohd-abex/abex-okr/pkg/crypto"
)

// Service handles member listing, account creation and deletion.
type Service struct {
	users      repository.UserRepository
	teams      repository.TeamRepository
	objectives repository.ObjectiveRepository
	guard      access.Guard
	logger     *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, teams repository.TeamRepository, objectives repository.ObjectiveRepository, guard access.Guard, logger *slog.Logger) Service {
	return Service{users: users, teams: teams, objectives: objectives, guard: guard, logger: logger}
}

// ListOrganizationMembers aggregates every member of the organization,
// including members without a team.
func (s Service) ListOrganizationMembers(ctx context.Context, identity domain.Identity, orgID string) ([]shape.MemberView, error) {
	if err := s.guard.Require(identity, access.OpListOrgMembers); err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwnOrganization(identity, orgID); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsersByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	teams, err := s.teams.ListTeamsByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teamByID := make(map[string]domain.Team, len(teams))
	for _, team := range teams {
		teamByID[team.ID] = team
	}

	objectivesByTeam := make(map[string][]domain.Objective)
	views := make([]shape.MemberView, 0, len(users))
	for _, user := range users {
		var team *domain.Team
		var objectives []domain.Objective
		if user.TeamID != "" {
			if t, ok := teamByID[user.TeamID]; ok {
				team = &t
				cached, ok := objectivesByTeam[t.ID]
				if !ok {
					cached, err = s.objectives.ListObjectivesByTeam(ctx, t.ID)
					if err != nil {
						return nil, fmt.Errorf("list team objectives: %w", err)
					}
					objectivesByTeam[t.ID] = cached
				}
				objectives = cached
			}
		}
		views = append(views, shape.Member(user, team, objectives))
	}
	return views, nil
}

// ListTeamMembers aggregates the members of one team. Leads and employees may
// only read their own team.
func (s Service) ListTeamMembers(ctx context.Context, identity domain.Identity, teamID string) ([]shape.MemberView, error) {
	if err := s.guard.Require(identity, access.OpListTeamMembers); err != nil {
		return nil, err
	}
	team, err := s.guard.AuthorizeTeamRead(ctx, identity, teamID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListUsersByTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	objectives, err := s.objectives.ListObjectivesByTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("list team objectives: %w", err)
	}
	views := make([]shape.MemberView, 0, len(users))
	for _, user := range users {
		views = append(views, shape.Member(user, team, objectives))
	}
	return views, nil
}

// CreateInput captures the create-user payload.
type CreateInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	TeamID   string `json:"team_id"`
	Title    string `json:"title"`
}

// CreatedUser is the creation response: the account plus the resolved team
// name.
type CreatedUser struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	TeamID         *string   `json:"team_id"`
	TeamName       string    `json:"team_name,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Title          string    `json:"title,omitempty"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateUser registers an account inside the caller's organization. The
// target team, when given, must belong to that organization.
func (s Service) CreateUser(ctx context.Context, identity domain.Identity, input CreateInput) (*CreatedUser, error) {
	if err := s.guard.Require(identity, access.OpCreateUser); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	teamName := ""
	teamID := strings.TrimSpace(input.TeamID)
	if teamID != "" {
		team, err := s.guard.AuthorizeTeamWrite(ctx, identity, teamID)
		if err != nil {
			return nil, err
		}
		teamName = team.Name
	} else if role != domain.RoleOrgAdmin {
		return nil, fmt.Errorf("%w: team_id is required for this role", domain.ErrInvalidInput)
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:             uuid.NewString(),
		OrganizationID: identity.OrganizationID,
		TeamID:         teamID,
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Title:          strings.TrimSpace(input.Title),
		Role:           role,
		LastActiveAt:   now,
		CreatedAt:      now,
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", "user_id", user.ID, "role", string(role), "created_by", identity.ID)

	created := CreatedUser{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		TeamName:       teamName,
		Name:           user.Name,
		Email:          user.Email,
		Title:          user.Title,
		Role:           string(user.Role),
		CreatedAt:      user.CreatedAt,
	}
	if teamID != "" {
		created.TeamID = &teamID
	}
	return &created, nil
}

// DeleteMember removes an account. Callers can never delete themselves
// through this path, regardless of role, and cross-organization targets are
// indistinguishable from missing ones. A repeated delete reports NotFound.
func (s Service) DeleteMember(ctx context.Context, identity domain.Identity, userID string) error {
	if err := s.guard.Require(identity, access.OpDeleteUser); err != nil {
		return err
	}
	if userID == identity.ID {
		return fmt.Errorf("%w: cannot delete own account", access.ErrForbidden)
	}
	target, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if target.OrganizationID != identity.OrganizationID {
		return repository.ErrNotFound
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", "user_id", userID, "deleted_by", identity.ID)
	return nil
}
