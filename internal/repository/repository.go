package repository

import (
	"context"

	"github.com/mohd-abex/abex-okr/internal/domain"
)

// UserRepository persists organization member accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsersByOrganization(ctx context.Context, orgID string) ([]domain.User, error)
	ListUsersByTeam(ctx context.Context, teamID string) ([]domain.User, error)
	// DeleteUser removes the user and clears any team lead reference held by
	// them within the same transaction. Returns ErrNotFound when no row exists.
	DeleteUser(ctx context.Context, id string) error
	TouchUserActivity(ctx context.Context, id string) error
}

// TeamRepository manages teams and lead assignment.
type TeamRepository interface {
	CreateTeam(ctx context.Context, team *domain.Team) error
	GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error)
	ListTeamsByOrganization(ctx context.Context, orgID string) ([]domain.Team, error)
	RenameTeam(ctx context.Context, teamID, name string) error
	// AssignTeamLead sets the team's lead after clearing any other team that
	// currently holds the same lead, in one transaction. An empty leadID
	// clears the assignment.
	AssignTeamLead(ctx context.Context, teamID, leadID string) error
	DeleteTeam(ctx context.Context, teamID string) error
}

// ObjectiveRepository persists objectives and their live key-result counts.
type ObjectiveRepository interface {
	CreateObjective(ctx context.Context, objective *domain.Objective) error
	GetObjectiveRow(ctx context.Context, id string) (*domain.ObjectiveRow, error)
	// ListObjectivesByTeams returns objectives for the given teams joined with
	// the team name and a grouped key-result count aggregate.
	ListObjectivesByTeams(ctx context.Context, teamIDs []string) ([]domain.ObjectiveRow, error)
	ListObjectivesByTeam(ctx context.Context, teamID string) ([]domain.Objective, error)
}
