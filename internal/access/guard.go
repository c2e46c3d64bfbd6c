package access

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/mohd-abex/abex-okr/internal/domain"
	"github.com/mohd-abex/abex-okr/internal/repository"
)

// Guard enforces role and scope checks ahead of every core operation. The
// role check runs first and touches no storage; only then does the scope
// check read teams, so out-of-scope callers never learn whether a resource
// exists.
type Guard struct {
	teams  repository.TeamRepository
	logger *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(teams repository.TeamRepository, logger *slog.Logger) Guard {
	return Guard{teams: teams, logger: logger}
}

// Require rejects callers whose role does not grant the operation.
func (g Guard) Require(identity domain.Identity, op Operation) error {
	if !Allowed(identity.Role, op) {
		g.logger.Warn("operation denied", "op", string(op), "role", string(identity.Role), "user_id", identity.ID)
		return fmt.Errorf("%w: %s", ErrForbidden, op)
	}
	return nil
}

// ResolveReadableTeams returns the set of team identifiers the identity may
// read. Org-wide roles resolve against the store; team-scoped roles resolve
// to their own team without any store access.
func (g Guard) ResolveReadableTeams(ctx context.Context, identity domain.Identity) ([]string, error) {
	cap, ok := Lookup(identity.Role)
	if !ok {
		return nil, fmt.Errorf("%w: role %q", ErrForbidden, identity.Role)
	}
	if cap.Scope == ScopeOrganization {
		teams, err := g.teams.ListTeamsByOrganization(ctx, identity.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("resolve organization teams: %w", err)
		}
		ids := make([]string, 0, len(teams))
		for _, team := range teams {
			ids = append(ids, team.ID)
		}
		return ids, nil
	}
	if identity.TeamID == "" {
		return nil, ErrInvalidIdentityState
	}
	return []string{identity.TeamID}, nil
}

// AuthorizeTeamWrite verifies the target team for a scoped write. The
// organization check runs before the role-specific ownership check so a lead
// probing another organization's team sees NotFound, not Forbidden.
func (g Guard) AuthorizeTeamWrite(ctx context.Context, identity domain.Identity, teamID string) (*domain.Team, error) {
	team, err := g.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OrganizationID != identity.OrganizationID {
		// Mask existence across the organization boundary.
		return nil, repository.ErrNotFound
	}
	if identity.Role == domain.RoleTeamLead && team.ID != identity.TeamID {
		return nil, fmt.Errorf("%w: team %s is not yours", ErrForbidden, teamID)
	}
	return team, nil
}

// AuthorizeTeamRead verifies a team read against the caller's resolved scope.
// Cross-organization targets surface as NotFound; same-organization targets
// outside the caller's team surface as Forbidden.
func (g Guard) AuthorizeTeamRead(ctx context.Context, identity domain.Identity, teamID string) (*domain.Team, error) {
	team, err := g.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OrganizationID != identity.OrganizationID {
		return nil, repository.ErrNotFound
	}
	cap, ok := Lookup(identity.Role)
	if !ok {
		return nil, ErrForbidden
	}
	if cap.Scope == ScopeTeam && team.ID != identity.TeamID {
		return nil, fmt.Errorf("%w: team %s is not yours", ErrForbidden, teamID)
	}
	return team, nil
}

// RequireOwnOrganization rejects requests that name a different organization
// than the caller's. The mismatch is masked as NotFound.
func (g Guard) RequireOwnOrganization(identity domain.Identity, orgID string) error {
	if orgID != identity.OrganizationID {
		return repository.ErrNotFound
	}
	return nil
}

// IsScopeError reports whether the error belongs to the access taxonomy
// rather than to storage.
func IsScopeError(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrInvalidIdentityState) || errors.Is(err, ErrUnauthenticated)
}
