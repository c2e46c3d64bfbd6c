package access

import (
	"context"
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/mohd-abex/abex-okr/internal/domain"
	"github.com/mohd-abex/abex-okr/internal/repository"
)

type stubTeamRepository struct {
	teams   map[string]domain.Team
	listErr error
}

func (s *stubTeamRepository) CreateTeam(ctx context.Context, team *domain.Team) error { return nil }

func (s *stubTeamRepository) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	if team, ok := s.teams[teamID]; ok {
		return &team, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubTeamRepository) ListTeamsByOrganization(ctx context.Context, orgID string) ([]domain.Team, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var teams []domain.Team
	for _, team := range s.teams {
		if team.OrganizationID == orgID {
			teams = append(teams, team)
		}
	}
	return teams, nil
}

func (s *stubTeamRepository) RenameTeam(ctx context.Context, teamID, name string) error { return nil }

func (s *stubTeamRepository) AssignTeamLead(ctx context.Context, teamID, leadID string) error {
	return nil
}

func (s *stubTeamRepository) DeleteTeam(ctx context.Context, teamID string) error { return nil }

func testGuard(repo *stubTeamRepository) Guard {
	return NewGuard(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveReadableTeamsSingleTeamRoles(t *testing.T) {
	guard := testGuard(&stubTeamRepository{})
	for _, role := range []domain.Role{domain.RoleTeamLead, domain.RoleEmployee} {
		identity := domain.Identity{ID: "u1", OrganizationID: "org-1", TeamID: "team-9", Role: role}
		teams, err := guard.ResolveReadableTeams(context.Background(), identity)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", role, err)
		}
		if len(teams) != 1 || teams[0] != "team-9" {
			t.Fatalf("%s: expected singleton {team-9}, got %v", role, teams)
		}
	}
}

func TestResolveReadableTeamsMissingTeamID(t *testing.T) {
	guard := testGuard(&stubTeamRepository{})
	identity := domain.Identity{ID: "u1", OrganizationID: "org-1", Role: domain.RoleEmployee}
	if _, err := guard.ResolveReadableTeams(context.Background(), identity); !errors.Is(err, ErrInvalidIdentityState) {
		t.Fatalf("expected ErrInvalidIdentityState, got %v", err)
	}
}

func TestResolveReadableTeamsOrgAdmin(t *testing.T) {
	repo := &stubTeamRepository{teams: map[string]domain.Team{
		"team-1": {ID: "team-1", OrganizationID: "org-1"},
		"team-2": {ID: "team-2", OrganizationID: "org-1"},
		"team-3": {ID: "team-3", OrganizationID: "org-2"},
	}}
	guard := testGuard(repo)
	identity := domain.Identity{ID: "admin", OrganizationID: "org-1", Role: domain.RoleOrgAdmin}
	teams, err := guard.ResolveReadableTeams(context.Background(), identity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected two org-1 teams, got %v", teams)
	}
	for _, id := range teams {
		if id == "team-3" {
			t.Fatal("resolved set leaked a team from another organization")
		}
	}
}

func TestResolveReadableTeamsStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	guard := testGuard(&stubTeamRepository{listErr: storeErr})
	identity := domain.Identity{ID: "admin", OrganizationID: "org-1", Role: domain.RoleOrgAdmin}
	if _, err := guard.ResolveReadableTeams(context.Background(), identity); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestResolveReadableTeamsUnknownRole(t *testing.T) {
	guard := testGuard(&stubTeamRepository{})
	identity := domain.Identity{ID: "u1", OrganizationID: "org-1", TeamID: "team-1", Role: domain.Role("intern")}
	if _, err := guard.ResolveReadableTeams(context.Background(), identity); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unknown role, got %v", err)
	}
}

func TestRequireRejectsDisallowedOperation(t *testing.T) {
	guard := testGuard(&stubTeamRepository{})
	identity := domain.Identity{ID: "u1", Role: domain.RoleEmployee, TeamID: "team-1"}
	if err := guard.Require(identity, OpCreateTeam); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := guard.Require(identity, OpListObjectives); err != nil {
		t.Fatalf("expected allowed operation, got %v", err)
	}
}

func TestAuthorizeTeamWriteMasksCrossOrg(t *testing.T) {
	repo := &stubTeamRepository{teams: map[string]domain.Team{
		"team-other-org": {ID: "team-other-org", OrganizationID: "org-2"},
	}}
	guard := testGuard(repo)
	// A lead probing another organization's team must see the same answer as
	// for a missing team.
	identity := domain.Identity{ID: "lead", OrganizationID: "org-1", TeamID: "team-1", Role: domain.RoleTeamLead}
	if _, err := guard.AuthorizeTeamWrite(context.Background(), identity, "team-other-org"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound mask, got %v", err)
	}
	if _, err := guard.AuthorizeTeamWrite(context.Background(), identity, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing team, got %v", err)
	}
}

func TestAuthorizeTeamWriteLeadOwnTeamOnly(t *testing.T) {
	repo := &stubTeamRepository{teams: map[string]domain.Team{
		"team-1": {ID: "team-1", OrganizationID: "org-1"},
		"team-2": {ID: "team-2", OrganizationID: "org-1"},
	}}
	guard := testGuard(repo)
	identity := domain.Identity{ID: "lead", OrganizationID: "org-1", TeamID: "team-1", Role: domain.RoleTeamLead}

	if _, err := guard.AuthorizeTeamWrite(context.Background(), identity, "team-2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for same-org foreign team, got %v", err)
	}
	team, err := guard.AuthorizeTeamWrite(context.Background(), identity, "team-1")
	if err != nil {
		t.Fatalf("own team write rejected: %v", err)
	}
	if team.ID != "team-1" {
		t.Fatalf("unexpected team: %+v", team)
	}
}

func TestAuthorizeTeamReadScope(t *testing.T) {
	repo := &stubTeamRepository{teams: map[string]domain.Team{
		"team-1": {ID: "team-1", OrganizationID: "org-1"},
		"team-2": {ID: "team-2", OrganizationID: "org-1"},
		"team-x": {ID: "team-x", OrganizationID: "org-2"},
	}}
	guard := testGuard(repo)
	employee := domain.Identity{ID: "emp", OrganizationID: "org-1", TeamID: "team-1", Role: domain.RoleEmployee}

	if _, err := guard.AuthorizeTeamRead(context.Background(), employee, "team-1"); err != nil {
		t.Fatalf("own team read rejected: %v", err)
	}
	if _, err := guard.AuthorizeTeamRead(context.Background(), employee, "team-2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := guard.AuthorizeTeamRead(context.Background(), employee, "team-x"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound mask, got %v", err)
	}
}
