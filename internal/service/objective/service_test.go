package objective

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/mohd-abex/abex-okr/internal/access"
	"github.com/mohd-abex/abex-okr/internal/domain"
	"github.com/mohd-abex/abex-okr/internal/repository"
)

type stubTeamRepo struct {
	teams map[string]domain.Team
}

func (s *stubTeamRepo) CreateTeam(_ context.Context, team *domain.Team) error {
	s.teams[team.ID] = *team
	return nil
}

func (s *stubTeamRepo) GetTeamByID(_ context.Context, teamID string) (*domain.Team, error) {
	team, ok := s.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &team, nil
}

func (s *stubTeamRepo) ListTeamsByOrganization(_ context.Context, orgID string) ([]domain.Team, error) {
	var out []domain.Team
	for _, team := range s.teams {
		if team.OrganizationID == orgID {
			out = append(out, team)
		}
	}
	return out, nil
}

func (s *stubTeamRepo) RenameTeam(context.Context, string, string) error  { return nil }
func (s *stubTeamRepo) AssignTeamLead(context.Context, string, string) error { return nil }
func (s *stubTeamRepo) DeleteTeam(context.Context, string) error         { return nil }

type stubObjectiveRepo struct {
	rows    map[string][]domain.ObjectiveRow
	created []domain.Objective
}

func (s *stubObjectiveRepo) CreateObjective(_ context.Context, objective *domain.Objective) error {
	s.created = append(s.created, *objective)
	return nil
}

func (s *stubObjectiveRepo) GetObjectiveRow(context.Context, string) (*domain.ObjectiveRow, error) {
	return nil, repository.ErrNotFound
}

func (s *stubObjectiveRepo) ListObjectivesByTeams(_ context.Context, teamIDs []string) ([]domain.ObjectiveRow, error) {
	var out []domain.ObjectiveRow
	for _, id := range teamIDs {
		out = append(out, s.rows[id]...)
	}
	return out, nil
}

func (s *stubObjectiveRepo) ListObjectivesByTeam(_ context.Context, teamID string) ([]domain.Objective, error) {
	var out []domain.Objective
	for _, row := range s.rows[teamID] {
		out = append(out, row.Objective)
	}
	return out, nil
}

func newTestService(teams *stubTeamRepo, objectives *stubObjectiveRepo) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(objectives, access.NewGuard(teams, logger), logger)
}

func fixtureRepos() (*stubTeamRepo, *stubObjectiveRepo) {
	teams := &stubTeamRepo{teams: map[string]domain.Team{
		"team-a": {ID: "team-a", OrganizationID: "org-1", Name: "Alpha"},
		"team-b": {ID: "team-b", OrganizationID: "org-1", Name: "Beta"},
		"team-x": {ID: "team-x", OrganizationID: "org-2", Name: "External"},
	}}
	objectives := &stubObjectiveRepo{rows: map[string][]domain.ObjectiveRow{
		"team-a": {{Objective: domain.Objective{ID: "obj-a", TeamID: "team-a"}, TeamName: "Alpha"}},
		"team-b": {{Objective: domain.Objective{ID: "obj-b", TeamID: "team-b"}, TeamName: "Beta"}},
		"team-x": {{Objective: domain.Objective{ID: "obj-x", TeamID: "team-x"}, TeamName: "External"}},
	}}
	return teams, objectives
}

func TestListScopesAdminToOrganization(t *testing.T) {
	teams, objectives := fixtureRepos()
	svc := newTestService(teams, objectives)

	admin := domain.Identity{ID: "admin-1", OrganizationID: "org-1", Role: domain.RoleOrgAdmin}
	flat, err := svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(flat) != 2 {
		t.Fatalf("expected 2 objectives, got %d", len(flat))
	}
	for _, objective := range flat {
		if objective.ID == "obj-x" {
			t.Fatal("objective from another organization leaked into the listing")
		}
	}
}

func TestListScopesLeadToOwnTeam(t *testing.T) {
	teams, objectives := fixtureRepos()
	svc := newTestService(teams, objectives)

	lead := domain.Identity{ID: "lead-1", OrganizationID: "org-1", TeamID: "team-a", Role: domain.RoleTeamLead}
	flat, err := svc.List(context.Background(), lead)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(flat) != 1 || flat[0].ID != "obj-a" {
		t.Fatalf("expected only obj-a, got %+v", flat)
	}
}

func TestListWithoutTeamFails(t *testing.T) {
	teams, objectives := fixtureRepos()
	svc := newTestService(teams, objectives)

	employee := domain.Identity{ID: "emp-1", OrganizationID: "org-1", Role: domain.RoleEmployee}
	if _, err := svc.List(context.Background(), employee); !errors.Is(err, access.ErrInvalidIdentityState) {
		t.Fatalf("expected invalid identity state, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	teams, objectives := fixtureRepos()
	svc := newTestService(teams, objectives)
	admin := domain.Identity{ID: "admin-1", OrganizationID: "org-1", Role: domain.RoleOrgAdmin}

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing title", CreateInput{TeamID: "team-a", StartDate: "2025-01-01", EndDate: "2025-06-30"}},
		{"missing team", CreateInput{Title: "Ship", StartDate: "2025-01-01", EndDate: "2025-06-30"}},
		{"bad start date", CreateInput{Title: "Ship", TeamID: "team-a", StartDate: "Jan 1", EndDate: "2025-06-30"}},
		{"bad end date", CreateInput{Title: "Ship", TeamID: "team-a", StartDate: "2025-01-01", EndDate: "soon"}},
		{"end before start", CreateInput{Title: "Ship", TeamID: "team-a", StartDate: "2025-06-30", EndDate: "2025-01-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), admin, tc.input); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
	if len(objectives.created) != 0 {
		t.Fatalf("rejected inputs must not persist, got %d rows", len(objectives.created))
	}
}

func TestCreateEmployeeForbidden(t *testing.T) {
	teams, objectives := fixtureRepos()
	svc := newTestService(teams, objectives)

	employee := domain.Identity{ID: "emp-1", OrganizationID: "org-1", TeamID: "team-a", Role: domain.RoleEmployee}
	input := CreateInput{Title: "Ship", TeamID: "team-a", StartDate: "2025-01-01", EndDate: "2025-06-30"}
	if _, err := svc.Create(context.Background(), employee, input); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateCrossOrgTeamMaskedAsNotFound(t *testing.T) {
	teams, objectives := fixtureRepos()
	svc := newTestService(teams, objectives)

	lead := domain.Identity{ID: "lead-1", OrganizationID: "org-1", TeamID: "team-a", Role: domain.RoleTeamLead}
	input := CreateInput{Title: "Ship", TeamID: "team-x", StartDate: "2025-01-01", EndDate: "2025-06-30"}
	_, err := svc.Create(context.Background(), lead, input)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found for cross-org team, got %v", err)
	}
	if errors.Is(err, access.ErrForbidden) {
		t.Fatal("cross-org probe must not reveal the team exists")
	}
}

func TestCreateLeadOtherTeamForbidden(t *testing.T) {
	teams, objectives := fixtureRepos()
	svc := newTestService(teams, objectives)

	lead := domain.Identity{ID: "lead-1", OrganizationID: "org-1", TeamID: "team-a", Role: domain.RoleTeamLead}
	input := CreateInput{Title: "Ship", TeamID: "team-b", StartDate: "2025-01-01", EndDate: "2025-06-30"}
	if _, err := svc.Create(context.Background(), lead, input); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden for same-org other team, got %v", err)
	}
}

func TestCreatePersistsDefaults(t *testing.T) {
	teams, objectives := fixtureRepos()
	svc := newTestService(teams, objectives)

	admin := domain.Identity{ID: "admin-1", OrganizationID: "org-1", Role: domain.RoleOrgAdmin}
	input := CreateInput{
		Title:       "  Ship v1  ",
		Description: "First release",
		TeamID:      "team-a",
		StartDate:   "2025-01-01",
		EndDate:     "2025-06-30",
	}
	flat, err := svc.Create(context.Background(), admin, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(objectives.created) != 1 {
		t.Fatalf("expected one persisted objective, got %d", len(objectives.created))
	}
	created := objectives.created[0]
	if created.Title != "Ship v1" {
		t.Fatalf("title not trimmed: %q", created.Title)
	}
	if created.Progress != 0 || created.Status != domain.StatusOnTrack {
		t.Fatalf("unexpected defaults: progress=%v status=%q", created.Progress, created.Status)
	}
	if created.CreatedBy != "admin-1" {
		t.Fatalf("created_by = %q, want admin-1", created.CreatedBy)
	}
	if !created.StartDate.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start date %v", created.StartDate)
	}
	if flat.KeyResultsCount != 0 {
		t.Fatalf("fresh objective must report zero key results, got %d", flat.KeyResultsCount)
	}
	if flat.Team.Name != "Alpha" {
		t.Fatalf("team name = %q, want Alpha", flat.Team.Name)
	}
}
