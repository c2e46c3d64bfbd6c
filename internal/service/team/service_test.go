package team

import (
	"context"
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/mohd-abex/abex-okr/internal/access"
	"github.com/mohd-abex/abex-okr/internal/domain"
	"github.com/mohd-abex/abex-okr/internal/repository"
)

type stubTeamRepo struct {
	teams map[string]*domain.Team
}

func (s *stubTeamRepo) CreateTeam(_ context.Context, team *domain.Team) error {
	copied := *team
	s.teams[team.ID] = &copied
	return nil
}

func (s *stubTeamRepo) GetTeamByID(_ context.Context, teamID string) (*domain.Team, error) {
	team, ok := s.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *team
	return &copied, nil
}

func (s *stubTeamRepo) ListTeamsByOrganization(_ context.Context, orgID string) ([]domain.Team, error) {
	var out []domain.Team
	for _, team := range s.teams {
		if team.OrganizationID == orgID {
			out = append(out, *team)
		}
	}
	return out, nil
}

func (s *stubTeamRepo) RenameTeam(_ context.Context, teamID, name string) error {
	team, ok := s.teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	team.Name = name
	return nil
}

func (s *stubTeamRepo) AssignTeamLead(_ context.Context, teamID, leadID string) error {
	target, ok := s.teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	if leadID != "" {
		for id, team := range s.teams {
			if id != teamID && team.LeadID == leadID {
				team.LeadID = ""
			}
		}
	}
	target.LeadID = leadID
	return nil
}

func (s *stubTeamRepo) DeleteTeam(_ context.Context, teamID string) error {
	if _, ok := s.teams[teamID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.teams, teamID)
	return nil
}

type stubUserRepo struct {
	users map[string]domain.User
}

func (s *stubUserRepo) CreateUser(_ context.Context, user *domain.User) error {
	s.users[user.ID] = *user
	return nil
}

func (s *stubUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *stubUserRepo) ListUsersByOrganization(_ context.Context, orgID string) ([]domain.User, error) {
	var out []domain.User
	for _, user := range s.users {
		if user.OrganizationID == orgID {
			out = append(out, user)
		}
	}
	return out, nil
}

func (s *stubUserRepo) ListUsersByTeam(_ context.Context, teamID string) ([]domain.User, error) {
	var out []domain.User
	for _, user := range s.users {
		if user.TeamID == teamID {
			out = append(out, user)
		}
	}
	return out, nil
}

func (s *stubUserRepo) DeleteUser(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubUserRepo) TouchUserActivity(context.Context, string) error { return nil }

type stubObjectiveRepo struct {
	byTeam map[string][]domain.Objective
}

func (s *stubObjectiveRepo) CreateObjective(context.Context, *domain.Objective) error { return nil }

func (s *stubObjectiveRepo) GetObjectiveRow(context.Context, string) (*domain.ObjectiveRow, error) {
	return nil, repository.ErrNotFound
}

func (s *stubObjectiveRepo) ListObjectivesByTeams(_ context.Context, teamIDs []string) ([]domain.ObjectiveRow, error) {
	var out []domain.ObjectiveRow
	for _, id := range teamIDs {
		for _, objective := range s.byTeam[id] {
			out = append(out, domain.ObjectiveRow{Objective: objective})
		}
	}
	return out, nil
}

func (s *stubObjectiveRepo) ListObjectivesByTeam(_ context.Context, teamID string) ([]domain.Objective, error) {
	return s.byTeam[teamID], nil
}

func fixture() (Service, *stubTeamRepo, *stubUserRepo) {
	teams := &stubTeamRepo{teams: map[string]*domain.Team{
		"team-a": {ID: "team-a", OrganizationID: "org-1", Name: "Alpha", LeadID: "lead-1"},
		"team-b": {ID: "team-b", OrganizationID: "org-1", Name: "Beta"},
		"team-x": {ID: "team-x", OrganizationID: "org-2", Name: "External"},
	}}
	users := &stubUserRepo{users: map[string]domain.User{
		"lead-1": {ID: "lead-1", OrganizationID: "org-1", TeamID: "team-a", Name: "Dana", Role: domain.RoleTeamLead},
		"emp-1":  {ID: "emp-1", OrganizationID: "org-1", TeamID: "team-a", Name: "Riley", Role: domain.RoleEmployee},
		"emp-2":  {ID: "emp-2", OrganizationID: "org-1", TeamID: "team-b", Name: "Sam", Role: domain.RoleEmployee},
		"out-1":  {ID: "out-1", OrganizationID: "org-2", TeamID: "team-x", Name: "Alex", Role: domain.RoleEmployee},
	}}
	objectives := &stubObjectiveRepo{byTeam: map[string][]domain.Objective{
		"team-a": {
			{ID: "o1", TeamID: "team-a", CreatedBy: "lead-1", Progress: 80, Status: domain.StatusOnTrack},
			{ID: "o2", TeamID: "team-a", CreatedBy: "emp-1", Progress: 40, Status: domain.StatusCompleted},
		},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(teams, users, objectives, access.NewGuard(teams, logger), logger)
	return svc, teams, users
}

func adminIdentity() domain.Identity {
	return domain.Identity{ID: "admin-1", OrganizationID: "org-1", Role: domain.RoleOrgAdmin}
}

func TestCreateTeamStartsWithoutLead(t *testing.T) {
	svc, teams, _ := fixture()

	created, err := svc.Create(context.Background(), adminIdentity(), "  Growth  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Growth" {
		t.Fatalf("name not trimmed: %q", created.Name)
	}
	if created.LeadID != nil {
		t.Fatalf("new team must have no lead, got %v", *created.LeadID)
	}
	stored, ok := teams.teams[created.ID]
	if !ok {
		t.Fatal("team not persisted")
	}
	if stored.OrganizationID != "org-1" {
		t.Fatalf("org = %q, want caller's org", stored.OrganizationID)
	}
}

func TestCreateTeamRequiresAdmin(t *testing.T) {
	svc, _, _ := fixture()

	lead := domain.Identity{ID: "lead-1", OrganizationID: "org-1", TeamID: "team-a", Role: domain.RoleTeamLead}
	if _, err := svc.Create(context.Background(), lead, "Growth"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateTeamRejectsEmptyName(t *testing.T) {
	svc, _, _ := fixture()
	if _, err := svc.Create(context.Background(), adminIdentity(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestListByOrganizationAggregates(t *testing.T) {
	svc, _, _ := fixture()

	views, err := svc.ListByOrganization(context.Background(), adminIdentity(), "org-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(views))
	}
	byName := make(map[string]int)
	for i, view := range views {
		byName[view.Name] = i
	}
	alpha := views[byName["Alpha"]]
	if alpha.MembersCount != 2 {
		t.Fatalf("alpha members_count = %d, want 2", alpha.MembersCount)
	}
	if alpha.ActiveOKRsCount != 1 {
		t.Fatalf("alpha active_okrs_count = %d, want 1", alpha.ActiveOKRsCount)
	}
	// lead-1 progress 80, emp-1 progress 40 -> team average 60.
	if alpha.AverageProgress != 60 {
		t.Fatalf("alpha average_progress = %v, want 60", alpha.AverageProgress)
	}
	if alpha.TeamLead == nil || alpha.TeamLead.Name != "Dana" {
		t.Fatalf("alpha team_lead = %+v, want Dana", alpha.TeamLead)
	}

	beta := views[byName["Beta"]]
	if beta.MembersCount != 1 || beta.AverageProgress != 0 || beta.TeamLead != nil {
		t.Fatalf("unexpected beta aggregation: %+v", beta)
	}
}

func TestListByOrganizationMasksOtherOrg(t *testing.T) {
	svc, _, _ := fixture()
	if _, err := svc.ListByOrganization(context.Background(), adminIdentity(), "org-2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found for foreign org, got %v", err)
	}
}

func TestUpdateRename(t *testing.T) {
	svc, teams, _ := fixture()

	updated, err := svc.Update(context.Background(), adminIdentity(), "team-b", UpdateInput{Name: "Revenue"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Revenue" {
		t.Fatalf("name = %q, want Revenue", updated.Name)
	}
	if teams.teams["team-b"].Name != "Revenue" {
		t.Fatal("rename not persisted")
	}
}

func TestUpdateMovesLeadOffPreviousTeam(t *testing.T) {
	svc, teams, users := fixture()

	// Put lead-1 on team-b first so the promotion has to demote team-a.
	user := users.users["lead-1"]
	user.TeamID = "team-b"
	users.users["lead-1"] = user

	leadID := "lead-1"
	updated, err := svc.Update(context.Background(), adminIdentity(), "team-b", UpdateInput{LeadID: &leadID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.LeadID == nil || *updated.LeadID != "lead-1" {
		t.Fatalf("team-b lead = %v, want lead-1", updated.LeadID)
	}
	if teams.teams["team-a"].LeadID != "" {
		t.Fatalf("previous holder still records the lead: %q", teams.teams["team-a"].LeadID)
	}
}

func TestUpdateClearLead(t *testing.T) {
	svc, teams, _ := fixture()

	empty := ""
	updated, err := svc.Update(context.Background(), adminIdentity(), "team-a", UpdateInput{LeadID: &empty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.LeadID != nil {
		t.Fatalf("lead should be cleared, got %v", *updated.LeadID)
	}
	if teams.teams["team-a"].LeadID != "" {
		t.Fatal("clear not persisted")
	}
}

func TestUpdateLeadValidation(t *testing.T) {
	svc, _, _ := fixture()

	t.Run("unknown user", func(t *testing.T) {
		leadID := "ghost"
		if _, err := svc.Update(context.Background(), adminIdentity(), "team-a", UpdateInput{LeadID: &leadID}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
	t.Run("cross-org user", func(t *testing.T) {
		leadID := "out-1"
		if _, err := svc.Update(context.Background(), adminIdentity(), "team-a", UpdateInput{LeadID: &leadID}); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected not found mask, got %v", err)
		}
	})
	t.Run("not a team member", func(t *testing.T) {
		leadID := "emp-2"
		if _, err := svc.Update(context.Background(), adminIdentity(), "team-a", UpdateInput{LeadID: &leadID}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
}

func TestUpdateLeadScopedToOwnTeam(t *testing.T) {
	svc, _, _ := fixture()

	lead := domain.Identity{ID: "lead-1", OrganizationID: "org-1", TeamID: "team-a", Role: domain.RoleTeamLead}
	if _, err := svc.Update(context.Background(), lead, "team-b", UpdateInput{Name: "Mine Now"}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteTeam(t *testing.T) {
	svc, teams, _ := fixture()

	if err := svc.Delete(context.Background(), adminIdentity(), "team-b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := teams.teams["team-b"]; ok {
		t.Fatal("team still present after delete")
	}
}

func TestDeleteTeamCrossOrgMasked(t *testing.T) {
	svc, _, _ := fixture()
	if err := svc.Delete(context.Background(), adminIdentity(), "team-x"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found for foreign team, got %v", err)
	}
}
