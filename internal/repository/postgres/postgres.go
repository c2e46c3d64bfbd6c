package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mohd-abex/abex-okr/internal/domain"
	"github.com/mohd-abex/abex-okr/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository      = (*Repository)(nil)
	_ repository.TeamRepository      = (*Repository)(nil)
	_ repository.ObjectiveRepository = (*Repository)(nil)
)

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, organization_id, team_id, name, email, password_hash, title, role, last_active_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.OrganizationID, emptyToNil(user.TeamID), user.Name, user.Email, user.PasswordHash, emptyToNil(user.Title), string(user.Role), user.LastActiveAt, user.CreatedAt)
	return constraintErr(err)
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = userSelect + ` WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = userSelect + ` WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

const userSelect = `SELECT id, organization_id, team_id, name, email, password_hash, title, role, last_active_at, created_at FROM users`

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u      domain.User
		teamID *string
		title  *string
		role   string
	)
	if err := row.Scan(&u.ID, &u.OrganizationID, &teamID, &u.Name, &u.Email, &u.PasswordHash, &title, &role, &u.LastActiveAt, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.TeamID = deref(teamID)
	u.Title = deref(title)
	u.Role = domain.Role(role)
	return &u, nil
}

// ListUsersByOrganization returns all member accounts of the organization,
// including users without a team assignment.
func (r *Repository) ListUsersByOrganization(ctx context.Context, orgID string) ([]domain.User, error) {
	const query = userSelect + ` WHERE organization_id = $1 ORDER BY created_at`
	return r.listUsers(ctx, query, orgID)
}

// ListUsersByTeam returns the members of a single team.
func (r *Repository) ListUsersByTeam(ctx context.Context, teamID string) ([]domain.User, error) {
	const query = userSelect + ` WHERE team_id = $1 ORDER BY created_at`
	return r.listUsers(ctx, query, teamID)
}

func (r *Repository) listUsers(ctx context.Context, query string, arg any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// DeleteUser removes a user, clearing any lead reference first so teams never
// point at a vanished account. Both writes share one transaction.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE teams SET lead_id = NULL WHERE lead_id = $1`, id); err != nil {
		return constraintErr(err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return constraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

// TouchUserActivity records the user as active now.
func (r *Repository) TouchUserActivity(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active_at = NOW() WHERE id = $1`, id)
	return err
}

// CreateTeam creates a team record.
func (r *Repository) CreateTeam(ctx context.Context, team *domain.Team) error {
	const query = `INSERT INTO teams (id, organization_id, name, lead_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, team.ID, team.OrganizationID, team.Name, emptyToNil(team.LeadID), team.CreatedAt)
	return constraintErr(err)
}

const teamSelect = `SELECT id, organization_id, name, lead_id, created_at FROM teams`

// GetTeamByID returns a team by identifier.
func (r *Repository) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	row := r.pool.QueryRow(ctx, teamSelect+` WHERE id = $1`, teamID)
	return scanTeam(row)
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var (
		team   domain.Team
		leadID *string
	)
	if err := row.Scan(&team.ID, &team.OrganizationID, &team.Name, &leadID, &team.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	team.LeadID = deref(leadID)
	return &team, nil
}

// ListTeamsByOrganization returns all teams within the organization.
func (r *Repository) ListTeamsByOrganization(ctx context.Context, orgID string) ([]domain.Team, error) {
	rows, err := r.pool.Query(ctx, teamSelect+` WHERE organization_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

// RenameTeam updates the team name.
func (r *Repository) RenameTeam(ctx context.Context, teamID, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE teams SET name = $2 WHERE id = $1`, teamID, name)
	if err != nil {
		return constraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AssignTeamLead moves the lead assignment to the given team. Clearing the
// previous holder and setting the new one happen in one transaction so no
// reader observes two teams claiming the same lead.
func (r *Repository) AssignTeamLead(ctx context.Context, teamID, leadID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin lead assignment: %w", err)
	}
	defer tx.Rollback(ctx)

	if leadID != "" {
		if _, err := tx.Exec(ctx, `UPDATE teams SET lead_id = NULL WHERE lead_id = $1 AND id <> $2`, leadID, teamID); err != nil {
			return constraintErr(err)
		}
	}
	tag, err := tx.Exec(ctx, `UPDATE teams SET lead_id = $2 WHERE id = $1`, teamID, emptyToNil(leadID))
	if err != nil {
		return constraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

// DeleteTeam removes a team. Objectives cascade and member assignments reset
// through schema rules; any remaining reference surfaces as ErrConflict.
func (r *Repository) DeleteTeam(ctx context.Context, teamID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return constraintErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateObjective inserts an objective.
func (r *Repository) CreateObjective(ctx context.Context, objective *domain.Objective) error {
	const query = `INSERT INTO objectives (id, team_id, title, description, start_date, end_date, progress, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query, objective.ID, objective.TeamID, objective.Title, objective.Description,
		objective.StartDate, objective.EndDate, objective.Progress, string(objective.Status), emptyToNil(objective.CreatedBy), objective.CreatedAt)
	return constraintErr(err)
}

const objectiveRowSelect = `SELECT o.id, o.team_id, t.name, o.title, o.description, o.start_date, o.end_date,
		o.progress, o.status, o.created_by, o.created_at, COUNT(k.id)
	FROM objectives o
	JOIN teams t ON t.id = o.team_id
	LEFT JOIN key_results k ON k.objective_id = o.id`

const objectiveRowGroup = ` GROUP BY o.id, t.name`

// GetObjectiveRow fetches a single objective joined with its team name and
// live key-result count.
func (r *Repository) GetObjectiveRow(ctx context.Context, id string) (*domain.ObjectiveRow, error) {
	row := r.pool.QueryRow(ctx, objectiveRowSelect+` WHERE o.id = $1`+objectiveRowGroup, id)
	return scanObjectiveRow(row)
}

// ListObjectivesByTeams returns objectives for the given teams with their
// nested key-result aggregates. The count comes from a grouped join on every
// read; nothing is cached.
func (r *Repository) ListObjectivesByTeams(ctx context.Context, teamIDs []string) ([]domain.ObjectiveRow, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	query := objectiveRowSelect + ` WHERE o.team_id = ANY($1)` + objectiveRowGroup + ` ORDER BY o.created_at DESC`
	rows, err := r.pool.Query(ctx, query, teamIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ObjectiveRow
	for rows.Next() {
		objRow, err := scanObjectiveRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *objRow)
	}
	return result, rows.Err()
}

func scanObjectiveRow(row pgx.Row) (*domain.ObjectiveRow, error) {
	var (
		o         domain.ObjectiveRow
		desc      *string
		status    string
		createdBy *string
		count     int
	)
	if err := row.Scan(&o.ID, &o.TeamID, &o.TeamName, &o.Title, &desc, &o.StartDate, &o.EndDate,
		&o.Progress, &status, &createdBy, &o.CreatedAt, &count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	o.Description = deref(desc)
	o.Status = domain.ObjectiveStatus(status)
	o.CreatedBy = deref(createdBy)
	o.KeyResults = []domain.KeyResultAggregate{{Count: count}}
	return &o, nil
}

// ListObjectivesByTeam returns the plain objectives of one team.
func (r *Repository) ListObjectivesByTeam(ctx context.Context, teamID string) ([]domain.Objective, error) {
	const query = `SELECT id, team_id, title, description, start_date, end_date, progress, status, created_by, created_at
		FROM objectives WHERE team_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objectives []domain.Objective
	for rows.Next() {
		var (
			o         domain.Objective
			desc      *string
			status    string
			createdBy *string
		)
		if err := rows.Scan(&o.ID, &o.TeamID, &o.Title, &desc, &o.StartDate, &o.EndDate, &o.Progress, &status, &createdBy, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Description = deref(desc)
		o.Status = domain.ObjectiveStatus(status)
		o.CreatedBy = deref(createdBy)
		objectives = append(objectives, o)
	}
	return objectives, rows.Err()
}

func emptyToNil(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// constraintErr maps unique and foreign key violations onto ErrConflict so
// callers can surface 409 instead of a bare 500.
func constraintErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23505":
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}
