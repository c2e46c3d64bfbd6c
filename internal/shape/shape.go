// Package shape converts nested relational query results into the flat
// records clients consume. All rounding and clamping of progress numbers
// happens here, at the presentation boundary, never in storage.
package shape

import (
	"math"
	"time"

	"github.com/mohd-abex/abex-okr/internal/domain"
)

// TeamRef is the embedded team reference on flattened records.
type TeamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LeadRef identifies a team's lead.
type LeadRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FlatObjective is the outward-facing objective record. The nested key-result
// aggregate is collapsed into key_results_count.
type FlatObjective struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Team            TeamRef   `json:"team"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Progress        float64   `json:"progress"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	KeyResultsCount int       `json:"key_results_count"`
}

// TeamView is the aggregated team record, recomputed on every read.
type TeamView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	TeamLead        *LeadRef `json:"team_lead"`
	MembersCount    int      `json:"members_count"`
	ActiveOKRsCount int      `json:"active_okrs_count"`
	AverageProgress float64  `json:"average_progress"`
	Status          string   `json:"status"`
}

// MemberIdentity carries the display fields of a member record.
type MemberIdentity struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// MemberView is the aggregated member record, recomputed on every read.
type MemberView struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	Member     MemberIdentity `json:"member"`
	Team       *TeamRef       `json:"team"`
	OKRs       int            `json:"okrs"`
	Progress   float64        `json:"progress"`
	Status     string         `json:"status"`
	LastActive time.Time      `json:"last_active"`
}

// Objective flattens a raw objective row. The nested aggregate arrives as a
// list of at most one element; a missing element means zero key results, not
// an error.
func Objective(row domain.ObjectiveRow) FlatObjective {
	count := 0
	if len(row.KeyResults) > 0 {
		count = row.KeyResults[0].Count
	}
	return FlatObjective{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Team: TeamRef{
			ID:   row.TeamID,
			Name: row.TeamName,
		},
		StartDate:       row.StartDate,
		EndDate:         row.EndDate,
		Progress:        Clamp(row.Progress),
		Status:          string(row.Status),
		CreatedAt:       row.CreatedAt,
		KeyResultsCount: count,
	}
}

// Objectives flattens a batch of rows.
func Objectives(rows []domain.ObjectiveRow) []FlatObjective {
	out := make([]FlatObjective, 0, len(rows))
	for _, row := range rows {
		out = append(out, Objective(row))
	}
	return out
}

// Team aggregates a team with its lead, objectives and members into a
// TeamView. The average is the mean of per-member progress values; a team
// with no members averages to zero.
func Team(team domain.Team, lead *domain.User, objectives []domain.Objective, members []domain.User) TeamView {
	view := TeamView{
		ID:           team.ID,
		Name:         team.Name,
		MembersCount: len(members),
	}
	if lead != nil {
		view.TeamLead = &LeadRef{ID: lead.ID, Name: lead.Name}
	}
	for _, objective := range objectives {
		if objective.Status != domain.StatusCompleted {
			view.ActiveOKRsCount++
		}
	}
	progress := make([]float64, 0, len(members))
	for _, member := range members {
		progress = append(progress, MemberProgress(member.ID, objectives))
	}
	view.AverageProgress = AverageProgress(progress)
	view.Status = string(statusForProgress(view.AverageProgress))
	return view
}

// Member aggregates one member with the objectives of their team. OKR count
// and progress cover the objectives the member created.
func Member(user domain.User, team *domain.Team, objectives []domain.Objective) MemberView {
	view := MemberView{
		ID:    user.ID,
		Email: user.Email,
		Member: MemberIdentity{
			Name:  user.Name,
			Title: user.Title,
		},
		LastActive: user.LastActiveAt,
	}
	if team != nil {
		view.Team = &TeamRef{ID: team.ID, Name: team.Name}
	}
	for _, objective := range objectives {
		if objective.CreatedBy == user.ID {
			view.OKRs++
		}
	}
	view.Progress = MemberProgress(user.ID, objectives)
	view.Status = string(statusForProgress(view.Progress))
	return view
}

// MemberProgress is the mean clamped progress of the objectives the member
// created, zero when they created none.
func MemberProgress(userID string, objectives []domain.Objective) float64 {
	var values []float64
	for _, objective := range objectives {
		if objective.CreatedBy == userID {
			values = append(values, objective.Progress)
		}
	}
	return AverageProgress(values)
}

// AverageProgress clamps every value to [0,100] and returns the mean, rounded
// to one decimal place. An empty input averages to zero.
func AverageProgress(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, value := range values {
		sum += Clamp(value)
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

// Clamp bounds a progress percentage to [0,100] regardless of what the store
// holds.
func Clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// statusForProgress buckets an average progress value.
func statusForProgress(progress float64) domain.ObjectiveStatus {
	switch {
	case progress >= 90:
		return domain.StatusAhead
	case progress >= 60:
		return domain.StatusOnTrack
	case progress >= 30:
		return domain.StatusAtRisk
	default:
		return domain.StatusBehind
	}
}
