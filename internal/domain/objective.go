package domain

import "time"

// ObjectiveStatus enumerates progress buckets. Completed objectives no longer
// count toward a team's active OKRs.
type ObjectiveStatus string

const (
	StatusOnTrack   ObjectiveStatus = "on_track"
	StatusAhead     ObjectiveStatus = "ahead"
	StatusAtRisk    ObjectiveStatus = "at_risk"
	StatusBehind    ObjectiveStatus = "behind"
	StatusCompleted ObjectiveStatus = "completed"
)

// Objective belongs to exactly one team and carries zero or more key results.
type Objective struct {
	ID          string
	TeamID      string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Progress    float64
	Status      ObjectiveStatus
	CreatedBy   string
	CreatedAt   time.Time
}

// KeyResultAggregate is the nested count produced by a grouped join against
// key_results. Queries return it as a list of at most one element; an absent
// element means zero key results.
type KeyResultAggregate struct {
	Count int
}

// ObjectiveRow is an objective as read from the store: the entity, the name of
// its team, and the nested key-result aggregate. The count is computed live on
// every read, never from a stored counter.
type ObjectiveRow struct {
	Objective
	TeamName   string
	KeyResults []KeyResultAggregate
}
