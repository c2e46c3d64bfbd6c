package domain

import "time"

// Organization is the root scope boundary. No read or write ever crosses it.
type Organization struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Team belongs to exactly one organization. LeadID is empty when the team has
// no lead; at most one team holds a given lead at a time.
type Team struct {
	ID             string
	OrganizationID string
	Name           string
	LeadID         string
	CreatedAt      time.Time
}
