package domain

import "time"

// User is an organization member account. TeamID is empty for users without a
// team assignment (org admins typically have none).
type User struct {
	ID             string
	OrganizationID string
	TeamID         string
	Name           string
	Email          string
	PasswordHash   []byte
	Title          string
	Role           Role
	LastActiveAt   time.Time
	CreatedAt      time.Time
}
