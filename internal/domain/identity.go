package domain

import "errors"

// Role classifies what slice of the organization hierarchy a caller may see.
type Role string

const (
	RoleOrgAdmin Role = "org_admin"
	RoleTeamLead Role = "team_lead"
	RoleEmployee Role = "employee"
)

// ParseRole validates a raw role string. Unrecognized values are rejected so
// that permission lookups downstream fail closed.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleOrgAdmin, RoleTeamLead, RoleEmployee:
		return Role(raw), nil
	}
	return "", errors.New("unrecognized role: " + raw)
}

// Identity is the verified caller tuple produced by authentication. It is
// immutable for the duration of a request and passed explicitly into every
// core operation; nothing reads it from ambient state.
type Identity struct {
	ID             string
	OrganizationID string
	TeamID         string
	Role           Role
}

// ErrInvalidInput marks malformed caller input. Handlers map it to 400.
var ErrInvalidInput = errors.New("invalid input")
