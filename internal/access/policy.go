package access

import "github.com/mohd-abex/abex-okr/internal/domain"

// Operation names a guarded core operation.
type Operation string

const (
	OpListObjectives  Operation = "objectives.list"
	OpCreateObjective Operation = "objectives.create"
	OpListTeams       Operation = "teams.list"
	OpCreateTeam      Operation = "teams.create"
	OpUpdateTeam      Operation = "teams.update"
	OpDeleteTeam      Operation = "teams.delete"
	OpListOrgMembers  Operation = "members.list_org"
	OpListTeamMembers Operation = "members.list_team"
	OpCreateUser      Operation = "users.create"
	OpDeleteUser      Operation = "users.delete"
)

// ScopeKind describes the default visibility of a role.
type ScopeKind int

const (
	// ScopeOrganization grants visibility over every team in the caller's
	// organization.
	ScopeOrganization ScopeKind = iota
	// ScopeTeam limits visibility to the caller's own team.
	ScopeTeam
)

// Capability is a role's declared permission set.
type Capability struct {
	Scope      ScopeKind
	Operations map[Operation]struct{}
}

func (c Capability) allows(op Operation) bool {
	_, ok := c.Operations[op]
	return ok
}

func ops(list ...Operation) map[Operation]struct{} {
	set := make(map[Operation]struct{}, len(list))
	for _, op := range list {
		set[op] = struct{}{}
	}
	return set
}

// policyTable is consulted once per operation by the guard. Roles absent from
// the table hold no permissions at all.
var policyTable = map[domain.Role]Capability{
	domain.RoleOrgAdmin: {
		Scope: ScopeOrganization,
		Operations: ops(
			OpListObjectives, OpCreateObjective,
			OpListTeams, OpCreateTeam, OpUpdateTeam, OpDeleteTeam,
			OpListOrgMembers,
			OpCreateUser, OpDeleteUser,
		),
	},
	domain.RoleTeamLead: {
		Scope: ScopeTeam,
		Operations: ops(
			OpListObjectives, OpCreateObjective,
			OpListTeamMembers,
		),
	},
	domain.RoleEmployee: {
		Scope: ScopeTeam,
		Operations: ops(
			OpListObjectives,
			OpListTeamMembers,
		),
	},
}

// Lookup returns the capability set for a role. Unrecognized roles report
// false, never an empty capability that could be mistaken for org-wide scope.
func Lookup(role domain.Role) (Capability, bool) {
	cap, ok := policyTable[role]
	return cap, ok
}

// Allowed reports whether the role may perform the operation.
func Allowed(role domain.Role, op Operation) bool {
	cap, ok := policyTable[role]
	return ok && cap.allows(op)
}
