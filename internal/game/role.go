package game

// Team is the alignment of a role.
type Team string

const (
	TeamGood Team = "good"
	TeamEvil Team = "evil"
	TeamNone Team = ""
)

// Role is a character role by name.
type Role string

// Good roles
const (
	RoleMerlin   Role = "merlin"
	RolePercival Role = "percival"
	RoleLoyal    Role = "loyal"
)

// Evil roles
const (
	RoleAssassin Role = "assassin"
	RoleMorgana  Role = "morgana"
	RoleMordred  Role = "mordred"
	RoleOberon   Role = "oberon"
	RoleMinion   Role = "minion"
)

// catalog maps every known role to its team.
var catalog = map[Role]Team{
	RoleMerlin:   TeamGood,
	RolePercival: TeamGood,
	RoleLoyal:    TeamGood,
	RoleAssassin: TeamEvil,
	RoleMorgana:  TeamEvil,
	RoleMordred:  TeamEvil,
	RoleOberon:   TeamEvil,
	RoleMinion:   TeamEvil,
}

// TeamOf returns the team of a role, or TeamNone for unknown roles.
func TeamOf(r Role) Team {
	return catalog[r]
}

// KnownRole reports whether r is in the catalog.
func KnownRole(r Role) bool {
	_, ok := catalog[r]
	return ok
}

// AllRoles returns every role in the catalog, good roles first.
func AllRoles() []Role {
	return []Role{
		RoleMerlin, RolePercival, RoleLoyal,
		RoleAssassin, RoleMorgana, RoleMordred, RoleOberon, RoleMinion,
	}
}

// Character is a role assignment for one player.
type Character struct {
	Role Role `json:"role"`
	Team Team `json:"team"`
}
