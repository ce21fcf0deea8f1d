package game

// Visibility labels revealed by VisibleRole.
const (
	SeenEvil      = "evil"
	SeenGood      = "good"
	SeenAmbiguous = "merlin_or_morgana"
	SeenNothing   = ""
)

// VisibleRole computes what a viewer's role reveals about a target's role.
// Rules are evaluated in order, first match wins. Unknown roles reveal
// nothing; the function never fails.
func VisibleRole(viewer, target Role) string {
	switch {
	// Merlin sees evil, except Mordred stays hidden from him.
	case viewer == RoleMerlin && TeamOf(target) == TeamEvil && target != RoleMordred:
		return SeenEvil

	// Percival sees Merlin and Morgana but cannot tell them apart.
	case viewer == RolePercival && (target == RoleMerlin || target == RoleMorgana):
		return SeenAmbiguous

	// Evil players know each other, except Oberon is unknown to them.
	case evilAware(viewer) && TeamOf(target) == TeamEvil && target != RoleOberon:
		return SeenEvil

	// Oberon only sees who is good; he does not learn his fellow evil.
	case viewer == RoleOberon && TeamOf(target) == TeamGood:
		return SeenGood
	}
	return SeenNothing
}

// evilAware reports whether a role is shown its fellow evil players.
func evilAware(r Role) bool {
	return TeamOf(r) == TeamEvil && r != RoleOberon
}
