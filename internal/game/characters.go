package game

import "math/rand"

// BuildCharacters assigns one role to each player. The role set starts from
// the explicitly selected optional roles, then is padded with loyal/minion
// filler until the balance table for the player count is satisfied. Roles
// are shuffled and handed out in random player order.
func BuildCharacters(playerKeys []string, selectedRoles []Role) map[string]Character {
	balance := Balance(len(playerKeys))

	goodPool := make([]Role, 0, balance.Good)
	evilPool := make([]Role, 0, balance.Evil)
	for _, r := range selectedRoles {
		switch TeamOf(r) {
		case TeamGood:
			if len(goodPool) < balance.Good {
				goodPool = append(goodPool, r)
			}
		case TeamEvil:
			if len(evilPool) < balance.Evil {
				evilPool = append(evilPool, r)
			}
		}
	}
	for len(goodPool) < balance.Good {
		goodPool = append(goodPool, RoleLoyal)
	}
	for len(evilPool) < balance.Evil {
		evilPool = append(evilPool, RoleMinion)
	}

	roles := append(goodPool, evilPool...)
	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	order := make([]string, len(playerKeys))
	copy(order, playerKeys)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	characters := make(map[string]Character, len(order))
	for i, key := range order {
		if i >= len(roles) {
			break
		}
		characters[key] = Character{Role: roles[i], Team: TeamOf(roles[i])}
	}
	return characters
}
