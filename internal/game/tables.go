package game

// TotalPhases is the number of quests in a game.
const TotalPhases = 5

// WinThreshold is the number of quest outcomes either side needs to win.
const WinThreshold = 3

// RoleBalance is the good/evil split for a player count.
type RoleBalance struct {
	Good int
	Evil int
}

// balanceTable maps player count to the role balance. Counts below 5 are
// undersized games used during development; 5-10 follow the standard rules.
var balanceTable = map[int]RoleBalance{
	1:  {Good: 1, Evil: 0},
	2:  {Good: 1, Evil: 1},
	3:  {Good: 2, Evil: 1},
	4:  {Good: 3, Evil: 1},
	5:  {Good: 3, Evil: 2},
	6:  {Good: 4, Evil: 2},
	7:  {Good: 4, Evil: 3},
	8:  {Good: 5, Evil: 3},
	9:  {Good: 6, Evil: 3},
	10: {Good: 6, Evil: 4},
}

// teamSizeTable maps player count to required quest-team size per phase.
var teamSizeTable = map[int][TotalPhases]int{
	1:  {1, 1, 1, 1, 1},
	2:  {1, 1, 1, 2, 2},
	3:  {1, 2, 2, 2, 3},
	4:  {2, 2, 2, 3, 3},
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

// Balance returns the good/evil role split for a player count.
// Player counts above 10 clamp to the 10-player balance.
func Balance(playerCount int) RoleBalance {
	if b, ok := balanceTable[playerCount]; ok {
		return b
	}
	if playerCount > 10 {
		return balanceTable[10]
	}
	return balanceTable[1]
}

// TeamSize returns the required quest-team size for a player count and phase.
func TeamSize(playerCount, phase int) int {
	sizes := TeamSizes(playerCount)
	if phase < 1 || phase > TotalPhases {
		return sizes[0]
	}
	return sizes[phase-1]
}

// TeamSizes returns the per-phase team sizes for a player count.
func TeamSizes(playerCount int) [TotalPhases]int {
	if s, ok := teamSizeTable[playerCount]; ok {
		return s
	}
	if playerCount > 10 {
		return teamSizeTable[10]
	}
	return teamSizeTable[1]
}

// TwoFailsRequired reports whether the quest at the given phase needs two
// fail votes to be sabotaged. Applies to phase 4 in 7+ player games.
func TwoFailsRequired(playerCount, phase int) bool {
	return playerCount >= 7 && phase == 4
}
