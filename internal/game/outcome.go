package game

// Result is the outcome of one quest resolution.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFail    Result = "fail"
)

// QuestOutcome resolves a quest from its vote tally. A single fail vote
// sabotages the quest, except on phase 4 of 7+ player games where two
// fails are required.
func QuestOutcome(successCount, failCount, playerCount, phase int) Result {
	needed := 1
	if TwoFailsRequired(playerCount, phase) {
		needed = 2
	}
	if failCount >= needed {
		return ResultFail
	}
	return ResultSuccess
}

// Winner scans resolved phase outcomes and reports the winning team once
// either side reaches the win threshold. done is false while the game is
// still undecided.
func Winner(outcomes []Result) (winner Team, successes, fails int, done bool) {
	for _, o := range outcomes {
		switch o {
		case ResultSuccess:
			successes++
		case ResultFail:
			fails++
		}
	}
	switch {
	case successes >= WinThreshold:
		return TeamGood, successes, fails, true
	case fails >= WinThreshold:
		return TeamEvil, successes, fails, true
	}
	return TeamNone, successes, fails, false
}
