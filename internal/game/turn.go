package game

// Direction is the seat step between turns and between dealt cards:
// counter-clockwise.
const Direction = -1

// NextActivePlayer walks the roster from the seat after refID in direction
// dir and returns the first player who has not finished. The reference seat
// itself is considered last, so a lone unfinished reference player is
// returned. An unseated refID falls back to the first unfinished player in
// seat order. It returns "" only when no unfinished player exists.
func NextActivePlayer(players []Player, refID string, dir int) string {
	for i := range players {
		if players[i].ID == refID {
			return nextActiveFrom(players, i, dir)
		}
	}
	for _, p := range players {
		if !p.IsFinished {
			return p.ID
		}
	}
	return ""
}

// nextActiveFrom walks len(players) steps from seat index start
func nextActiveFrom(players []Player, start, dir int) string {
	n := len(players)
	for step := 1; step <= n; step++ {
		p := players[wrap(start+dir*step, n)]
		if !p.IsFinished {
			return p.ID
		}
	}
	return ""
}

// nextActiveAfterVacated finds who follows a seat that has just been removed
// from the roster. seat is the departed player's index in the roster as it
// was before removal.
func nextActiveAfterVacated(players []Player, seat, dir int) string {
	start := seat
	if dir > 0 {
		// Everyone after the vacated seat shifted down by one.
		start = seat - 1
	}
	return nextActiveFrom(players, start, dir)
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}
