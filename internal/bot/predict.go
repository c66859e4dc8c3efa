package bot

import "github.com/ericogr/duel-arena/internal/game"

// PredictNextAttack guesses the opponent's next attack area from its attack
// history. It prefers first-order transitions out of the most recent attack,
// weighting newer observations more heavily, and falls back to overall
// recency-weighted frequency. Reports false when there is no history.
func PredictNextAttack(history []game.Move) (game.Area, bool) {
	attacks := attackSequence(history)
	if len(attacks) == 0 {
		return "", false
	}

	last := attacks[len(attacks)-1]
	transitions := make(map[game.Area]float64, 3)
	for i := 1; i < len(attacks); i++ {
		if attacks[i-1] == last {
			transitions[attacks[i]] += recency(i, len(attacks))
		}
	}
	if best, ok := argmax(transitions); ok {
		return best, true
	}

	freq := make(map[game.Area]float64, 3)
	for i, a := range attacks {
		freq[a] += recency(i, len(attacks))
	}
	return argmax(freq)
}

// LeastBlocked returns the area the opponent has defended least, weighting
// recent blocks more heavily. Reports false until the opponent has blocked at
// least once.
func LeastBlocked(history []game.Move) (game.Area, bool) {
	weights := map[game.Area]float64{}
	seen := false
	for i, m := range history {
		if m.BlockArea == nil {
			continue
		}
		seen = true
		weights[*m.BlockArea] += recency(i, len(history))
	}
	if !seen {
		return "", false
	}
	best := game.Areas[0]
	for _, a := range game.Areas[1:] {
		if weights[a] < weights[best] {
			best = a
		}
	}
	return best, true
}

func attackSequence(history []game.Move) []game.Area {
	out := make([]game.Area, 0, len(history))
	for _, m := range history {
		if m.AttackArea != nil {
			out = append(out, *m.AttackArea)
		}
	}
	return out
}

// recency maps position i of n to a weight in (1, 2].
func recency(i, n int) float64 {
	return 1 + float64(i+1)/float64(n)
}

// argmax picks the heaviest area, breaking ties in head -> body -> legs order.
func argmax(w map[game.Area]float64) (game.Area, bool) {
	var best game.Area
	bestW := 0.0
	for _, a := range game.Areas {
		if w[a] > bestW {
			best, bestW = a, w[a]
		}
	}
	return best, bestW > 0
}
