package engine

import "github.com/ericogr/duel-arena/internal/game"

// Result is the outcome of one round. Inputs are never mutated; callers
// apply Health to their snapshots.
type Result struct {
	// DamageDealt is keyed by the attacking combatant's id.
	DamageDealt map[string]int
	// Health is the post-round health keyed by combatant id.
	Health   map[string]int
	Log      []game.LogEntry
	Summary  string
	GameOver bool
	Draw     bool
	WinnerID string
	LoserID  string
}

// Apply returns c with its post-round health.
func (r Result) Apply(c game.Combatant) game.Combatant {
	if h, ok := r.Health[c.ID]; ok {
		return c.WithHealth(h)
	}
	return c
}

// Resolve evaluates both attacks of a round. Each side attacks with its own
// attack area against the other's block area; damage from both attacks is
// applied to start-of-round health, so the order of evaluation only affects
// which rolls each side consumes, never who wins.
func Resolve(a game.Combatant, moveA game.Move, b game.Combatant, moveB game.Move, r Roller) Result {
	rc := newRoundContext(r)

	dmgToB := rc.attack(a, b, moveA, moveB)
	dmgToA := rc.attack(b, a, moveB, moveA)

	healthA := floorZero(a.Health - dmgToA)
	healthB := floorZero(b.Health - dmgToB)

	res := Result{
		DamageDealt: map[string]int{a.ID: dmgToB, b.ID: dmgToA},
		Health:      map[string]int{a.ID: healthA, b.ID: healthB},
	}

	downA, downB := healthA <= 0, healthB <= 0
	if downA {
		rc.add(game.LogEntry{Type: game.LogDefeat, ActorID: a.ID, TargetID: b.ID, Message: a.Name + " is defeated"})
	}
	if downB {
		rc.add(game.LogEntry{Type: game.LogDefeat, ActorID: b.ID, TargetID: a.ID, Message: b.Name + " is defeated"})
	}
	switch {
	case downA && downB:
		res.GameOver = true
		res.Draw = true
		rc.add(game.LogEntry{Type: game.LogDraw, Message: "Both fighters fall at once. The match is a draw"})
	case downA:
		res.GameOver, res.WinnerID, res.LoserID = true, b.ID, a.ID
		rc.add(game.LogEntry{Type: game.LogVictory, ActorID: b.ID, TargetID: a.ID, Message: b.Name + " wins the match"})
	case downB:
		res.GameOver, res.WinnerID, res.LoserID = true, a.ID, b.ID
		rc.add(game.LogEntry{Type: game.LogVictory, ActorID: a.ID, TargetID: b.ID, Message: a.Name + " wins the match"})
	}

	res.Log = rc.log
	res.Summary = rc.summary()
	return res
}

func floorZero(h int) int {
	if h < 0 {
		return 0
	}
	return h
}
