package game

import "time"

// Round collects at most one move per combatant.
type Round struct {
	Number    int             `json:"number"`
	StartedAt time.Time       `json:"startedAt"`
	Moves     map[string]Move `json:"moves"`
}

// NewRound starts round n at the given time.
func NewRound(n int, at time.Time) *Round {
	return &Round{Number: n, StartedAt: at, Moves: make(map[string]Move, 2)}
}

// Record stores id's move. A second move for the same combatant is rejected.
func (r *Round) Record(id string, m Move) error {
	if _, ok := r.Moves[id]; ok {
		return ErrDuplicateMove
	}
	r.Moves[id] = m
	return nil
}

// Has reports whether id already has a move this round.
func (r *Round) Has(id string) bool {
	_, ok := r.Moves[id]
	return ok
}

// Complete reports whether every listed combatant has a move.
func (r *Round) Complete(ids ...string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !r.Has(id) {
			return false
		}
	}
	return true
}
