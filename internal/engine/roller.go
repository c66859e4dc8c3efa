package engine

import "math/rand"

// Roller produces percentile rolls in the range 1..100.
type Roller interface {
	Roll() int
}

// RandRoller rolls with a math/rand source. It is not safe for concurrent
// use; each session owns its own roller.
type RandRoller struct {
	rng *rand.Rand
}

// NewRandRoller seeds a roller. A zero seed is replaced with 1 so tests can
// pass the zero value and still get a reproducible stream.
func NewRandRoller(seed int64) *RandRoller {
	if seed == 0 {
		seed = 1
	}
	return &RandRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandRoller) Roll() int { return r.rng.Intn(100) + 1 }

// succeeds reports whether a percentile roll lands inside chance (in percent).
func succeeds(roll int, chance float64) bool {
	if chance <= 0 {
		return false
	}
	return float64(roll) <= chance
}
