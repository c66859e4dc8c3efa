package bot

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ericogr/duel-arena/internal/game"
)

// Rand is the subset of *rand.Rand the brain needs.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// MatchView is what a bot sees when choosing its move.
type MatchView struct {
	Round    int
	Self     game.Combatant
	Opponent game.Combatant
	// OpponentMoves and OwnMoves are ordered oldest first.
	OpponentMoves []game.Move
	OwnMoves      []game.Move
}

const (
	mediumFollowChance  = 0.5
	hardPredictChance   = 0.7
	expertPredictChance = 0.8
	attackAwayChance    = 0.75
	maxJitter           = time.Second
)

var baseDelay = map[Difficulty]time.Duration{
	Easy:   1000 * time.Millisecond,
	Medium: 800 * time.Millisecond,
	Hard:   600 * time.Millisecond,
	Expert: 400 * time.Millisecond,
}

// Brain picks moves for bots. Safe for concurrent use by many sessions.
type Brain struct {
	mu  sync.Mutex
	rng Rand
}

// NewBrain builds a brain on top of rng. A nil rng gets a time-seeded source.
func NewBrain(rng Rand) *Brain {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Brain{rng: rng}
}

// ThinkingTime is how long a bot waits before delivering its move.
func (b *Brain) ThinkingTime(d Difficulty) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	base, ok := baseDelay[d]
	if !ok {
		base = baseDelay[Easy]
	}
	return base + time.Duration(b.rng.Intn(int(maxJitter/time.Millisecond)))*time.Millisecond
}

// Between returns a random duration in [min, max].
func (b *Brain) Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return min + time.Duration(b.rng.Intn(int(max-min)+1))
}

// ChooseMove picks an attack and a block for p given the match so far.
func (b *Brain) ChooseMove(p Profile, v MatchView) game.Move {
	b.mu.Lock()
	defer b.mu.Unlock()

	var attack, block game.Area
	switch p.Difficulty {
	case Medium:
		block = b.followBlock(v.OpponentMoves)
		attack = b.randomArea()
	case Hard:
		block = b.cyclicBlock(v.OpponentMoves)
		attack = b.attackAwayFrom(block)
	case Expert:
		block = b.predictedBlock(v.OpponentMoves)
		attack = b.expertAttack(v.OpponentMoves, block)
	default:
		attack, block = b.randomArea(), b.randomArea()
	}

	attack, block = b.applyPersonality(p.Personality, attack, block)
	return game.Move{AttackArea: attack.Ptr(), BlockArea: block.Ptr()}
}

func (b *Brain) randomArea() game.Area {
	return game.Areas[b.rng.Intn(len(game.Areas))]
}

// followBlock blocks where the opponent attacked last, half of the time.
func (b *Brain) followBlock(history []game.Move) game.Area {
	if last, ok := lastAttack(history); ok && b.rng.Float64() < mediumFollowChance {
		return last
	}
	return b.randomArea()
}

// cyclicBlock expects the opponent to move one step along head -> body -> legs.
func (b *Brain) cyclicBlock(history []game.Move) game.Area {
	if last, ok := lastAttack(history); ok && b.rng.Float64() < hardPredictChance {
		return last.Next()
	}
	return b.randomArea()
}

func (b *Brain) attackAwayFrom(block game.Area) game.Area {
	if b.rng.Float64() < attackAwayChance {
		others := make([]game.Area, 0, 2)
		for _, a := range game.Areas {
			if a != block {
				others = append(others, a)
			}
		}
		return others[b.rng.Intn(len(others))]
	}
	return b.randomArea()
}

func (b *Brain) predictedBlock(history []game.Move) game.Area {
	if next, ok := PredictNextAttack(history); ok && b.rng.Float64() < expertPredictChance {
		return next
	}
	return b.cyclicBlock(history)
}

func (b *Brain) expertAttack(history []game.Move, block game.Area) game.Area {
	if weak, ok := LeastBlocked(history); ok && b.rng.Float64() < expertPredictChance {
		return weak
	}
	return b.attackAwayFrom(block)
}

// applyPersonality replaces either half of the move with a random pick with
// probability 1 - predictability.
func (b *Brain) applyPersonality(p Personality, attack, block game.Area) (game.Area, game.Area) {
	pred := p.Predictability
	if pred < 0 {
		pred = 0
	}
	if pred > 1 {
		pred = 1
	}
	if b.rng.Float64() < 1-pred {
		if b.rng.Intn(2) == 0 {
			attack = b.randomArea()
		} else {
			block = b.randomArea()
		}
	}
	return attack, block
}

func lastAttack(history []game.Move) (game.Area, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].AttackArea != nil {
			return *history[i].AttackArea, true
		}
	}
	return "", false
}
