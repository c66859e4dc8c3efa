package bot

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ericogr/duel-arena/internal/game"
)

// scriptedRand returns queued values, then fixed defaults.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.99
	}
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *scriptedRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0] % n
	s.ints = s.ints[1:]
	return v
}

func attacks(areas ...game.Area) []game.Move {
	out := make([]game.Move, 0, len(areas))
	for _, a := range areas {
		out = append(out, game.Move{AttackArea: a.Ptr()})
	}
	return out
}

func steady(d Difficulty) Profile {
	return Profile{ID: "bot:test", Name: "Test", Difficulty: d, Personality: Personality{Predictability: 1}}
}

func TestMediumFollowsLastAttack(t *testing.T) {
	b := NewBrain(&scriptedRand{floats: []float64{0.1}})
	m := b.ChooseMove(steady(Medium), MatchView{Round: 3, OpponentMoves: attacks(game.AreaHead, game.AreaLegs)})
	if m.BlockArea == nil || *m.BlockArea != game.AreaLegs {
		t.Fatalf("expected block on legs, got %v", m.BlockArea)
	}
	if m.AttackArea == nil || !m.AttackArea.Valid() {
		t.Fatalf("expected a valid attack, got %v", m.AttackArea)
	}
}

func TestHardBlocksNextInCycle(t *testing.T) {
	// 0.1 takes the prediction, 0.1 attacks away from the block, int 1 picks
	// the second remaining area.
	b := NewBrain(&scriptedRand{floats: []float64{0.1, 0.1}, ints: []int{1}})
	m := b.ChooseMove(steady(Hard), MatchView{Round: 2, OpponentMoves: attacks(game.AreaBody)})
	if *m.BlockArea != game.AreaLegs {
		t.Fatalf("expected block on legs after body, got %s", *m.BlockArea)
	}
	if *m.AttackArea == game.AreaLegs {
		t.Fatalf("attack should avoid own block")
	}
}

func TestHardWithoutHistoryIsRandom(t *testing.T) {
	b := NewBrain(&scriptedRand{ints: []int{2, 0}})
	m := b.ChooseMove(steady(Hard), MatchView{Round: 1})
	if *m.BlockArea != game.AreaLegs {
		t.Fatalf("expected random block legs, got %s", *m.BlockArea)
	}
}

func TestPredictNextAttack(t *testing.T) {
	hist := attacks(game.AreaHead, game.AreaBody, game.AreaHead, game.AreaBody, game.AreaHead)
	got, ok := PredictNextAttack(hist)
	if !ok || got != game.AreaBody {
		t.Fatalf("expected body, got %q ok=%v", got, ok)
	}

	// no transition out of legs yet: fall back to weighted frequency
	hist = attacks(game.AreaHead, game.AreaHead, game.AreaLegs)
	got, ok = PredictNextAttack(hist)
	if !ok || got != game.AreaHead {
		t.Fatalf("expected head from frequency, got %q", got)
	}

	if _, ok := PredictNextAttack(nil); ok {
		t.Fatalf("expected no prediction without history")
	}
	// skipped turns carry no attack
	if _, ok := PredictNextAttack([]game.Move{game.AutoMove()}); ok {
		t.Fatalf("expected no prediction from skipped turns")
	}
}

func TestLeastBlocked(t *testing.T) {
	hist := []game.Move{
		{BlockArea: game.AreaHead.Ptr()},
		{BlockArea: game.AreaBody.Ptr()},
		{BlockArea: game.AreaHead.Ptr()},
	}
	got, ok := LeastBlocked(hist)
	if !ok || got != game.AreaLegs {
		t.Fatalf("expected legs, got %q", got)
	}
	if _, ok := LeastBlocked(attacks(game.AreaHead)); ok {
		t.Fatalf("expected false without blocks")
	}
}

func TestExpertUsesPredictor(t *testing.T) {
	hist := []game.Move{
		{AttackArea: game.AreaLegs.Ptr(), BlockArea: game.AreaHead.Ptr()},
		{AttackArea: game.AreaHead.Ptr(), BlockArea: game.AreaHead.Ptr()},
		{AttackArea: game.AreaLegs.Ptr(), BlockArea: game.AreaBody.Ptr()},
	}
	b := NewBrain(&scriptedRand{floats: []float64{0.1, 0.1}})
	m := b.ChooseMove(steady(Expert), MatchView{Round: 4, OpponentMoves: hist})
	if *m.BlockArea != game.AreaHead {
		t.Fatalf("expected block on head after legs, got %s", *m.BlockArea)
	}
	if *m.AttackArea != game.AreaLegs {
		t.Fatalf("expected attack on unblocked legs, got %s", *m.AttackArea)
	}
}

func TestPersonalityOverride(t *testing.T) {
	// predictability 0 always overrides; Intn 0 picks attack, next Intn
	// picks body.
	p := steady(Easy)
	p.Personality.Predictability = 0
	b := NewBrain(&scriptedRand{ints: []int{2, 2, 0, 1}})
	m := b.ChooseMove(p, MatchView{Round: 1})
	if *m.AttackArea != game.AreaBody || *m.BlockArea != game.AreaLegs {
		t.Fatalf("unexpected move %s/%s", *m.AttackArea, *m.BlockArea)
	}
}

func TestPredictabilityShapesHitRate(t *testing.T) {
	hist := attacks(game.AreaHead, game.AreaBody, game.AreaLegs)
	rate := func(pred float64) float64 {
		b := NewBrain(rand.New(rand.NewSource(7)))
		p := steady(Hard)
		p.Personality.Predictability = pred
		hits := 0
		const n = 4000
		for i := 0; i < n; i++ {
			m := b.ChooseMove(p, MatchView{Round: 4, OpponentMoves: hist})
			if *m.BlockArea == game.AreaHead {
				hits++
			}
		}
		return float64(hits) / n
	}
	steadyRate, noisyRate := rate(1), rate(0)
	if steadyRate < 0.75 {
		t.Fatalf("expected a predictable bot to follow the cycle, rate %.2f", steadyRate)
	}
	if noisyRate >= steadyRate {
		t.Fatalf("expected lower predictability to reduce the rate: %.2f >= %.2f", noisyRate, steadyRate)
	}
}

func TestEveryMoveIsValid(t *testing.T) {
	b := NewBrain(rand.New(rand.NewSource(1)))
	hist := attacks(game.AreaHead, game.AreaLegs)
	for _, d := range []Difficulty{Easy, Medium, Hard, Expert, "unknown"} {
		for i := 0; i < 200; i++ {
			m := b.ChooseMove(Profile{Difficulty: d, Personality: Personality{Predictability: 0.5}}, MatchView{OpponentMoves: hist})
			if m.AttackArea == nil || !m.AttackArea.Valid() || m.BlockArea == nil || !m.BlockArea.Valid() {
				t.Fatalf("%s produced invalid move %+v", d, m)
			}
		}
	}
}

func TestThinkingTime(t *testing.T) {
	b := NewBrain(rand.New(rand.NewSource(3)))
	for d, base := range baseDelay {
		for i := 0; i < 50; i++ {
			got := b.ThinkingTime(d)
			if got < base || got >= base+time.Second {
				t.Fatalf("%s delay %v outside [%v, %v)", d, got, base, base+time.Second)
			}
		}
	}
	if got := b.Between(time.Second, time.Second); got != time.Second {
		t.Fatalf("expected fixed delay, got %v", got)
	}
}

func TestParseDifficultyAndRoster(t *testing.T) {
	if d, err := ParseDifficulty(" Hard "); err != nil || d != Hard {
		t.Fatalf("got %q, %v", d, err)
	}
	if _, err := ParseDifficulty("nightmare"); err == nil {
		t.Fatalf("expected error")
	}
	r := NewRoster([]Profile{{ID: "bot:a"}, {ID: "bot:b"}, {ID: "bot:a", Name: "dup"}})
	if len(r.List()) != 2 {
		t.Fatalf("expected duplicates dropped, got %d", len(r.List()))
	}
	if p, ok := r.Lookup("bot:a"); !ok || p.Name != "" {
		t.Fatalf("expected first definition kept")
	}
	if gp := (Profile{ID: "bot:a"}).GameProfile(); !gp.IsBot {
		t.Fatalf("expected IsBot")
	}
}
