package storage

import (
	"context"
	"testing"

	"github.com/ericogr/duel-arena/internal/config"
	"github.com/ericogr/duel-arena/internal/game"
)

func newRepo(t *testing.T) Repository {
	t.Helper()
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	classes := []config.Class{{Name: "Knight", Bonus: game.Attributes{Strength: 4, Endurance: 2}, Ability: game.AbilityIgnoreBlock}}
	return NewGormRepository(db, config.DefaultRewards, classes)
}

func TestProfileCreatesDefault(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p, err := r.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.ID != "u1" || p.Name != "u1" || p.Level != 1 || p.Attributes.Strength != 10 {
		t.Fatalf("unexpected default profile %+v", p)
	}
	if _, err := game.NewCombatant(p); err != nil {
		t.Fatalf("default profile must snapshot cleanly: %v", err)
	}
	if _, err := r.Profile(ctx, " "); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestProfileAppliesClassAndItems(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	if err := r.EnsureProfile(ctx, "u2", "Ayla"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	repo := r.(*gormRepository)
	if err := repo.db.Model(&CharacterProfile{}).Where("id = ?", "u2").Update("class", "knight").Error; err != nil {
		t.Fatalf("set class: %v", err)
	}
	if err := r.Equip(ctx, "u2", game.SlotWeapon, game.Item{Name: "Sword", Damage: 5}); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if err := r.Equip(ctx, "u2", game.SlotWeapon, game.Item{Name: "Axe", Damage: 7}); err != nil {
		t.Fatalf("re-equip: %v", err)
	}
	p, err := r.Profile(ctx, "u2")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Name != "Ayla" || p.Attributes.Strength != 14 || p.Attributes.Endurance != 12 {
		t.Fatalf("expected class bonus applied, got %+v", p)
	}
	if p.Ability != game.AbilityIgnoreBlock {
		t.Fatalf("expected class ability, got %q", p.Ability)
	}
	if w := p.Equipment[game.SlotWeapon]; w.Name != "Axe" || w.Damage != 7 {
		t.Fatalf("expected the replaced weapon, got %+v", w)
	}
}

func TestRecordOutcomeLevelsAndLedger(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	win := game.Report{GameID: "g1", ParticipantID: "u3", OpponentID: "u4", Outcome: game.OutcomeWin, Reason: game.ReasonDefeat, Rounds: 4}
	if err := r.RecordOutcome(ctx, win); err != nil {
		t.Fatalf("record: %v", err)
	}
	win.GameID = "g2"
	win.Reason = game.ReasonForfeit
	if err := r.RecordOutcome(ctx, win); err != nil {
		t.Fatalf("record: %v", err)
	}
	p, err := r.Progress(ctx, "u3")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	// two wins of 50 XP reach the 100 XP needed for level 2
	if p.Level != 2 || p.XP != 0 || p.Wins != 2 {
		t.Fatalf("unexpected progress %+v", p)
	}
	wantGold := int64(2*config.DefaultRewards.WinGold + config.DefaultRewards.ForfeitGold)
	if p.Gold != wantGold {
		t.Fatalf("gold = %d, want %d", p.Gold, wantGold)
	}
	if p.LastLevelUpAt == nil {
		t.Fatalf("expected level-up time")
	}

	rows, err := r.Outcomes(ctx, "u3", 10)
	if err != nil || len(rows) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d (%v)", len(rows), err)
	}
	leveled := 0
	for _, row := range rows {
		if row.LeveledUp {
			leveled++
		}
	}
	if leveled != 1 {
		t.Fatalf("expected one level-up row, got %d", leveled)
	}

	if err := r.RecordOutcome(ctx, game.Report{ParticipantID: "u4", Outcome: game.OutcomeLoss, Reason: game.ReasonDefeat}); err != nil {
		t.Fatalf("record loss: %v", err)
	}

	// an opponent leaving mid-match pays the same forfeit gold
	left := game.Report{GameID: "g3", ParticipantID: "u5", OpponentID: "u4", Outcome: game.OutcomeWin, Reason: game.ReasonLeft, Rounds: 1}
	if err := r.RecordOutcome(ctx, left); err != nil {
		t.Fatalf("record left win: %v", err)
	}
	p, err = r.Progress(ctx, "u5")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if want := int64(config.DefaultRewards.WinGold + config.DefaultRewards.ForfeitGold); p.Gold != want {
		t.Fatalf("left win gold = %d, want %d", p.Gold, want)
	}

	top, err := r.TopPlayers(ctx, 5)
	if err != nil || len(top) != 3 || top[0].ID != "u3" {
		t.Fatalf("unexpected leaderboard %+v (%v)", top, err)
	}
}

func TestXPForNextLevel(t *testing.T) {
	if XPForNextLevel(1) != 100 {
		t.Fatalf("level 1 needs 100, got %d", XPForNextLevel(1))
	}
	if XPForNextLevel(2) != 229 {
		t.Fatalf("level 2 needs 229, got %d", XPForNextLevel(2))
	}
	if XPForNextLevel(0) != XPForNextLevel(1) {
		t.Fatalf("levels below 1 clamp to 1")
	}
}
