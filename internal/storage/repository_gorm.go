package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ericogr/duel-arena/internal/config"
	"github.com/ericogr/duel-arena/internal/game"
)

// BaseXPPerLevel scales the level curve: going from level n to n+1 needs
// floor(BaseXPPerLevel * n^1.2) XP.
const BaseXPPerLevel = 100

// XPForNextLevel returns the XP needed to leave level.
func XPForNextLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(level), 1.2))
}

type gormRepository struct {
	db      *gorm.DB
	rewards config.Rewards
	// classes maps lowercase class name -> definition (bonuses, ability).
	classes map[string]config.Class
	now     func() time.Time
}

// NewGormRepository wraps db. Class bonuses and rewards come from config,
// which stays the source of truth for them.
func NewGormRepository(db *gorm.DB, rewards config.Rewards, classes []config.Class) Repository {
	m := make(map[string]config.Class, len(classes))
	for _, c := range classes {
		m[strings.ToLower(c.Name)] = c
	}
	return &gormRepository{db: db, rewards: rewards, classes: m, now: time.Now}
}

func defaultProfile(id, name string) CharacterProfile {
	if name == "" {
		name = id
	}
	return CharacterProfile{
		ID:        id,
		Name:      name,
		Level:     1,
		Strength:  defaultAttribute,
		Agility:   defaultAttribute,
		Intuition: defaultAttribute,
		Endurance: defaultAttribute,
	}
}

func (r *gormRepository) loadOrCreate(tx *gorm.DB, id, name string) (*CharacterProfile, error) {
	var p CharacterProfile
	err := tx.Preload("Items").Where("id = ?", id).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = defaultProfile(id, name)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
		return nil, err
	}
	if err := tx.Preload("Items").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) Profile(ctx context.Context, participantID string) (game.Profile, error) {
	if strings.TrimSpace(participantID) == "" {
		return game.Profile{}, game.ErrInvalidProfile
	}
	p, err := r.loadOrCreate(r.db.WithContext(ctx), participantID, "")
	if err != nil {
		return game.Profile{}, fmt.Errorf("load profile %s: %w", participantID, err)
	}
	return r.toGame(p)
}

func (r *gormRepository) toGame(p *CharacterProfile) (game.Profile, error) {
	attrs := game.Attributes{
		Strength:  p.Strength,
		Agility:   p.Agility,
		Intuition: p.Intuition,
		Endurance: p.Endurance,
	}
	ability, err := game.ParseAbility(p.SpecialAbility)
	if err != nil {
		return game.Profile{}, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	if cl, ok := r.classes[strings.ToLower(p.Class)]; ok {
		attrs = attrs.Add(cl.Bonus)
		if ability == game.AbilityNone {
			ability = cl.Ability
		}
	}
	var eq game.Equipment
	if len(p.Items) > 0 {
		eq = make(game.Equipment, len(p.Items))
		for _, it := range p.Items {
			eq[game.Slot(it.Slot)] = game.Item{Name: it.Name, Damage: it.Damage, Defense: it.Defense}
		}
	}
	return game.Profile{
		ID:         p.ID,
		Name:       p.Name,
		Class:      p.Class,
		Level:      p.Level,
		Attributes: attrs,
		Ability:    ability,
		Equipment:  eq,
	}, nil
}

func (r *gormRepository) EnsureProfile(ctx context.Context, participantID, name string) error {
	db := r.db.WithContext(ctx)
	p, err := r.loadOrCreate(db, participantID, name)
	if err != nil {
		return err
	}
	if name == "" || p.Name == name {
		return nil
	}
	return db.Model(&CharacterProfile{}).Where("id = ?", participantID).Update("name", name).Error
}

func (r *gormRepository) Equip(ctx context.Context, participantID string, slot game.Slot, item game.Item) error {
	db := r.db.WithContext(ctx)
	if _, err := r.loadOrCreate(db, participantID, ""); err != nil {
		return err
	}
	row := EquippedItem{ProfileID: participantID, Slot: string(slot), Name: item.Name, Damage: item.Damage, Defense: item.Defense}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "damage", "defense"}),
	}).Create(&row).Error
}

func (r *gormRepository) grant(o game.Outcome, reason game.EndReason) (xp, gold int) {
	switch o {
	case game.OutcomeWin:
		xp, gold = r.rewards.WinXP, r.rewards.WinGold
		if reason.Forfeited() {
			gold += r.rewards.ForfeitGold
		}
	case game.OutcomeDraw:
		xp, gold = r.rewards.DrawXP, r.rewards.DrawGold
	default:
		xp, gold = r.rewards.LossXP, r.rewards.LossGold
	}
	return xp, gold
}

func (r *gormRepository) RecordOutcome(ctx context.Context, rep game.Report) error {
	if rep.ParticipantID == "" {
		return game.ErrNotAParticipant
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.loadOrCreate(tx, rep.ParticipantID, "")
		if err != nil {
			return err
		}
		xp, gold := r.grant(rep.Outcome, rep.Reason)
		switch rep.Outcome {
		case game.OutcomeWin:
			p.Wins++
		case game.OutcomeDraw:
			p.Draws++
		default:
			p.Losses++
		}
		p.Gold += int64(gold)
		p.XP += int64(xp)

		leveled := false
		for p.XP >= XPForNextLevel(p.Level) {
			p.XP -= XPForNextLevel(p.Level)
			p.Level++
			leveled = true
		}
		if leveled {
			at := r.now()
			p.LastLevelUpAt = &at
		}

		if err := tx.Model(&CharacterProfile{}).Where("id = ?", p.ID).Updates(map[string]any{
			"level":            p.Level,
			"xp":               p.XP,
			"gold":             p.Gold,
			"wins":             p.Wins,
			"losses":           p.Losses,
			"draws":            p.Draws,
			"last_level_up_at": p.LastLevelUpAt,
		}).Error; err != nil {
			return err
		}

		created := rep.At
		if created.IsZero() {
			created = r.now()
		}
		return tx.Create(&MatchOutcome{
			ID:            uuid.NewString(),
			GameID:        rep.GameID,
			ParticipantID: rep.ParticipantID,
			OpponentID:    rep.OpponentID,
			Outcome:       string(rep.Outcome),
			Reason:        string(rep.Reason),
			Rounds:        rep.Rounds,
			XP:            xp,
			Gold:          gold,
			LeveledUp:     leveled,
			CreatedAt:     created,
		}).Error
	})
}

func (r *gormRepository) Progress(ctx context.Context, participantID string) (*CharacterProfile, error) {
	var p CharacterProfile
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", participantID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) Outcomes(ctx context.Context, participantID string, limit int) ([]MatchOutcome, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []MatchOutcome
	err := r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TopPlayers returns top N profiles ordered by wins desc, then level desc.
func (r *gormRepository) TopPlayers(ctx context.Context, limit int) ([]CharacterProfile, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []CharacterProfile
	if err := r.db.WithContext(ctx).Model(&CharacterProfile{}).
		Order("wins DESC").
		Order("level DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
