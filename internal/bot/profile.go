package bot

import (
	"errors"
	"strings"

	"github.com/ericogr/duel-arena/internal/game"
)

// Difficulty selects the move-selection strategy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Expert Difficulty = "expert"
)

var ErrUnknownDifficulty = errors.New("difficulty must be easy, medium, hard or expert")

// ParseDifficulty validates a configured difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Easy, Medium, Hard, Expert:
		return d, nil
	}
	return "", ErrUnknownDifficulty
}

// Personality tunes a bot beyond its difficulty tier.
type Personality struct {
	// Predictability in [0,1]. A bot at 1 always plays its strategy; at 0 it
	// replaces one half of every move with a random pick.
	Predictability float64 `json:"predictability"`
}

// Profile describes an AI-controlled opponent.
type Profile struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Class       string          `json:"class,omitempty"`
	Level       int             `json:"level"`
	Difficulty  Difficulty      `json:"difficulty"`
	Personality Personality     `json:"personality"`
	Attributes  game.Attributes `json:"attributes"`
	Ability     game.Ability    `json:"specialAbility,omitempty"`
	Equipment   game.Equipment  `json:"equipment,omitempty"`
}

// GameProfile converts the bot into the shape the session snapshots.
func (p Profile) GameProfile() game.Profile {
	return game.Profile{
		ID:         p.ID,
		Name:       p.Name,
		Class:      p.Class,
		Level:      p.Level,
		IsBot:      true,
		Attributes: p.Attributes,
		Ability:    p.Ability,
		Equipment:  p.Equipment.Clone(),
	}
}

// Roster is a read-only lookup of configured bots.
type Roster struct {
	byID  map[string]Profile
	order []string
}

// NewRoster indexes profiles by id, keeping configuration order for listing.
func NewRoster(profiles []Profile) *Roster {
	r := &Roster{byID: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if _, dup := r.byID[p.ID]; dup {
			continue
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

// Lookup returns the bot with the given id.
func (r *Roster) Lookup(id string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}
	p, ok := r.byID[id]
	return p, ok
}

// List returns every bot in configuration order.
func (r *Roster) List() []Profile {
	if r == nil {
		return nil
	}
	out := make([]Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
