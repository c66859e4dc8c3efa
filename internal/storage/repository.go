package storage

import (
	"context"

	"github.com/ericogr/duel-arena/internal/game"
)

// Repository is the profile provider and leveling sink consumed by the
// match engine through narrow interfaces.
type Repository interface {
	// Profile returns the fighting data of a participant with class bonuses
	// applied, creating a default profile on first lookup.
	Profile(ctx context.Context, participantID string) (game.Profile, error)
	// EnsureProfile creates the profile if missing and keeps its display name current.
	EnsureProfile(ctx context.Context, participantID, name string) error
	// Equip places item in slot, replacing what was there.
	Equip(ctx context.Context, participantID string, slot game.Slot, item game.Item) error
	// RecordOutcome applies XP, gold and level changes and appends a ledger row.
	RecordOutcome(ctx context.Context, r game.Report) error
	// Progress returns the stored profile row.
	Progress(ctx context.Context, participantID string) (*CharacterProfile, error)
	// Outcomes returns the latest ledger rows for a participant, newest first.
	Outcomes(ctx context.Context, participantID string, limit int) ([]MatchOutcome, error)
	// TopPlayers returns profiles ordered by wins, then level.
	TopPlayers(ctx context.Context, limit int) ([]CharacterProfile, error)
}
