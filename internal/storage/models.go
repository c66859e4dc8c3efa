package storage

import "time"

// CharacterProfile is a participant's persistent fighting data and progress.
type CharacterProfile struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	Name           string         `json:"name"`
	Class          string         `json:"class"`
	Level          int            `gorm:"default:1" json:"level"`
	XP             int64          `gorm:"default:0" json:"xp"`
	Gold           int64          `gorm:"default:0" json:"gold"`
	Wins           int            `gorm:"default:0" json:"wins"`
	Losses         int            `gorm:"default:0" json:"losses"`
	Draws          int            `gorm:"default:0" json:"draws"`
	Strength       int            `json:"strength"`
	Agility        int            `json:"agility"`
	Intuition      int            `json:"intuition"`
	Endurance      int            `json:"endurance"`
	SpecialAbility string         `json:"special_ability"`
	Items          []EquippedItem `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"items"`
	LastLevelUpAt  *time.Time     `json:"last_level_up_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// EquippedItem is one item worn in a slot. A profile has at most one item
// per slot.
type EquippedItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProfileID string `gorm:"uniqueIndex:idx_profile_slot;not null" json:"profile_id"`
	Slot      string `gorm:"uniqueIndex:idx_profile_slot;not null" json:"slot"`
	Name      string `json:"name"`
	Damage    int    `json:"damage"`
	Defense   int    `json:"defense"`
}

// MatchOutcome is the ledger row written for every recorded outcome.
type MatchOutcome struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	GameID        string    `gorm:"index" json:"game_id"`
	ParticipantID string    `gorm:"index" json:"participant_id"`
	OpponentID    string    `json:"opponent_id"`
	Outcome       string    `json:"outcome"`
	Reason        string    `json:"reason"`
	Rounds        int       `json:"rounds"`
	XP            int       `json:"xp"`
	Gold          int       `json:"gold"`
	LeveledUp     bool      `json:"leveled_up"`
	CreatedAt     time.Time `json:"created_at"`
}

// Base attribute value for freshly created profiles.
const defaultAttribute = 10
