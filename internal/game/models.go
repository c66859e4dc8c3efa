package game

import (
	"strings"
	"time"
)

// Area is a combat area: the target of an attack or the area a block defends.
type Area string

const (
	AreaHead Area = "head"
	AreaBody Area = "body"
	AreaLegs Area = "legs"
)

// Areas lists every valid combat area in cycle order (head -> body -> legs).
var Areas = []Area{AreaHead, AreaBody, AreaLegs}

// Valid reports whether a is one of the known areas.
func (a Area) Valid() bool {
	switch a {
	case AreaHead, AreaBody, AreaLegs:
		return true
	}
	return false
}

// Next returns the area that follows a in the head -> body -> legs cycle.
func (a Area) Next() Area {
	switch a {
	case AreaHead:
		return AreaBody
	case AreaBody:
		return AreaLegs
	default:
		return AreaHead
	}
}

// Ptr returns a pointer to a copy of a.
func (a Area) Ptr() *Area { return &a }

// ParseArea converts wire input into an optional area. Empty input means
// "no action" and yields nil.
func ParseArea(s string) (*Area, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	a := Area(strings.ToLower(s))
	if !a.Valid() {
		return nil, ErrMalformedMove
	}
	return &a, nil
}

// Move is one combatant's choice for a round. A nil area means no action.
type Move struct {
	AttackArea *Area `json:"attackArea"`
	BlockArea  *Area `json:"blockArea"`
	// Auto is set when the move was synthesized by the move timer.
	Auto bool `json:"auto,omitempty"`
}

// NewMove validates both areas and builds a submitted move.
func NewMove(attack, block string) (Move, error) {
	a, err := ParseArea(attack)
	if err != nil {
		return Move{}, err
	}
	b, err := ParseArea(block)
	if err != nil {
		return Move{}, err
	}
	return Move{AttackArea: a, BlockArea: b}, nil
}

// AutoMove is the move recorded for a combatant who did not act in time.
func AutoMove() Move { return Move{Auto: true} }

// Attacks reports whether the move carries an attack.
func (m Move) Attacks() bool { return m.AttackArea != nil }

// Blocks reports whether the move defends area a.
func (m Move) Blocks(a Area) bool { return m.BlockArea != nil && *m.BlockArea == a }

// Ability is a class-granted passive effect.
type Ability string

const (
	AbilityNone        Ability = ""
	AbilityEvade       Ability = "evade"
	AbilityIgnoreBlock Ability = "ignoreBlock"
	AbilityCriticalHit Ability = "criticalHit"
	AbilityPoison      Ability = "poison"
)

// ParseAbility validates a configured ability name. Empty and "none" map to AbilityNone.
func ParseAbility(s string) (Ability, error) {
	switch strings.TrimSpace(s) {
	case "", "none":
		return AbilityNone, nil
	case string(AbilityEvade):
		return AbilityEvade, nil
	case string(AbilityIgnoreBlock):
		return AbilityIgnoreBlock, nil
	case string(AbilityCriticalHit):
		return AbilityCriticalHit, nil
	case string(AbilityPoison):
		return AbilityPoison, nil
	}
	return AbilityNone, ErrUnknownAbility
}

// Slot is an equipment slot.
type Slot string

const (
	SlotWeapon Slot = "weapon"
	SlotArmor  Slot = "armor"
	SlotShield Slot = "shield"
	SlotHelmet Slot = "helmet"
	SlotBoots  Slot = "boots"
	SlotGloves Slot = "gloves"
	SlotAmulet Slot = "amulet"
	SlotRing   Slot = "ring"
)

// DefenseSlots are the slots whose defense adds up against incoming hits.
var DefenseSlots = []Slot{SlotArmor, SlotShield, SlotHelmet, SlotBoots, SlotGloves, SlotAmulet, SlotRing}

// Item holds the combat stats of an equipped item.
type Item struct {
	Name    string `json:"name" yaml:"name"`
	Damage  int    `json:"damage,omitempty" yaml:"damage"`
	Defense int    `json:"defense,omitempty" yaml:"defense"`
}

// Equipment maps slots to equipped items.
type Equipment map[Slot]Item

// Clone returns an independent copy.
func (e Equipment) Clone() Equipment {
	if e == nil {
		return nil
	}
	out := make(Equipment, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Attributes are the four base attributes, class bonuses included.
type Attributes struct {
	Strength  int `json:"strength" yaml:"strength"`
	Agility   int `json:"agility" yaml:"agility"`
	Intuition int `json:"intuition" yaml:"intuition"`
	Endurance int `json:"endurance" yaml:"endurance"`
}

// Add returns the component-wise sum.
func (a Attributes) Add(b Attributes) Attributes {
	return Attributes{
		Strength:  a.Strength + b.Strength,
		Agility:   a.Agility + b.Agility,
		Intuition: a.Intuition + b.Intuition,
		Endurance: a.Endurance + b.Endurance,
	}
}

// Profile is what the profile provider returns for a participant.
type Profile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Class      string     `json:"class,omitempty"`
	Level      int        `json:"level"`
	IsBot      bool       `json:"isBot"`
	Attributes Attributes `json:"attributes"`
	Ability    Ability    `json:"specialAbility,omitempty"`
	Equipment  Equipment  `json:"equipment,omitempty"`
}

// Summary is the short participant description used in challenge messages.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class,omitempty"`
	Level int    `json:"level"`
	IsBot bool   `json:"isBot"`
}

// Summary returns the short form of p.
func (p Profile) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name, Class: p.Class, Level: p.Level, IsBot: p.IsBot}
}

// BotIDPrefix marks participant ids that belong to AI-controlled opponents.
const BotIDPrefix = "bot:"

// IsBotID reports whether id names a bot.
func IsBotID(id string) bool { return strings.HasPrefix(id, BotIDPrefix) }

// Status is the lifecycle state of a game session.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusResolving Status = "resolving"
	StatusEnded     Status = "ended"
)

// InPlay reports whether the round loop is running.
func (s Status) InPlay() bool { return s == StatusActive || s == StatusResolving }

// Challenge is a pending 1:1 match request.
type Challenge struct {
	ID           string    `json:"id"`
	ChallengerID string    `json:"challengerId"`
	OpponentID   string    `json:"opponentId"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Outcome is what the leveling sink receives for one participant.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// EndReason explains why a session reached the ended state.
type EndReason string

const (
	ReasonDefeat  EndReason = "defeat"
	ReasonDraw    EndReason = "draw"
	ReasonLeft    EndReason = "left"
	ReasonForfeit EndReason = "forfeit"
	ReasonError   EndReason = "error"
	ReasonExpired EndReason = "expired"
)

// Rewarded reports whether participants receive win/loss bookkeeping for
// a match that ended for this reason.
func (r EndReason) Rewarded() bool {
	switch r {
	case ReasonDefeat, ReasonDraw, ReasonLeft, ReasonForfeit:
		return true
	}
	return false
}

// Forfeited reports whether the loser walked away, by leaving or by not
// coming back in time. Forfeit wins carry the extra forfeit gold.
func (r EndReason) Forfeited() bool {
	return r == ReasonLeft || r == ReasonForfeit
}

// Report is one participant's match result handed to the leveling sink.
type Report struct {
	GameID        string    `json:"gameId"`
	ParticipantID string    `json:"participantId"`
	OpponentID    string    `json:"opponentId"`
	Outcome       Outcome   `json:"outcome"`
	Reason        EndReason `json:"reason"`
	Rounds        int       `json:"rounds"`
	At            time.Time `json:"at"`
}
