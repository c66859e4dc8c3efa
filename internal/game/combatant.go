package game

// Combat rule constants used to derive per-match scalars.
const (
	BaseHealth         = 200
	HealthPerEndurance = 10
	StrengthBaseline   = 10
	DamagePerStrength  = 2
	// ChancePerPoint is the percentage granted per attribute point for
	// critical, evasion and evasion-reduction chances.
	ChancePerPoint = 0.5
	// AbilityChanceBonus is added (in percentage points) by evade and criticalHit.
	AbilityChanceBonus = 2.5
)

// Derived holds the combat scalars computed once at snapshot creation.
type Derived struct {
	AttackBonus      int     `json:"attackBonus"`
	WeaponDamage     int     `json:"weaponDamage"`
	TotalDefense     int     `json:"totalDefense"`
	CritChance       float64 `json:"critChance"`
	EvasionChance    float64 `json:"evasionChance"`
	EvasionReduction float64 `json:"evasionReduction"`
}

// Combatant is the per-match snapshot of a participant. It is treated as a
// value: health changes produce a new copy through WithHealth.
type Combatant struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Class      string     `json:"class,omitempty"`
	IsBot      bool       `json:"isBot"`
	Health     int        `json:"health"`
	MaxHealth  int        `json:"maxHealth"`
	Attributes Attributes `json:"attributes"`
	Ability    Ability    `json:"specialAbility,omitempty"`
	Equipment  Equipment  `json:"equipment,omitempty"`
	Derived    Derived    `json:"derived"`
}

// NewCombatant snapshots p at full health. Later profile changes never
// reach the snapshot.
func NewCombatant(p Profile) (Combatant, error) {
	a := p.Attributes
	if p.ID == "" || a.Strength < 0 || a.Agility < 0 || a.Intuition < 0 || a.Endurance < 0 {
		return Combatant{}, ErrInvalidProfile
	}
	if _, err := ParseAbility(string(p.Ability)); err != nil {
		return Combatant{}, err
	}
	maxHealth := BaseHealth + a.Endurance*HealthPerEndurance
	name := p.Name
	if name == "" {
		name = p.ID
	}
	eq := p.Equipment.Clone()
	return Combatant{
		ID:         p.ID,
		Name:       name,
		Class:      p.Class,
		IsBot:      p.IsBot || IsBotID(p.ID),
		Health:     maxHealth,
		MaxHealth:  maxHealth,
		Attributes: a,
		Ability:    p.Ability,
		Equipment:  eq,
		Derived:    derive(a, p.Ability, eq),
	}, nil
}

func derive(a Attributes, ability Ability, eq Equipment) Derived {
	d := Derived{
		WeaponDamage:     eq[SlotWeapon].Damage,
		CritChance:       float64(a.Intuition) * ChancePerPoint,
		EvasionChance:    float64(a.Agility) * ChancePerPoint,
		EvasionReduction: float64(a.Intuition) * ChancePerPoint,
	}
	if a.Strength > StrengthBaseline {
		d.AttackBonus = (a.Strength - StrengthBaseline) * DamagePerStrength
	}
	for _, s := range DefenseSlots {
		d.TotalDefense += eq[s].Defense
	}
	switch ability {
	case AbilityCriticalHit:
		d.CritChance += AbilityChanceBonus
	case AbilityEvade:
		d.EvasionChance += AbilityChanceBonus
	}
	return d
}

// WithHealth returns a copy with health set to h, clamped to [0, MaxHealth].
func (c Combatant) WithHealth(h int) Combatant {
	if h < 0 {
		h = 0
	}
	if h > c.MaxHealth {
		h = c.MaxHealth
	}
	c.Health = h
	return c
}

// Alive reports whether the combatant still has health left.
func (c Combatant) Alive() bool { return c.Health > 0 }

// Summary returns the short participant description.
func (c Combatant) Summary() Summary {
	return Summary{ID: c.ID, Name: c.Name, Class: c.Class, IsBot: c.IsBot}
}
