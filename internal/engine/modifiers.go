package engine

import "github.com/ericogr/duel-arena/internal/game"

// Per-area base damage. All areas currently hit equally hard.
var areaDamage = map[game.Area]int{
	game.AreaHead: 10,
	game.AreaBody: 10,
	game.AreaLegs: 10,
}

const (
	// IgnoreBlockChance is the chance (percent) that an ignoreBlock attacker
	// bypasses a successful block.
	IgnoreBlockChance = 5.0
	// PoisonChance is the chance (percent) that a poison attacker adds bonus damage.
	PoisonChance = 5.0
	// MinHitDamage is the floor for any unblocked, unevaded hit.
	MinHitDamage = 1
)

func baseDamage(att game.Combatant, area game.Area) int {
	return areaDamage[area] + att.Derived.WeaponDamage + att.Derived.AttackBonus
}

// evasionChance is the defender's evasion after the attacker's reduction, floored at 0.
func evasionChance(att, def game.Combatant) float64 {
	c := def.Derived.EvasionChance - att.Derived.EvasionReduction
	if c < 0 {
		return 0
	}
	return c
}

func afterDefense(dmg int, def game.Combatant) int {
	dmg -= def.Derived.TotalDefense
	if dmg < MinHitDamage {
		dmg = MinHitDamage
	}
	return dmg
}

// poisonBonus is the extra damage a successful poison roll adds (50%, floored).
func poisonBonus(dmg int) int { return dmg / 2 }
