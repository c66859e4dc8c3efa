package engine

import (
	"fmt"
	"strings"

	"github.com/ericogr/duel-arena/internal/game"
)

// attack evaluates one side's attack against the other's block and returns
// the damage dealt. Rolls are consumed in a fixed order: ignoreBlock (only
// when blocked and held), critical, evasion, poison (only when a hit lands
// and held).
func (rc *roundContext) attack(att, def game.Combatant, am, dm game.Move) int {
	if !am.Attacks() {
		rc.add(game.LogEntry{
			Type:     game.LogSkip,
			ActorID:  att.ID,
			TargetID: def.ID,
			Message:  att.Name + skipReason(am),
		})
		return 0
	}

	area := *am.AttackArea
	entry := game.LogEntry{ActorID: att.ID, TargetID: def.ID, Area: area.Ptr()}

	if dm.Blocks(area) {
		if att.Ability == game.AbilityIgnoreBlock && succeeds(rc.roll(), IgnoreBlockChance) {
			entry.IgnoreBlock = true
		} else {
			entry.Type = game.LogBlock
			entry.Blocked = true
			entry.Message = fmt.Sprintf("%s attacks the %s, but %s blocks it", att.Name, area, def.Name)
			rc.add(entry)
			return 0
		}
	}

	dmg := baseDamage(att, area)
	if succeeds(rc.roll(), att.Derived.CritChance) {
		dmg *= 2
		entry.Critical = true
	}

	if succeeds(rc.roll(), evasionChance(att, def)) {
		entry.Type = game.LogEvade
		entry.Evaded = true
		entry.Message = fmt.Sprintf("%s evades %s's attack to the %s", def.Name, att.Name, area)
		rc.add(entry)
		return 0
	}

	dmg = afterDefense(dmg, def)
	if att.Ability == game.AbilityPoison && succeeds(rc.roll(), PoisonChance) {
		dmg += poisonBonus(dmg)
		entry.Poison = true
	}

	entry.Type = game.LogHit
	entry.Damage = dmg
	entry.Message = hitMessage(att, def, area, entry)
	rc.add(entry)
	return dmg
}

func skipReason(m game.Move) string {
	if m.Auto {
		return " ran out of time and does not attack"
	}
	return " does not attack"
}

func hitMessage(att, def game.Combatant, area game.Area, e game.LogEntry) string {
	msg := fmt.Sprintf("%s hits %s in the %s for %d damage", att.Name, def.Name, area, e.Damage)
	tags := make([]string, 0, 3)
	if e.IgnoreBlock {
		tags = append(tags, "breaks through the block")
	}
	if e.Critical {
		tags = append(tags, "critical hit")
	}
	if e.Poison {
		tags = append(tags, "poisoned")
	}
	if len(tags) > 0 {
		msg += " (" + strings.Join(tags, ", ") + ")"
	}
	return msg
}
