// Package combat implements attack resolution, skill casting, and status
// effects (spec.md §4.9). The damage-formula shape (attacker skill/
// attribute vs. defender skill/attribute, armor reduction) is grounded on
// internal/system/combat.go's melee/ranged resolution pipeline in the
// teacher, generalized from its Java-ported Lineage formulas to the
// neutral six-tuple attribute model.
package combat

import (
	"math/rand"

	"github.com/originrealm/worldserver/internal/repo"
)

// AttackRequest is one queued attack, mirroring the teacher's
// handler.AttackRequest shape (attacker + target + melee/ranged flag).
type AttackRequest struct {
	Attacker repo.CharID
	Target   repo.CharID
	Melee    bool
}

// AttackOutcome reports what a resolved attack did, for delta-streaming
// and driver message-bus emission.
type AttackOutcome struct {
	Hit    bool
	Damage int32
	Killed bool
}

// Combatant is the subset of Character state damage resolution needs, to
// keep this package decoupled from repo locking (callers snapshot/mutate
// through repo.CharactersMut themselves).
type Combatant struct {
	WeaponSkill   int32
	WeaponDamage  int32
	AttackAttr    int32
	DefenseSkill  int32
	DefenseAttr   int32
	ArmorValue    int32
	HPTotal       int32
}

// ResolveAttack implements spec.md §4.9: "Damage = base weapon damage x
// skill factor x random roll, reduced by armor."
func ResolveAttack(attacker, defender Combatant, ahp *int32, rng *rand.Rand) AttackOutcome {
	hitChance := attacker.WeaponSkill + attacker.AttackAttr - defender.DefenseSkill - defender.DefenseAttr
	if hitChance < 5 {
		hitChance = 5
	}
	if hitChance > 95 {
		hitChance = 95
	}
	if rng.Intn(100) >= int(hitChance) {
		return AttackOutcome{Hit: false}
	}

	skillFactor := 100 + attacker.WeaponSkill
	roll := 70 + rng.Intn(61) // 0.70..1.30 in integer percent
	raw := attacker.WeaponDamage * int32(skillFactor) / 100 * int32(roll) / 100
	dmg := raw - defender.ArmorValue
	if dmg < 1 {
		dmg = 1
	}

	*ahp -= dmg * 1000
	killed := *ahp <= 0
	if killed {
		*ahp = 0
	}
	return AttackOutcome{Hit: true, Damage: dmg, Killed: killed}
}

// CastResult reports a skill cast's outcome.
type CastResult struct {
	Cast        bool
	ManaSpent   int32
	TargetDifficulty int32
}

// CastSkill implements spec.md §4.9: "A cast consumes mana proportional to
// skill level and target difficulty; partial/failed cast refunds none."
func CastSkill(casterSkillLevel, targetDifficulty, availableMana int32) CastResult {
	cost := casterSkillLevel * targetDifficulty / 10
	if cost < 1 {
		cost = 1
	}
	if availableMana < cost {
		return CastResult{Cast: false}
	}
	return CastResult{Cast: true, ManaSpent: cost, TargetDifficulty: targetDifficulty}
}

// StatusKind enumerates the worn-spell-slot effects spec.md §4.9 names.
type StatusKind int32

const (
	StatusStun StatusKind = iota
	StatusCurse
	StatusBless
	StatusMagicShield
)

// StatusEffect models one active worn-spell-slot status as an Item in a
// character's Spells array (spec.md §4.9: "modeled as items worn in the
// spell slots with a duration").
type StatusEffect struct {
	Kind StatusKind
	Item repo.ItemID
}

// ExpireStatuses scans a character's spell slots and clears any item whose
// AgeActive has reached AgeActiveMax, per the per-tick scan spec.md §4.9
// describes. Returns the ids of expired items so callers can free them.
func ExpireStatuses(spells *[repo.SpellSize]repo.ItemID, items *[repo.MaxItems]repo.Item) []repo.ItemID {
	var expired []repo.ItemID
	for i, id := range spells {
		if id == 0 {
			continue
		}
		it := &items[id]
		it.AgeActive++
		if it.AgeActive >= it.AgeActiveMax && it.AgeActiveMax > 0 {
			expired = append(expired, id)
			spells[i] = 0
		}
	}
	return expired
}

// IsLabRestricted reports whether (x, y) on mapID falls inside a
// configured lab zone (spec.md §9 open question: "the item expiry rule
// for lab areas ... its exact coordinate set belongs in config, not
// code"). Zones come from internal/config; this function is pure over
// the slice it's given.
type LabZone struct {
	MapID          int32
	X0, Y0, X1, Y1 int32
}

func IsLabRestricted(zones []LabZone, mapID, x, y int32) bool {
	for _, z := range zones {
		if z.MapID == mapID && x >= z.X0 && x <= z.X1 && y >= z.Y0 && y <= z.Y1 {
			return true
		}
	}
	return false
}
