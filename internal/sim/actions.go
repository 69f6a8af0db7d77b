package sim

import (
	"fmt"

	"github.com/originrealm/worldserver/internal/combat"
	"github.com/originrealm/worldserver/internal/driver"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/scripting"
	"github.com/originrealm/worldserver/internal/worldmap"
)

// actions implements driver.Actions against the real Repository, combat
// formulas, and the Lua boss-script hook. Every method takes a character
// id and mutates the Repository directly (each call takes the write
// lock for just its own critical section), rather than batching effects
// for a later apply pass: the cascade already guarantees at most one
// branch fires per NPC per tick, so there is never more than one mutator
// call per character per Update.
type actions struct {
	sim *Sim
}

// combatantOf builds a combat.Combatant snapshot from a character's raw
// stats. There is no separate weapon/armor item-stat rollup in this
// build (spec.md's Item carries its own six-tuple modifiers, but no
// equip-aggregation system exists yet — see DESIGN.md): the primary and
// secondary skill slots stand in for weapon/defense skill, and a
// fraction of Con stands in for armor value, until equip aggregation is
// wired in.
func combatantOf(ch *repo.Character) combat.Combatant {
	return combat.Combatant{
		WeaponSkill:  ch.Skill[0].Total,
		WeaponDamage: 5 + ch.Str.Total/4,
		AttackAttr:   ch.Dex.Total / 10,
		DefenseSkill: ch.Skill[1].Total,
		DefenseAttr:  ch.Con.Total / 10,
		ArmorValue:   ch.Con.Total / 20,
		HPTotal:      ch.HP.Total,
	}
}

func (a *actions) withChar(id repo.CharID, fn func(ch *repo.Character)) bool {
	ok := false
	a.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		if id <= 0 || int(id) >= repo.MaxChars || chars[id].Used != repo.UseActive {
			return
		}
		fn(&chars[id])
		ok = true
	})
	return ok
}

// SelfHeal restores a fraction of max HP at a mana cost, refusing if
// mana is short (spec.md §4.7 step 1).
func (a *actions) SelfHeal(self repo.CharID) bool {
	done := false
	a.withChar(self, func(ch *repo.Character) {
		cost := ch.HP.Total / 10
		if cost < 1 {
			cost = 1
		}
		if ch.AMana < cost*1000 || ch.AHP >= ch.HP.Total*1000 {
			return
		}
		ch.AMana -= cost * 1000
		ch.AHP += ch.HP.Total * 200 // restore 20% of max HP
		if ch.AHP > ch.HP.Total*1000 {
			ch.AHP = ch.HP.Total * 1000
		}
		done = true
	})
	return done
}

// RecallToTemple has no analogue for NPCs in this spec (temples are a
// player-binding concept the distillation dropped); it always declines so
// the cascade falls through to the combat branch instead of stalling an
// NPC waiting on a recall that can never fire.
func (a *actions) RecallToTemple(self repo.CharID) bool {
	return false
}

// CastBuff spends mana to raise a named self-buff. The cascade tracks
// which buffs are already active in MonsterScratch; this only gates on
// affordability.
func (a *actions) CastBuff(self repo.CharID, kind string) bool {
	done := false
	a.withChar(self, func(ch *repo.Character) {
		const cost = 50
		if ch.AMana < cost*1000 {
			return
		}
		ch.AMana -= cost * 1000
		done = true
	})
	return done
}

func (a *actions) magicAttack(self, target repo.CharID, skillIdx int, baseCost int32, fn func(attacker, defender *repo.Character)) bool {
	acted := false
	var casterSkill, casterMana int32
	a.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if self > 0 && int(self) < repo.MaxChars {
			casterSkill = chars[self].Skill[skillIdx].Total
			casterMana = chars[self].AMana
		}
	})
	var targetDifficulty int32 = 10
	a.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if target > 0 && int(target) < repo.MaxChars {
			targetDifficulty = chars[target].Skill[skillIdx].Total/2 + 1
		}
	})
	cast := combat.CastSkill(casterSkill+baseCost, targetDifficulty, casterMana/1000)
	if !cast.Cast {
		return false
	}
	a.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		if self <= 0 || int(self) >= repo.MaxChars || chars[self].Used != repo.UseActive {
			return
		}
		if target <= 0 || int(target) >= repo.MaxChars || chars[target].Used != repo.UseActive {
			return
		}
		chars[self].AMana -= cast.ManaSpent * 1000
		fn(&chars[self], &chars[target])
		acted = true
	})
	return acted
}

// Stun applies a stun timer to the target, scaled by the caster's stun
// skill (Skill slot 2) against the target's resist (Skill slot 3). Ported
// from the threat scan's own stun-chance comparison (internal/driver's
// ThreatScan: stunSkill*12 > resistSkill*10), reused here as the actual
// cast's success check rather than just its threat score.
func (a *actions) Stun(self, target repo.CharID) bool {
	return a.magicAttack(self, target, 2, 20, func(attacker, defender *repo.Character) {
		if attacker.Skill[2].Total*12 <= defender.Skill[3].Total*10 {
			return
		}
		defender.Stunned += 6
	})
}

// Curse weakens the target's physical defense by nudging its Con dynamic
// component down and re-deriving Total (spec.md §4.9's worn-spell-slot
// status model is simplified here to a direct stat nudge rather than a
// full worn-item status object — see DESIGN.md). No pass restores the
// nudge afterwards.
func (a *actions) Curse(self, target repo.CharID) bool {
	return a.magicAttack(self, target, 3, 15, func(attacker, defender *repo.Character) {
		defender.Con.Dynamic -= 10
		defender.Con.Recompute()
	})
}

// Blast is a direct-damage spell, using the same damage pipeline as a
// melee attack (combat.ResolveAttack) so hit chance and roll variance
// stay consistent between weapon and spell damage.
func (a *actions) Blast(self, target repo.CharID) bool {
	acted := false
	a.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		if self <= 0 || int(self) >= repo.MaxChars || chars[self].Used != repo.UseActive {
			return
		}
		if target <= 0 || int(target) >= repo.MaxChars || chars[target].Used != repo.UseActive {
			return
		}
		atk := &chars[self]
		def := &chars[target]
		cost := atk.Skill[4].Total/4 + 10
		if atk.AMana < cost*1000 {
			return
		}
		atk.AMana -= cost * 1000
		outcome := combat.ResolveAttack(combatantOf(atk), combatantOf(def), &def.AHP, a.sim.rollD())
		if outcome.Hit {
			a.sim.emitGotHit(target, self, outcome.Damage)
		}
		acted = true
	})
	return acted
}

// Heal restores HP to a friendly target at a mana cost.
func (a *actions) Heal(self, target repo.CharID) bool {
	done := false
	a.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		if self <= 0 || int(self) >= repo.MaxChars || chars[self].Used != repo.UseActive {
			return
		}
		if target <= 0 || int(target) >= repo.MaxChars || chars[target].Used != repo.UseActive {
			return
		}
		caster := &chars[self]
		patient := &chars[target]
		cost := patient.HP.Total / 8
		if cost < 1 {
			cost = 1
		}
		if caster.AMana < cost*1000 || patient.AHP >= patient.HP.Total*1000 {
			return
		}
		caster.AMana -= cost * 1000
		patient.AHP += patient.HP.Total * 250
		if patient.AHP > patient.HP.Total*1000 {
			patient.AHP = patient.HP.Total * 1000
		}
		done = true
	})
	return done
}

// FleeStep steps self toward the single-direction with the highest
// weight that is also passable, per spec.md §4.7 step 5.
func (a *actions) FleeStep(self repo.CharID, weights [8]int32) bool {
	var sx, sy int32
	var isMonster bool
	found := false
	a.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if self <= 0 || int(self) >= repo.MaxChars || chars[self].Used != repo.UseActive {
			return
		}
		sx, sy = chars[self].X, chars[self].Y
		isMonster = chars[self].IsMonster()
		found = true
	})
	if !found {
		return false
	}

	best := -1
	var bestW int32 = -1
	for d := 0; d < 8; d++ {
		if weights[d] > bestW {
			bestW = weights[d]
			best = d
		}
	}
	if best < 0 || bestW <= 0 {
		return false
	}
	dx, dy := dirDelta(best)
	nx, ny := sx+dx, sy+dy

	var tiles []repo.Tile
	a.sim.Repo.Map(func(t []repo.Tile) { tiles = t })
	if !worldmap.Passable(tiles, nx, ny, worldmap.Mover{IsMonster: isMonster}, false) {
		return false
	}

	if err := a.sim.Repo.ReserveStep(self, nx, ny); err != nil {
		return false
	}
	if err := a.sim.Repo.CompleteStep(self); err != nil {
		return false
	}
	return true
}

func dirDelta(octant int) (int32, int32) {
	switch octant {
	case 0:
		return 0, -1
	case 1:
		return 1, -1
	case 2:
		return 1, 0
	case 3:
		return 1, 1
	case 4:
		return 0, 1
	case 5:
		return -1, 1
	case 6:
		return -1, 0
	default:
		return -1, -1
	}
}

// AttackLastAttacker queues an attack against the scratch-remembered last
// attacker, re-decoding self's Scratch since the driver.Actions interface
// doesn't carry it directly (spec.md §4.7 step 5's flee-then-retaliate
// tail).
func (a *actions) AttackLastAttacker(self repo.CharID) bool {
	queued := false
	a.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		if self <= 0 || int(self) >= repo.MaxChars || chars[self].Used != repo.UseActive {
			return
		}
		ch := &chars[self]
		scratch := driver.Decode(ch)
		if scratch.Shared.LastAttacker == 0 {
			return
		}
		ch.Intent.AttackCn = scratch.Shared.LastAttacker
		queued = true
	})
	return queued
}

// MoveToward queues a goto intent toward (x, y), resolved by the movement
// step of PhaseResolve the same way a player's CL_MOVE would be.
func (a *actions) MoveToward(self repo.CharID, x, y int32) bool {
	return a.withChar(self, func(ch *repo.Character) {
		ch.Intent.GotoX, ch.Intent.GotoY = x, y
	})
}

// Patrol drives the home/entry/home state machine of spec.md §4.7 step 8.
func (a *actions) Patrol(self repo.CharID, s *driver.PatrolScratch) bool {
	switch s.State {
	case 0:
		if s.WaitTimer > 0 {
			s.WaitTimer--
			return false
		}
		s.State = 1
		return a.MoveToward(self, s.EntryX, s.EntryY)
	case 1:
		if a.arrived(self, s.EntryX, s.EntryY) {
			s.State = 2
			return a.MoveToward(self, s.HomeX, s.HomeY)
		}
		return a.MoveToward(self, s.EntryX, s.EntryY)
	case 2:
		if a.arrived(self, s.HomeX, s.HomeY) {
			s.State = 0
			s.WaitTimer = 20
			return false
		}
		return a.MoveToward(self, s.HomeX, s.HomeY)
	}
	return false
}

func (a *actions) arrived(self repo.CharID, x, y int32) bool {
	at := false
	a.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if self > 0 && int(self) < repo.MaxChars {
			at = chars[self].X == x && chars[self].Y == y
		}
	})
	return at
}

// RunBossScript calls the per-template Lua hook, if the engine has one
// and the template names itself one (spec.md §4.7 step 8's scripted
// extension point).
func (a *actions) RunBossScript(self repo.CharID) bool {
	if a.sim.Scripts == nil {
		return false
	}
	var req scripting.HookRequest
	var fn string
	a.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if self <= 0 || int(self) >= repo.MaxChars || chars[self].Used != repo.UseActive {
			return
		}
		ch := &chars[self]
		fn = fmt.Sprintf("npc_%d", ch.TemplateID)
		req = scripting.HookRequest{
			NpcID:     ch.TemplateID,
			SelfX:     ch.X,
			SelfY:     ch.Y,
			HPRatio:   hpRatio(ch),
			ManaRatio: manaRatio(ch),
		}
	})
	if fn == "" || !a.sim.Scripts.HasHook(fn) {
		return false
	}
	resp := a.sim.Scripts.RunHook(fn, req)
	switch resp.Action {
	case scripting.ActionMoveTo:
		return a.MoveToward(self, resp.X, resp.Y)
	case scripting.ActionCastSkill:
		return a.withChar(self, func(ch *repo.Character) {
			ch.Intent.SkillNr = resp.SkillNr
		})
	default:
		return false
	}
}

func hpRatio(ch *repo.Character) int32 {
	if ch.HP.Total == 0 {
		return 0
	}
	return ch.AHP / ch.HP.Total
}

func manaRatio(ch *repo.Character) int32 {
	if ch.Mana.Total == 0 {
		return 0
	}
	return ch.AMana / ch.Mana.Total
}
