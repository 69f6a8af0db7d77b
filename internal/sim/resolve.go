package sim

import (
	"time"

	"github.com/originrealm/worldserver/internal/combat"
	"github.com/originrealm/worldserver/internal/direction"
	"github.com/originrealm/worldserver/internal/pathfind"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/tick"
	"github.com/originrealm/worldserver/internal/worldmap"
)

// ResolveSystem consumes each character's pending Intent in priority order
// use_nr -> skill_nr -> goto -> attack_cn -> misc_action (spec.md §4.8 step
// 4). Use, skill and misc intents are cleared once acted on and goto is
// cleared on arrival or failure; attack_cn is left set as a standing
// order, so the attack is resolved again on later ticks.
type ResolveSystem struct {
	sim *Sim
}

func NewResolveSystem(s *Sim) *ResolveSystem {
	return &ResolveSystem{sim: s}
}

func (rs *ResolveSystem) Phase() tick.Phase { return tick.PhaseResolve }

func (rs *ResolveSystem) Update(dt time.Duration) {
	var ids []repo.CharID
	rs.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		for id := repo.CharID(1); int(id) < repo.MaxChars; id++ {
			ch := &chars[id]
			if ch.Used != repo.UseActive {
				continue
			}
			if ch.Intent.UseNr != 0 || ch.Intent.SkillNr != 0 || ch.Intent.GotoX != 0 || ch.Intent.GotoY != 0 || ch.Intent.AttackCn != 0 || ch.Intent.MiscAction != 0 {
				ids = append(ids, id)
			}
		}
	})

	for _, id := range ids {
		switch {
		case rs.resolveUse(id):
		case rs.resolveSkill(id):
		case rs.resolveGoto(id):
		case rs.resolveAttack(id):
		case rs.resolveMisc(id):
		}
	}
}

// resolveUse implements item-use intents minimally: it consumes the
// intent and reports whether the slot held an item. No item kind's
// on-use effect is applied here or handed to another pass (see
// DESIGN.md).
func (rs *ResolveSystem) resolveUse(id repo.CharID) bool {
	acted := false
	rs.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		ch := &chars[id]
		if ch.Intent.UseNr == 0 {
			return
		}
		slot := ch.Intent.UseNr - 1
		if slot >= 0 && int(slot) < len(ch.Carried) && ch.Carried[slot] != 0 {
			acted = true
		}
		ch.Intent.UseNr = 0
		ch.Intent.MiscTarget1 = 0
	})
	return acted
}

// resolveSkill casts a caster-targeted skill directly through the combat
// package's CastSkill/ResolveAttack building blocks (spec.md §4.9).
func (rs *ResolveSystem) resolveSkill(id repo.CharID) bool {
	acted := false
	rs.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		ch := &chars[id]
		nr := ch.Intent.SkillNr
		target := ch.Intent.SkillTarget1
		ch.Intent.SkillNr = 0
		ch.Intent.SkillTarget1 = 0
		ch.Intent.SkillTarget2 = 0
		if nr == 0 {
			return
		}
		if target <= 0 || int(target) >= repo.MaxChars || chars[target].Used != repo.UseActive {
			return
		}
		caster := ch
		defender := &chars[target]
		idx := int(nr)
		if idx < 0 || idx >= len(caster.Skill) {
			return
		}
		if id != target && rs.sim.ZoneTable != nil && rs.sim.ZoneTable.IsSafetyZone(defender.X, defender.Y) {
			return
		}
		cast := combat.CastSkill(caster.Skill[idx].Total, defender.Skill[idx].Total/2+1, caster.AMana/1000)
		if !cast.Cast {
			return
		}
		caster.AMana -= cast.ManaSpent * 1000
		outcome := combat.ResolveAttack(combatantOf(caster), combatantOf(defender), &defender.AHP, rs.sim.rollD())
		if outcome.Hit {
			rs.sim.emitGotHit(target, id, outcome.Damage)
		}
		acted = true
	})
	return acted
}

// resolveGoto steps a character one tile toward its queued destination via
// A* (spec.md §4.4, §4.8 step 4, scenario S1).
func (rs *ResolveSystem) resolveGoto(id repo.CharID) bool {
	var gx, gy int32
	var sx, sy int32
	var facing direction.Direction
	var isMonster, isUsurp bool
	ok := false
	rs.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		ch := &chars[id]
		gx, gy = ch.Intent.GotoX, ch.Intent.GotoY
		if gx == 0 && gy == 0 {
			return
		}
		sx, sy = ch.X, ch.Y
		facing = direction.Direction(ch.Dir)
		isMonster = ch.IsMonster()
		isUsurp = ch.IsUsurpOrThrall()
		ok = true
	})
	if !ok {
		return false
	}
	if sx == gx && sy == gy {
		rs.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
			chars[id].Intent.GotoX, chars[id].Intent.GotoY = 0, 0
		})
		return false
	}

	var tiles []repo.Tile
	rs.sim.Repo.Map(func(t []repo.Tile) { tiles = t })
	passable := pathfind.PassableFromRepo(tiles, nil, isMonster, isUsurp)

	req := pathfind.Request{
		StartX: sx, StartY: sy, StartFacing: facing,
		GoalX: gx, GoalY: gy, Mode: pathfind.ModeExact,
	}
	res := pathfind.Search(req, passable)
	if !res.Found || res.FirstStep == direction.None {
		rs.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
			chars[id].Intent.GotoX, chars[id].Intent.GotoY = 0, 0
		})
		return false
	}

	dx, dy := res.FirstStep.Delta()
	nx, ny := sx+dx, sy+dy
	if !worldmap.Passable(tiles, nx, ny, worldmap.Mover{IsMonster: isMonster, IsUsurpLike: isUsurp}, false) {
		return false
	}
	if err := rs.sim.Repo.ReserveStep(id, nx, ny); err != nil {
		return false
	}
	if err := rs.sim.Repo.CompleteStep(id); err != nil {
		return false
	}
	rs.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Dir = uint8(res.FirstStep)
		if chars[id].X == gx && chars[id].Y == gy {
			chars[id].Intent.GotoX, chars[id].Intent.GotoY = 0, 0
		}
	})
	return true
}

// resolveAttack executes a melee swing against Intent.AttackCn (spec.md
// §4.9).
func (rs *ResolveSystem) resolveAttack(id repo.CharID) bool {
	acted := false
	rs.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		ch := &chars[id]
		target := ch.Intent.AttackCn
		if target <= 0 || int(target) >= repo.MaxChars || chars[target].Used != repo.UseActive || target == id {
			return
		}
		defender := &chars[target]
		dist := chebyshev(ch.X, ch.Y, defender.X, defender.Y)
		if dist > 1 {
			return
		}
		if rs.sim.ZoneTable != nil && rs.sim.ZoneTable.IsSafetyZone(defender.X, defender.Y) {
			return
		}
		outcome := combat.ResolveAttack(combatantOf(ch), combatantOf(defender), &defender.AHP, rs.sim.rollD())
		if outcome.Hit {
			rs.sim.emitGotHit(target, id, outcome.Damage)
		}
		acted = true
	})
	return acted
}

func (rs *ResolveSystem) resolveMisc(id repo.CharID) bool {
	acted := false
	rs.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		ch := &chars[id]
		if ch.Intent.MiscAction == 0 {
			return
		}
		ch.Intent.MiscAction = 0
		ch.Intent.MiscTarget1 = 0
		ch.Intent.MiscTarget2 = 0
		acted = true
	})
	return acted
}
