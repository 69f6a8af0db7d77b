package driver

import "github.com/originrealm/worldserver/internal/repo"

// Actions is the set of effects the cascade can request. Implementations
// live in internal/combat and internal/tick; this package only decides
// what to do, never how an attack or heal actually resolves, so driver
// stays free of combat-formula knowledge.
type Actions interface {
	SelfHeal(self repo.CharID) bool
	RecallToTemple(self repo.CharID) bool
	CastBuff(self repo.CharID, kind string) bool
	Stun(self, target repo.CharID) bool
	Curse(self, target repo.CharID) bool
	Blast(self, target repo.CharID) bool
	Heal(self, target repo.CharID) bool
	FleeStep(self repo.CharID, weights [8]int32) bool
	AttackLastAttacker(self repo.CharID) bool
	MoveToward(self repo.CharID, x, y int32) bool
	Patrol(self repo.CharID, s *PatrolScratch) bool

	// RunBossScript invokes a template's Lua boss-script hook, if it has
	// one (internal/scripting), at the cascade's patrol/idle tail
	// (spec.md §4.7). Returns false if the template has no script or the
	// script declined to act, falling through to the built-in Patrol.
	RunBossScript(self repo.CharID) bool
}

// Snapshot is the minimal per-tick character state the cascade reads,
// kept separate from repo.Character so callers can populate it from a
// locked read pass without holding the lock across the whole cascade.
type Snapshot struct {
	Self       repo.CharID
	HPRatio1000 int32 // a_hp*1000 / hp.total
	ManaRatio1000 int32
	Fighting   repo.CharID // attack_cn of the current target, 0 if none
	TargetVisible bool
	World      World
	FleeableDirs func(self repo.CharID) [8]int32 // per-direction passability/weight, step 5
}

// Run executes the priority cascade for one NPC for one tick (spec.md
// §4.7). Earlier branches preempt later ones: Run returns as soon as a
// branch takes an action.
func Run(s Scratch, snap Snapshot, act Actions) Scratch {
	self := snap.Self

	// 1. Self-preservation.
	if snap.HPRatio1000 < 500 {
		if act.SelfHeal(self) {
			return s
		}
		if act.RecallToTemple(self) {
			return s
		}
	}

	// 2. Buffs, only while mana is plentiful.
	if snap.ManaRatio1000 > 500 {
		if s.Kind == KindMonster {
			if !s.Monster.ProtectActive && act.CastBuff(self, "protect") {
				s.Monster.ProtectActive = true
				return s
			}
			if !s.Monster.EnhanceActive && act.CastBuff(self, "enhance") {
				s.Monster.EnhanceActive = true
				return s
			}
			if !s.Monster.BlessActive && act.CastBuff(self, "bless") {
				s.Monster.BlessActive = true
				return s
			}
			if !s.Monster.MagicShieldOn && act.CastBuff(self, "magicshield") {
				s.Monster.MagicShieldOn = true
				return s
			}
		}
	}

	// 3. Combat against a locked, visible enemy.
	if snap.Fighting != 0 && snap.TargetVisible {
		if act.Stun(self, snap.Fighting) {
			return s
		}
		if act.Curse(self, snap.Fighting) {
			return s
		}
		if act.Blast(self, snap.Fighting) {
			return s
		}
	}

	// 4. Threat scan.
	scan := ThreatScan(self, s.Shared, snap.World)

	switch scan.Dominant() {
	case ActionFlee:
		// 5. Flee.
		var weights [8]int32
		if snap.FleeableDirs != nil {
			weights = snap.FleeableDirs(self)
		}
		if act.FleeStep(self, weights) {
			return s
		}
		if sh := s.Shared.LastAttacker; sh != 0 {
			act.AttackLastAttacker(self)
		}
		return s
	case ActionHelp:
		// 6. Help the friend with the greatest help score.
		target := bestFriend(scan.Seen)
		if target != 0 {
			act.Heal(self, target)
		}
		return s
	case ActionStun:
		// 7. Stun the enemy with the highest stun score.
		target := bestEnemy(scan.Seen)
		if target != 0 {
			act.Stun(self, target)
		}
		return s
	}

	// 8. Boss script, then built-in patrol.
	if act.RunBossScript(self) {
		return s
	}
	if s.Kind == KindPatrol {
		act.Patrol(self, &s.Patrol)
	}
	return s
}

func bestFriend(seen []Seen) repo.CharID {
	var best repo.CharID
	var bestScore int32 = -1
	for _, s := range seen {
		if s.IsFriend && s.Help > bestScore {
			bestScore = s.Help
			best = s.CharID
		}
	}
	return best
}

func bestEnemy(seen []Seen) repo.CharID {
	var best repo.CharID
	var bestScore int32 = -1
	for _, s := range seen {
		if !s.IsFriend && s.Stun > bestScore {
			bestScore = s.Stun
			best = s.CharID
		}
	}
	return best
}
