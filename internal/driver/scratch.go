// Package driver implements the NPC priority-cascade dispatch of spec.md
// §4.7 and the threat-scoring formula ported from
// original_source/server/src/driver_special.rs::npc_stunrun_high.
package driver

import "github.com/originrealm/worldserver/internal/repo"

// Kind selects which scratch variant is active in a character's raw
// Data[100]int32 array. Per spec.md §9 ("do NOT introduce per-driver
// subclasses/inheritance; represent driver state as a tagged variant
// where one variant per driver carries only the fields it needs"), Kind
// plus one struct field per driver is the tagged-variant encoding: unused
// variants stay zero value and are never read.
type Kind int32

const (
	KindNone Kind = iota
	KindGuard
	KindMonster
	KindPatrol
)

// GuardScratch is the Guard driver's view of Data[0..100]: nothing beyond
// the shared seen-list/attacker-memory fields every variant uses (see
// Shared below), so it carries no extra fields of its own.
type GuardScratch struct{}

// MonsterScratch is the Monster driver's extra state: team id and the
// self-buff/ability-ready flags the cascade's buff step consults.
type MonsterScratch struct {
	Team           int32
	SelfHealReady  bool
	ProtectActive  bool
	EnhanceActive  bool
	BlessActive    bool
	MagicShieldOn  bool
	LagControlTicks int32
}

// PatrolScratch is the Patrol driver's state machine (spec.md §4.7 step
// 8): 0 idle at home, 1 moving to entry, 2 returning home.
type PatrolScratch struct {
	State        int32
	HomeX, HomeY int32
	EntryX, EntryY int32
	WaitTimer    int32
}

// Shared is the portion of Data every driver variant reads regardless of
// Kind: the 20-slot seen list, the 5-slot "recently hit me" list, and the
// last-attacker slot (driver_special.rs scans data[0..20], data[30..35],
// data[20]).
type Shared struct {
	Seen          [20]repo.CharID // data[0..20)
	LastAttacker  repo.CharID     // data[20]
	RecentlyHitMe [5]repo.CharID  // data[30..35)
}

// Scratch is the full tagged-variant scratch state for one NPC, decoded
// from / encoded to repo.Character.Data.
type Scratch struct {
	Kind    Kind
	Shared  Shared
	Guard   GuardScratch
	Monster MonsterScratch
	Patrol  PatrolScratch
}

// Decode reads a Scratch out of a character's raw Data array. The layout
// is: data[0..20) seen list, data[20] last attacker, data[30..35)
// recently-hit-me, data[42] team id, data[90] kind tag, data[91..] kind-
// specific fields. This is an internal contract of this package only; the
// wire protocol never exposes Data (spec.md §9).
func Decode(ch *repo.Character) Scratch {
	var s Scratch
	for i := 0; i < 20; i++ {
		s.Shared.Seen[i] = repo.CharID(ch.Data[i])
	}
	s.Shared.LastAttacker = repo.CharID(ch.Data[20])
	for i := 0; i < 5; i++ {
		s.Shared.RecentlyHitMe[i] = repo.CharID(ch.Data[30+i])
	}
	s.Kind = Kind(ch.Data[90])
	switch s.Kind {
	case KindMonster:
		s.Monster = MonsterScratch{
			Team:            ch.Data[42],
			SelfHealReady:   ch.Data[91] != 0,
			ProtectActive:   ch.Data[92] != 0,
			EnhanceActive:   ch.Data[93] != 0,
			BlessActive:     ch.Data[94] != 0,
			MagicShieldOn:   ch.Data[95] != 0,
			LagControlTicks: ch.Data[96],
		}
	case KindPatrol:
		s.Patrol = PatrolScratch{
			State:  ch.Data[91],
			HomeX:  ch.Data[92],
			HomeY:  ch.Data[93],
			EntryX: ch.Data[94],
			EntryY: ch.Data[95],
			WaitTimer: ch.Data[96],
		}
	}
	return s
}

// Encode writes s back into the character's raw Data array.
func Encode(ch *repo.Character, s Scratch) {
	for i := 0; i < 20; i++ {
		ch.Data[i] = int32(s.Shared.Seen[i])
	}
	ch.Data[20] = int32(s.Shared.LastAttacker)
	for i := 0; i < 5; i++ {
		ch.Data[30+i] = int32(s.Shared.RecentlyHitMe[i])
	}
	ch.Data[90] = int32(s.Kind)
	switch s.Kind {
	case KindMonster:
		ch.Data[42] = s.Monster.Team
		ch.Data[96] = s.Monster.LagControlTicks
		ch.Data[91] = boolInt(s.Monster.SelfHealReady)
		ch.Data[92] = boolInt(s.Monster.ProtectActive)
		ch.Data[93] = boolInt(s.Monster.EnhanceActive)
		ch.Data[94] = boolInt(s.Monster.BlessActive)
		ch.Data[95] = boolInt(s.Monster.MagicShieldOn)
	case KindPatrol:
		ch.Data[91] = s.Patrol.State
		ch.Data[92] = s.Patrol.HomeX
		ch.Data[93] = s.Patrol.HomeY
		ch.Data[94] = s.Patrol.EntryX
		ch.Data[95] = s.Patrol.EntryY
		ch.Data[96] = s.Patrol.WaitTimer
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
