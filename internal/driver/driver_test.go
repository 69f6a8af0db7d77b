package driver

import (
	"testing"

	"github.com/originrealm/worldserver/internal/repo"
)

func TestScratchRoundTripMonster(t *testing.T) {
	var ch repo.Character
	want := Scratch{
		Kind: KindMonster,
		Shared: Shared{
			Seen:          [20]repo.CharID{1, 2, 3},
			LastAttacker:  7,
			RecentlyHitMe: [5]repo.CharID{9, 0, 0, 0, 11},
		},
		Monster: MonsterScratch{
			Team:            4,
			SelfHealReady:   true,
			ProtectActive:   true,
			LagControlTicks: 600,
		},
	}
	Encode(&ch, want)
	got := Decode(&ch)
	if got != want {
		t.Fatalf("round-trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

type stubWorld struct {
	teams   map[repo.CharID]int32
	dists   map[repo.CharID]int32
	hpRatio map[repo.CharID]int32
}

func (w stubWorld) World() World {
	return World{
		Team:          func(c repo.CharID) int32 { return w.teams[c] },
		Dist:          func(a, b repo.CharID) int32 { return w.dists[b] },
		IsStunned:     func(repo.CharID) bool { return false },
		StunSkill:     func(repo.CharID) int32 { return 100 },
		ResistSkill:   func(repo.CharID) int32 { return 10 },
		HPRatio1000:   func(c repo.CharID) int32 { return w.hpRatio[c] },
		ManaRatio1000: func(repo.CharID) int32 { return 1000 },
		IsSane:        func(c repo.CharID) bool { return c != 0 },
	}
}

func TestThreatScanEnemyRaisesFleeAndStun(t *testing.T) {
	w := stubWorld{
		teams:   map[repo.CharID]int32{1: 0, 2: 1}, // self on team 0, enemy on team 1
		dists:   map[repo.CharID]int32{2: 1},
		hpRatio: map[repo.CharID]int32{},
	}
	sh := Shared{Seen: [20]repo.CharID{2}}
	res := ThreatScan(1, sh, w.World())
	if res.Flee != 4 {
		t.Fatalf("expected flee score 4 (dist<6,+<4,+<2x2), got %d", res.Flee)
	}
	if res.Stun <= 0 {
		t.Fatalf("expected a positive stun score against an unstunned enemy, got %d", res.Stun)
	}
	if res.Dominant() != ActionFlee {
		t.Fatalf("expected flee to dominate at point-blank range, got %v", res.Dominant())
	}
}

func TestThreatScanFriendLowHPRaisesHelp(t *testing.T) {
	w := stubWorld{
		teams:   map[repo.CharID]int32{1: 0, 3: 0},
		dists:   map[repo.CharID]int32{3: 5},
		hpRatio: map[repo.CharID]int32{3: 100}, // well under the 400/1000 threshold
	}
	sh := Shared{Seen: [20]repo.CharID{3}}
	res := ThreatScan(1, sh, w.World())
	if res.Help != 1 {
		t.Fatalf("expected help score 1 for a friend below 40%% HP, got %d", res.Help)
	}
}

func TestThreatScanLowManaDampensStunAndHelp(t *testing.T) {
	w := World{
		Team: func(repo.CharID) int32 { return 0 }, Dist: func(a, b repo.CharID) int32 { return 10 },
		IsStunned: func(repo.CharID) bool { return false }, StunSkill: func(repo.CharID) int32 { return 1 },
		ResistSkill: func(repo.CharID) int32 { return 100 }, HPRatio1000: func(repo.CharID) int32 { return 1000 },
		ManaRatio1000: func(repo.CharID) int32 { return 50 }, IsSane: func(c repo.CharID) bool { return c != 0 },
	}
	res := ThreatScan(1, Shared{}, w)
	if res.Stun != -3 || res.Help != -3 || res.Flee != 1 {
		t.Fatalf("expected low-mana penalty (stun-3,help-3,flee+1), got flee=%d help=%d stun=%d", res.Flee, res.Help, res.Stun)
	}
}

type recordingActions struct {
	called string
}

func (r *recordingActions) SelfHeal(repo.CharID) bool             { r.called = "selfheal"; return true }
func (r *recordingActions) RecallToTemple(repo.CharID) bool       { return false }
func (r *recordingActions) CastBuff(repo.CharID, string) bool     { return false }
func (r *recordingActions) Stun(_, _ repo.CharID) bool            { return false }
func (r *recordingActions) Curse(_, _ repo.CharID) bool           { return false }
func (r *recordingActions) Blast(_, _ repo.CharID) bool           { return false }
func (r *recordingActions) Heal(_, _ repo.CharID) bool            { return false }
func (r *recordingActions) FleeStep(repo.CharID, [8]int32) bool   { return false }
func (r *recordingActions) AttackLastAttacker(repo.CharID) bool   { return false }
func (r *recordingActions) MoveToward(repo.CharID, int32, int32) bool { return false }
func (r *recordingActions) Patrol(repo.CharID, *PatrolScratch) bool   { return false }
func (r *recordingActions) RunBossScript(repo.CharID) bool            { return false }

func TestCascadePreemptsOnSelfPreservation(t *testing.T) {
	act := &recordingActions{}
	snap := Snapshot{Self: 1, HPRatio1000: 200, ManaRatio1000: 1000}
	Run(Scratch{}, snap, act)
	if act.called != "selfheal" {
		t.Fatalf("expected low HP to trigger self-heal before any later branch, got %q", act.called)
	}
}
