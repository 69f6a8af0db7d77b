package driver

import "github.com/originrealm/worldserver/internal/repo"

// Seen is one scored observation, ported from
// original_source/server/src/driver_special.rs's `Seen{co,dist,is_friend,
// stun,help}`.
type Seen struct {
	CharID   repo.CharID
	Dist     int32
	IsFriend bool
	Stun     int32
	Help     int32
}

// World is the read-only view ThreatScan needs of other characters; it
// isolates this package from repo locking so callers can pass a snapshot
// taken once per tick.
type World struct {
	Team        func(repo.CharID) int32
	Dist        func(a, b repo.CharID) int32
	IsStunned   func(repo.CharID) bool
	StunSkill   func(self repo.CharID) int32
	ResistSkill func(target repo.CharID) int32
	HPRatio1000 func(repo.CharID) int32 // a_hp*1000/hp_total, for the 40% HP help threshold
	ManaRatio1000 func(repo.CharID) int32
	IsSane      func(repo.CharID) bool
}

// ThreatScanResult holds the aggregate scores driving cascade steps 4-7.
type ThreatScanResult struct {
	Seen []Seen
	Flee int32
	Help int32
	Stun int32
}

// ThreatScan ports npc_stunrun_high's scan/scoring loop (spec.md §4.7 step
// 4) against self's Shared scratch (seen list, recently-hit-me, last
// attacker).
func ThreatScan(self repo.CharID, sh Shared, w World) ThreatScanResult {
	var res ThreatScanResult
	selfTeam := w.Team(self)

	index := func(co repo.CharID) int {
		for i := range res.Seen {
			if res.Seen[i].CharID == co {
				return i
			}
		}
		return -1
	}

	for _, co := range sh.Seen {
		if co == 0 || !w.IsSane(co) {
			continue
		}
		if w.Team(co) == selfTeam {
			s := Seen{CharID: co, Dist: w.Dist(self, co), IsFriend: true}
			if w.HPRatio1000(co) < 400 {
				s.Help = 1
			}
			if s.Help > res.Help {
				res.Help = s.Help
			}
			res.Seen = append(res.Seen, s)
			continue
		}
		s := Seen{CharID: co, Dist: w.Dist(self, co), IsFriend: false}
		if !w.IsStunned(co) && w.StunSkill(self)*12 > w.ResistSkill(co)*10 {
			s.Stun = 1
		}
		if s.Stun > res.Stun {
			res.Stun = s.Stun
		}
		if s.Dist < 6 {
			res.Flee++
		}
		if s.Dist < 4 {
			res.Flee++
		}
		if s.Dist < 2 {
			res.Flee += 2
		}
		res.Seen = append(res.Seen, s)
	}

	for _, co := range sh.RecentlyHitMe {
		if co == 0 || !w.IsSane(co) {
			continue
		}
		i := index(co)
		if i < 0 {
			continue
		}
		if w.Team(co) == selfTeam {
			res.Seen[i].Help++
			if res.Seen[i].Help > res.Help {
				res.Help = res.Seen[i].Help
			}
		} else {
			if res.Seen[i].Stun != 0 {
				res.Seen[i].Stun += 2
			}
			if res.Seen[i].Stun > res.Stun {
				res.Stun = res.Seen[i].Stun
			}
		}
	}

	if co := sh.LastAttacker; co != 0 && w.IsSane(co) {
		res.Flee += 5
		i := index(co)
		if i >= 0 {
			if res.Seen[i].Stun != 0 {
				res.Seen[i].Stun += 5
			} else {
				res.Flee += 2
			}
			if res.Seen[i].Stun > res.Stun {
				res.Stun = res.Seen[i].Stun
			}
		} else {
			s := Seen{CharID: co, Dist: w.Dist(self, co), IsFriend: false}
			if w.StunSkill(self)*12 > w.ResistSkill(co)*10 {
				s.Stun = 1
			}
			if s.Stun != 0 {
				s.Stun += 5
			} else {
				res.Flee += 2
			}
			if s.Stun > res.Stun {
				res.Stun = s.Stun
			}
			res.Seen = append(res.Seen, s)
		}
	}

	if w.ManaRatio1000(self) < 125 {
		res.Stun -= 3
		res.Help -= 3
		res.Flee++
	}

	return res
}

// Dominant picks up to which of flee/help/stun dominates, matching
// spec.md §4.7 step 4's "pick the dominant action". Ties favor flee over
// help over stun, since self-preservation precedes aiding others in the
// cascade's own ordering (step 1 already handles the acute case; this is
// the tie-break for the ambient scan).
type Action int

const (
	ActionNone Action = iota
	ActionFlee
	ActionHelp
	ActionStun
)

func (r ThreatScanResult) Dominant() Action {
	switch {
	case r.Flee <= 0 && r.Help <= 0 && r.Stun <= 0:
		return ActionNone
	case r.Flee >= r.Help && r.Flee >= r.Stun:
		return ActionFlee
	case r.Help >= r.Stun:
		return ActionHelp
	default:
		return ActionStun
	}
}
