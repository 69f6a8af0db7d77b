package sim

import (
	"time"

	"github.com/originrealm/worldserver/internal/driver"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/tick"
	"github.com/originrealm/worldserver/internal/visibility"
	"github.com/originrealm/worldserver/internal/worldmap"
)

// factionMask isolates the Kindred bits that define a "team" for threat
// scoring: two characters are friendly iff they share one of these bits
// (spec.md §4.7, Glossary "Kindred").
const factionMask = repo.KinTemplar | repo.KinHarakim | repo.KinMercenary | repo.KinSeyanDu | repo.KinMonster

// npcSnap is the subset of a character's state ThreatScan and the
// visibility sweep need, copied once per tick under a single read lock so
// the cascade itself never has to re-enter the Repository mutex (spec.md
// §4.7 runs once per NPC per tick, after the combat/input phases have
// settled this tick's Intents).
type npcSnap struct {
	id         repo.CharID
	x, y       int32
	team       int32
	isMonster  bool
	used       repo.UseState
	ahp, hpMax int32
	amana, manaMax int32
	stunned    int32
	stunSkill  int32
	resistSkill int32
	fighting   repo.CharID
	npc        bool
}

// DriverSystem runs the NPC priority cascade (internal/driver) for every
// computer-controlled character once per tick (spec.md §4.7, §4.8 step 4).
type DriverSystem struct {
	sim *Sim
	act *actions
}

func NewDriverSystem(s *Sim) *DriverSystem {
	return &DriverSystem{sim: s, act: &actions{sim: s}}
}

func (d *DriverSystem) Phase() tick.Phase { return tick.PhaseDriver }

func (d *DriverSystem) Update(dt time.Duration) {
	var snaps []npcSnap
	d.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		snaps = make([]npcSnap, 0, 256)
		for id := repo.CharID(1); int(id) < repo.MaxChars; id++ {
			ch := &chars[id]
			if ch.Used != repo.UseActive {
				continue
			}
			snaps = append(snaps, npcSnap{
				id:          id,
				x:           ch.X,
				y:           ch.Y,
				team:        int32(ch.Kindred & factionMask),
				isMonster:   ch.IsMonster(),
				used:        ch.Used,
				ahp:         ch.AHP,
				hpMax:       ch.HP.Total,
				amana:       ch.AMana,
				manaMax:     ch.Mana.Total,
				stunned:     ch.Stunned,
				stunSkill:   ch.Skill[2].Total,
				resistSkill: ch.Skill[3].Total,
				fighting:    ch.Intent.AttackCn,
				npc:         ch.Flags&repo.CfPlayer == 0,
			})
		}
	})

	byID := make(map[repo.CharID]*npcSnap, len(snaps))
	for i := range snaps {
		byID[snaps[i].id] = &snaps[i]
	}

	var tiles []repo.Tile
	d.sim.Repo.Map(func(t []repo.Tile) { tiles = t })
	sightBlocked := visibility.SightBlockedFromTiles(tiles)

	world := driver.World{
		Team: func(id repo.CharID) int32 {
			if s, ok := byID[id]; ok {
				return s.team
			}
			return 0
		},
		Dist: func(a, b repo.CharID) int32 {
			sa, oka := byID[a]
			sb, okb := byID[b]
			if !oka || !okb {
				return 1 << 30
			}
			return chebyshev(sa.x, sa.y, sb.x, sb.y)
		},
		IsStunned: func(id repo.CharID) bool {
			if s, ok := byID[id]; ok {
				return s.stunned > 0
			}
			return false
		},
		StunSkill: func(id repo.CharID) int32 {
			if s, ok := byID[id]; ok {
				return s.stunSkill
			}
			return 0
		},
		ResistSkill: func(id repo.CharID) int32 {
			if s, ok := byID[id]; ok {
				return s.resistSkill
			}
			return 0
		},
		HPRatio1000: func(id repo.CharID) int32 {
			s, ok := byID[id]
			if !ok || s.hpMax == 0 {
				return 1000
			}
			return s.ahp / s.hpMax
		},
		ManaRatio1000: func(id repo.CharID) int32 {
			s, ok := byID[id]
			if !ok || s.manaMax == 0 {
				return 1000
			}
			return s.amana / s.manaMax
		},
		IsSane: func(id repo.CharID) bool {
			s, ok := byID[id]
			return ok && s.used == repo.UseActive
		},
	}

	for i := range snaps {
		self := &snaps[i]
		if !self.npc {
			continue
		}

		seeMap := d.sim.seeMapFor(self.id)
		visibility.Recompute(seeMap, self.x, self.y, sightBlocked)

		var shared driver.Shared
		seenCount := 0
		for j := range snaps {
			if seenCount >= 20 {
				break
			}
			other := &snaps[j]
			if other.id == self.id {
				continue
			}
			if chebyshev(self.x, self.y, other.x, other.y) > visibility.MaxLight {
				continue
			}
			if !visibility.CanSee(seeMap, tiles, other.x, other.y, 0, &d.sim.VisStats) {
				continue
			}
			shared.Seen[seenCount] = other.id
			seenCount++
		}

		var ch repo.Character
		d.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
			ch = chars[self.id]
		})
		scratch := driver.Decode(&ch)
		scratch.Shared.Seen = shared.Seen

		fightingVisible := self.fighting != 0 && visibility.CanSee(seeMap, tiles, byID[self.fighting].safeX(), byID[self.fighting].safeY(), 0, &d.sim.VisStats)

		snap := driver.Snapshot{
			Self:          self.id,
			HPRatio1000:   world.HPRatio1000(self.id),
			ManaRatio1000: world.ManaRatio1000(self.id),
			Fighting:      self.fighting,
			TargetVisible: fightingVisible,
			World:         world,
			FleeableDirs: func(id repo.CharID) [8]int32 {
				return d.fleeWeights(tiles, self)
			},
		}

		scratch = driver.Run(scratch, snap, d.act)

		d.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
			if chars[self.id].Used == repo.UseActive {
				driver.Encode(&chars[self.id], scratch)
			}
		})
	}
}

func (s *npcSnap) safeX() int32 {
	if s == nil {
		return 0
	}
	return s.x
}

func (s *npcSnap) safeY() int32 {
	if s == nil {
		return 0
	}
	return s.y
}

func chebyshev(ax, ay, bx, by int32) int32 {
	dx, dy := ax-bx, ay-by
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// fleeWeights scores the 8 compass directions for a flee step (spec.md
// §4.7 step 5): weight 1 for each passable neighbouring tile, 0 otherwise.
// The attacker's position and tiles beyond the neighbouring one are not
// considered.
func (d *DriverSystem) fleeWeights(tiles []repo.Tile, self *npcSnap) [8]int32 {
	var w [8]int32
	for octant := 0; octant < 8; octant++ {
		dx, dy := dirDelta(octant)
		nx, ny := self.x+dx, self.y+dy
		if worldmap.Passable(tiles, nx, ny, worldmap.Mover{IsMonster: self.isMonster}, false) {
			w[octant] = 1
		}
	}
	return w
}
