package sim

import (
	"time"

	"github.com/originrealm/worldserver/internal/combat"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/tick"
)

// nonActiveExpiryTicks is how long a logged-out player's body is retained
// in the arena before it is freed back to the pool (spec.md §3.3, §6.3:
// "a body persists until expiry, it isn't deleted" on logout, but it is
// eventually reclaimed).
const nonActiveExpiryTicks = 20000

// CleanupSystem expires timed effects, frees worn-spell-slot items whose
// duration has elapsed, and reclaims stale logged-out bodies (spec.md
// §4.8 step 7, §4.9 "status effects").
type CleanupSystem struct {
	sim *Sim
}

func NewCleanupSystem(s *Sim) *CleanupSystem {
	return &CleanupSystem{sim: s}
}

func (c *CleanupSystem) Phase() tick.Phase { return tick.PhaseCleanup }

func (c *CleanupSystem) Update(dt time.Duration) {
	now := c.sim.Repo.Tick()

	c.sim.Repo.SweepEffects(now, nil)

	// ExpireStatuses needs both the character arena (spell slots, mutable)
	// and the item arena (AgeActive, mutable) at once; the Repository's
	// single RWMutex means that must happen as one ItemsMut pass that also
	// reaches into a per-character snapshot's Spells array rather than two
	// nested *Mut calls, which would self-deadlock on the same mutex.
	var expiredItems []repo.ItemID
	spellSlots := make(map[repo.CharID]*[repo.SpellSize]repo.ItemID)
	c.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		for id := repo.CharID(1); int(id) < repo.MaxChars; id++ {
			if chars[id].Used != repo.UseActive {
				continue
			}
			slots := chars[id].Spells
			spellSlots[id] = &slots
		}
	})
	c.sim.Repo.ItemsMut(func(items *[repo.MaxItems]repo.Item) {
		for _, slots := range spellSlots {
			expiredItems = append(expiredItems, combat.ExpireStatuses(slots, items)...)
		}
	})
	c.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		for id, slots := range spellSlots {
			chars[id].Spells = *slots
			if chars[id].Stunned > 0 {
				chars[id].Stunned--
			}
		}
	})

	for _, id := range expiredItems {
		_ = c.sim.Repo.FreeItem(id)
	}

	var staleBodies []repo.CharID
	c.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		for id := repo.CharID(1); int(id) < repo.MaxChars; id++ {
			ch := &chars[id]
			if ch.Used != repo.UseNonActive {
				continue
			}
			ch.Idle++
			if ch.Idle > nonActiveExpiryTicks {
				staleBodies = append(staleBodies, id)
			}
		}
	})
	for _, id := range staleBodies {
		_ = c.sim.Repo.FreeCharacter(id)
		c.sim.forgetSeeMap(id)
	}
}
