package sim

import (
	"time"

	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/tick"
)

// ticksPerHour is the nominal tick count between hour-counter rollovers
// at the default 150ms tick rate (spec.md §4.1 "global counters").
const ticksPerHour = int(time.Hour / (150 * time.Millisecond))

// CountersSystem increments the process-wide tick/hour counters and
// swaps the NPC message bus, first thing every tick (spec.md §4.8 step
// 1). The bus swap happens here rather than in PhaseDriver itself so
// every later phase in the same tick already sees this tick's folded-in
// driver scratch state, not last tick's.
type CountersSystem struct {
	sim       *Sim
	ticksThisHour int
}

func NewCountersSystem(s *Sim) *CountersSystem {
	return &CountersSystem{sim: s}
}

func (c *CountersSystem) Phase() tick.Phase { return tick.PhaseCounters }

func (c *CountersSystem) Update(dt time.Duration) {
	c.sim.Bus.SwapBuffers()
	c.sim.Bus.DispatchAll()

	c.sim.Repo.GlobalsMut(func(g *repo.Globals) {
		g.Ticker++
		online := c.sim.Sessions.Count()
		if int32(online) > g.MaxOnline {
			g.MaxOnline = int32(online)
		}
		if online > 0 {
			g.OnlineTicks++
		}
		c.ticksThisHour++
		if c.ticksThisHour >= ticksPerHour {
			g.HourCounter++
			c.ticksThisHour = 0
		}
	})
}
