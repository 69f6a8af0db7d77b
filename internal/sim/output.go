package sim

import (
	"time"

	"github.com/originrealm/worldserver/internal/deltastream"
	netpkg "github.com/originrealm/worldserver/internal/net"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/tick"
)

// renderCache holds the per-tick character/item lookups a Render callback
// needs, snapshotted once per tick so every session's Compute call shares
// one read pass over the Repository instead of one each (spec.md §4.6
// "Ordering and atomicity": a tick's delta stream reflects that tick's
// settled state, consistently across every viewer).
type renderCache struct {
	chars map[repo.CharID]repo.Character
	items map[repo.ItemID]repo.Item
}

// OutputSystem streams each connected player's tile-delta viewport
// (spec.md §4.6, §4.8 step 5).
type OutputSystem struct {
	sim *Sim
}

func NewOutputSystem(s *Sim) *OutputSystem {
	return &OutputSystem{sim: s}
}

func (o *OutputSystem) Phase() tick.Phase { return tick.PhaseOutput }

func (o *OutputSystem) Update(dt time.Duration) {
	cache := &renderCache{
		chars: make(map[repo.CharID]repo.Character),
		items: make(map[repo.ItemID]repo.Item),
	}
	o.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		for id := repo.CharID(1); int(id) < repo.MaxChars; id++ {
			if chars[id].Used == repo.UseActive {
				cache.chars[id] = chars[id]
			}
		}
	})
	o.sim.Repo.Items(func(items *[repo.MaxItems]repo.Item) {
		for id := repo.ItemID(1); int(id) < repo.MaxItems; id++ {
			if items[id].Used != repo.UseEmpty && items[id].Carried == 0 {
				cache.items[id] = items[id]
			}
		}
	})

	var tiles []repo.Tile
	o.sim.Repo.Map(func(t []repo.Tile) { tiles = t })

	render := cache.renderFn()

	o.sim.Sessions.Range(func(sess *netpkg.Session) {
		if sess.State() != netpkg.StateNormal || sess.CharID == 0 {
			return
		}
		ch, ok := cache.chars[repo.CharID(sess.CharID)]
		if !ok {
			return
		}
		bytes := sess.Shadow.Compute(tiles, ch.X, ch.Y, render)
		if len(bytes) > 0 {
			sess.Send(bytes)
		}
	})
}

func (c *renderCache) renderFn() deltastream.Render {
	return func(tiles []repo.Tile, idx int) deltastream.Projection {
		t := &tiles[idx]
		p := deltastream.Projection{
			Background: uint16(t.Background),
			Flags1:     uint32(t.Flags),
			Light:      t.Light,
		}
		if t.It != 0 {
			if it, ok := c.items[t.It]; ok {
				p.HasItem = true
				p.ItemSprite = uint16(it.TemplateID)
			}
		}
		if t.Ch != 0 {
			if ch, ok := c.chars[t.Ch]; ok {
				p.HasChar = true
				p.CharSprite = uint16(ch.TemplateID)
				p.CharStatus = ch.Status
				p.CharNr = uint16(t.Ch)
				p.CharID = uint16(t.Ch)
				p.HasPercentage = ch.HP.Total > 0
				if ch.HP.Total > 0 {
					p.Percentage = byte(ch.AHP / ch.HP.Total / 10)
				}
			}
		}
		return p
	}
}
