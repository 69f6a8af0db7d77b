package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/tick"
)

// persistBatch is the number of character slots scanned per tick looking
// for the next active slot to save, round-robin (spec.md §6.3 "every
// character is saved at least once per sweep window" without a full-arena
// scan each tick).
const persistBatch = 32

// PersistSystem round-robins character saves across the arena so a full
// sweep completes roughly every MaxChars/persistBatch ticks, rather than
// saving every character every tick (spec.md §4.8 step 6, §6.3).
type PersistSystem struct {
	sim *Sim
}

func NewPersistSystem(s *Sim) *PersistSystem {
	return &PersistSystem{sim: s}
}

func (p *PersistSystem) Phase() tick.Phase { return tick.PhasePersist }

func (p *PersistSystem) Update(dt time.Duration) {
	cursor := p.sim.persistCursor
	for i := 0; i < persistBatch; i++ {
		id := cursor
		cursor++
		if int(cursor) >= repo.MaxChars {
			cursor = 1
		}

		var snapshot repo.Character
		found := false
		p.sim.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
			if chars[id].Used == repo.UseEmpty {
				return
			}
			if chars[id].Flags&repo.CfPlayer == 0 {
				return
			}
			snapshot = chars[id]
			found = true
		})
		if !found {
			continue
		}
		if err := p.sim.CharStore.Save(&snapshot); err != nil {
			p.sim.Log.Error("character save failed", zap.Int32("char", int32(id)), zap.Error(err))
		}
	}
	p.sim.persistCursor = cursor

	p.sim.Repo.Globals(func(g *repo.Globals) {
		if g.Ticker%uint64(persistBatch) == 0 {
			if err := p.sim.GlobalsStore.Save(*g); err != nil {
				p.sim.Log.Error("globals save failed", zap.Error(err))
			}
		}
	})
}
