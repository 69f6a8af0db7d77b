package sim

import (
	"github.com/originrealm/worldserver/internal/event"
	"github.com/originrealm/worldserver/internal/repo"
)

// registerEventHandlers wires the NT_GOTHIT/NT_GOTMISS message-bus events
// (spec.md §4.7, Glossary) into the driver scratch fields that
// ThreatScan reads the following tick: the target's last-attacker slot
// and its 5-slot recently-hit-me ring. Folding events into Data here
// keeps internal/driver itself free of any event-bus dependency, matching
// its own doc comment ("drivers consume this memory next tick").
func (s *Sim) registerEventHandlers() {
	event.Subscribe(s.Bus, func(ev event.GotHit) {
		s.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
			if ev.Target <= 0 || int(ev.Target) >= repo.MaxChars {
				return
			}
			ch := &chars[ev.Target]
			if ch.Used != repo.UseActive {
				return
			}
			ch.Data[20] = int32(ev.Attacker) // Shared.LastAttacker slot
			for i := 34; i > 30; i-- {
				ch.Data[i] = ch.Data[i-1]
			}
			ch.Data[30] = int32(ev.Attacker)
		})
	})
}

// emitGotHit queues an NT_GOTHIT event, delivered to handlers on the next
// tick's SwapBuffers (spec.md §4.7: "there is no synchronous callback").
func (s *Sim) emitGotHit(target, attacker repo.CharID, damage int32) {
	event.Emit(s.Bus, event.GotHit{Target: target, Attacker: attacker, Damage: damage})
}
