package tick

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each tick.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{systems: make([]System, 0, 16)}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every registered system once, in ascending Phase order.
func (r *Runner) Tick(dt time.Duration) {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
	for _, s := range r.systems {
		s.Update(dt)
	}
}

// TickPhase runs only the systems registered under the given phase. Kept
// for parity with the teacher's single-phase re-run hook, though spec.md
// §4.8 describes one fixed-step loop rather than a separate
// high-frequency input ticker, so callers outside tests have no reason to
// invoke it directly.
func (r *Runner) TickPhase(p Phase, dt time.Duration) {
	for _, s := range r.systems {
		if s.Phase() == p {
			s.Update(dt)
		}
	}
}
