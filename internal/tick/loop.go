package tick

import (
	"time"

	"go.uber.org/zap"
)

// ioTickInterval is the "every 8 ticks" cadence of spec.md §4.8 step 2.
const ioTickInterval = 8

// overloadTicks bounds how far the loop is allowed to fall behind wall
// clock before it declares overload and skips ahead, per spec.md §4.8
// step 1 ("never accumulate more than 10*TICKS behind").
const overloadTicks = 10

// IOPump is the session-bookkeeping pass that runs every ioTickInterval
// ticks (spec.md §4.8 step 2). It is implemented by the server wiring in
// cmd/worldserver, kept behind an interface so this package never imports
// session-handling logic directly.
type IOPump interface {
	// PumpOnce moves sessions accepted or closed since the last call into
	// or out of the tick loop's session registry. Socket accept, reads and
	// writes run on their own goroutines, not inside PumpOnce.
	PumpOnce()
}

// Loop drives one fixed-step simulation at TickInterval, grounded on the
// teacher's event-loop shape in cmd/l1jgo/main.go (a for-loop computing a
// sleep remainder each pass) but restructured around spec.md §4.8's
// explicit catch-up/overload/IO-cadence rules, which the teacher's loop
// does not have.
type Loop struct {
	Interval time.Duration
	Runner   *Runner
	IO       IOPump
	Profiler *Profiler
	Log      *zap.Logger

	tickCount uint64
	hourCount uint64
	hourTicks uint64 // ticks per hour at this Interval, computed once

	stopCh chan struct{}
}

func NewLoop(interval time.Duration, runner *Runner, io IOPump, prof *Profiler, log *zap.Logger) *Loop {
	return &Loop{
		Interval:  interval,
		Runner:    runner,
		IO:        io,
		Profiler:  prof,
		Log:       log,
		hourTicks: uint64(time.Hour / interval),
		stopCh:    make(chan struct{}),
	}
}

// HourCount returns the number of whole hours of simulated time elapsed.
func (l *Loop) HourCount() uint64 { return l.hourCount }

// Stop signals Run to return after its current pass.
func (l *Loop) Stop() { close(l.stopCh) }

// TickCount returns the number of simulation ticks executed so far.
func (l *Loop) TickCount() uint64 { return l.tickCount }

// Run blocks, driving ticks at l.Interval until Stop is called. It never
// returns early on a session error (spec.md §5: a socket error cancels
// that session, not the loop).
func (l *Loop) Run() {
	last := nowMonotonic()
	overloadBudget := l.Interval * overloadTicks

	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		now := nowMonotonic()
		elapsed := now.Sub(last)

		if elapsed < l.Interval {
			sleepFor := l.Interval - elapsed
			sleepStart := nowMonotonic()
			time.Sleep(sleepFor)
			l.Profiler.RecordSleep(nowMonotonic().Sub(sleepStart))
			continue
		}

		// Behind by more than the overload budget: declare overload,
		// drop the backlog instead of spinning through it, per
		// spec.md §4.8 step 1.
		if elapsed > overloadBudget {
			l.Log.Warn("tick loop overloaded, skipping ahead",
				zap.Duration("behind", elapsed))
			last = now
			elapsed = l.Interval
		}

		for elapsed >= l.Interval {
			l.runOnePass()
			last = last.Add(l.Interval)
			elapsed -= l.Interval
		}
	}
}

func (l *Loop) runOnePass() {
	tickStart := nowMonotonic()
	l.tickCount++
	if l.hourTicks > 0 && l.tickCount%l.hourTicks == 0 {
		l.hourCount++
	}

	l.Runner.Tick(l.Interval)
	l.Profiler.RecordTick(nowMonotonic().Sub(tickStart))

	if l.tickCount%ioTickInterval == 0 {
		ioStart := nowMonotonic()
		l.IO.PumpOnce()
		l.Profiler.RecordIO(nowMonotonic().Sub(ioStart))
	}
}

// nowMonotonic isolates the one allowed time.Now() call so the rest of
// this package's logic is easy to reason about and test against fakes.
func nowMonotonic() time.Time { return time.Now() }
