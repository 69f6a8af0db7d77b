package sim

import (
	"testing"
	"time"

	"github.com/originrealm/worldserver/internal/repo"
)

func TestCountersTracksTickerAndMaxOnline(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	cs := NewCountersSystem(s)

	sess := newTestSession(t, 1)
	s.Sessions.Add(sess)

	var before uint64
	r.Globals(func(g *repo.Globals) { before = g.Ticker })

	cs.Update(time.Millisecond)

	r.Globals(func(g *repo.Globals) {
		if g.Ticker != before+1 {
			t.Fatalf("expected ticker incremented by one, got %d -> %d", before, g.Ticker)
		}
		if g.MaxOnline != 1 {
			t.Fatalf("expected MaxOnline to track the one connected session, got %d", g.MaxOnline)
		}
		if g.OnlineTicks != 1 {
			t.Fatalf("expected OnlineTicks incremented while a session is online, got %d", g.OnlineTicks)
		}
	})
}

func TestCountersSkipsOnlineTickWhenEmpty(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	cs := NewCountersSystem(s)

	cs.Update(time.Millisecond)

	r.Globals(func(g *repo.Globals) {
		if g.OnlineTicks != 0 {
			t.Fatalf("expected OnlineTicks to stay at zero with nobody connected, got %d", g.OnlineTicks)
		}
	})
}
