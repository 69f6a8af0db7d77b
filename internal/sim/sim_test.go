package sim

import (
	"math/rand"
	"testing"

	"github.com/originrealm/worldserver/internal/event"
	netpkg "github.com/originrealm/worldserver/internal/net"
	"github.com/originrealm/worldserver/internal/pathfind"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/visibility"
	"go.uber.org/zap"
)

// newTestSim builds a minimal Sim directly against a struct literal
// (valid since this file is in package sim), skipping the disk-backed
// stores and account-service client sim.New wires up — tick-phase system
// tests exercise Repo/Bus/rng behavior only, not persistence or login.
func newTestSim(r *repo.Repository) *Sim {
	return &Sim{
		Repo:          r,
		Sessions:      netpkg.NewSessionStore(),
		Bus:           event.NewBus(),
		Log:           zap.NewNop(),
		rng:           rand.New(rand.NewSource(1)),
		badTargets:    pathfind.NewBadTargets(),
		seeMaps:       make(map[repo.CharID]*visibility.SeeMap),
		persistCursor: 1,
	}
}

func activeChar(t *testing.T, r *repo.Repository) repo.CharID {
	t.Helper()
	id, err := r.AllocCharacter()
	if err != nil {
		t.Fatalf("AllocCharacter: %v", err)
	}
	r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Used = repo.UseActive
	})
	return id
}
