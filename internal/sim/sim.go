// Package sim wires the tick-phase systems of spec.md §4.8 against the
// concrete repo/combat/worldmap/pathfind/scripting/visibility packages.
// Phase ordering and the "one System per concern, registered on a single
// Runner" shape are grounded on the teacher's internal/core/system
// package (a System interface with a phase tag, sorted and run once per
// tick); this package supplies the actual NPC/player game logic the
// teacher split across internal/system's thirty-odd files, rebuilt
// against this spec's Repository/driver/combat model instead of the
// teacher's ECS.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/originrealm/worldserver/internal/accountsvc"
	"github.com/originrealm/worldserver/internal/admin"
	"github.com/originrealm/worldserver/internal/combat"
	"github.com/originrealm/worldserver/internal/config"
	"github.com/originrealm/worldserver/internal/data"
	"github.com/originrealm/worldserver/internal/event"
	netpkg "github.com/originrealm/worldserver/internal/net"
	"github.com/originrealm/worldserver/internal/pathfind"
	"github.com/originrealm/worldserver/internal/persist"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/scripting"
	"github.com/originrealm/worldserver/internal/visibility"
	"github.com/originrealm/worldserver/internal/wire/packet"
)

// Sim is the shared context every tick-phase system closes over: the one
// Repository, the session registry, content tables, and the stateless
// helper packages (combat/worldmap/pathfind/scripting) that turn repo
// data into game behavior. Holding it as one struct instead of threading
// a dozen parameters through each System matches how the teacher's own
// systems close over *core.World.
type Sim struct {
	Repo     *repo.Repository
	Sessions *netpkg.SessionStore
	Registry *packet.Registry
	Accounts *accountsvc.Client
	Bus      *event.Bus

	CharStore    *persist.CharacterStore
	ItemStore    *persist.ItemStore
	GlobalsStore *persist.GlobalsStore
	Ledger       *admin.Ledger

	NpcTable  *data.NpcTable
	ItemTable *data.ItemTable
	ZoneTable *data.ZoneTable
	Scripts   *scripting.Engine

	Cfg *config.Config
	Log *zap.Logger

	LabZones []combat.LabZone

	rng *rand.Rand

	visMu   sync.Mutex
	seeMaps map[repo.CharID]*visibility.SeeMap
	VisStats visibility.Stats

	badTargets *pathfind.BadTargets

	persistCursor repo.CharID
}

// New builds a Sim from already-constructed dependencies. Content tables,
// the Repository, and the net layer are all loaded/bound by
// cmd/worldserver before this is called; Sim itself allocates no
// long-lived resources beyond its own bookkeeping maps.
func New(
	r *repo.Repository,
	sessions *netpkg.SessionStore,
	reg *packet.Registry,
	accounts *accountsvc.Client,
	charStore *persist.CharacterStore,
	itemStore *persist.ItemStore,
	globalsStore *persist.GlobalsStore,
	ledger *admin.Ledger,
	npcTable *data.NpcTable,
	itemTable *data.ItemTable,
	zoneTable *data.ZoneTable,
	scripts *scripting.Engine,
	cfg *config.Config,
	log *zap.Logger,
) *Sim {
	zones := make([]combat.LabZone, len(cfg.LabZones))
	for i, z := range cfg.LabZones {
		zones[i] = combat.LabZone{MapID: z.MapID, X0: z.X0, Y0: z.Y0, X1: z.X1, Y1: z.Y1}
	}
	s := &Sim{
		Repo:         r,
		Sessions:     sessions,
		Registry:     reg,
		Accounts:     accounts,
		Bus:          event.NewBus(),
		CharStore:    charStore,
		ItemStore:    itemStore,
		GlobalsStore: globalsStore,
		Ledger:       ledger,
		NpcTable:     npcTable,
		ItemTable:    itemTable,
		ZoneTable:    zoneTable,
		Scripts:      scripts,
		Cfg:          cfg,
		Log:          log,
		LabZones:     zones,
		rng:          rand.New(rand.NewSource(1)),
		seeMaps:      make(map[repo.CharID]*visibility.SeeMap),
		badTargets:   pathfind.NewBadTargets(),
		persistCursor: 1,
	}
	s.registerEventHandlers()
	RegisterHandlers(s)
	return s
}

// rollD returns the shared *rand.Rand for combat.ResolveAttack. Safe
// without its own lock because every tick-phase system runs sequentially
// on the tick loop's single goroutine (spec.md §4.1's "single writer at
// a time" discipline extends to this too).
func (s *Sim) rollD() *rand.Rand {
	return s.rng
}

// seeMapFor returns (creating if absent) the cached SeeMap for a
// character (spec.md §4.5).
func (s *Sim) seeMapFor(id repo.CharID) *visibility.SeeMap {
	s.visMu.Lock()
	defer s.visMu.Unlock()
	m, ok := s.seeMaps[id]
	if !ok {
		m = &visibility.SeeMap{}
		s.seeMaps[id] = m
	}
	return m
}

func (s *Sim) forgetSeeMap(id repo.CharID) {
	s.visMu.Lock()
	defer s.visMu.Unlock()
	delete(s.seeMaps, id)
}

// OnlineCount implements admin.Stats.
func (s *Sim) OnlineCount() int {
	return s.Sessions.Count()
}

// TickCount implements admin.Stats.
func (s *Sim) TickCount() uint64 {
	return s.Repo.Tick()
}

// Kick implements the admin HTTP surface's kick callback: force-closes
// every session bound to accountID. Sessions don't currently track their
// account id beyond the login exchange, so this walks live sessions by
// character instead — characters carry no account id either (spec.md's
// Character has none), so Kick here closes by character id, and
// cmd/worldserver adapts account id to character id via its own login
// table before calling in.
func (s *Sim) KickCharacter(charID int32, reason string) {
	s.Sessions.Range(func(sess *netpkg.Session) {
		if sess.CharID == charID {
			s.Log.Info("admin kick", zap.Int32("char", charID), zap.String("reason", reason))
			sess.Close()
		}
	})
}

// UsurpCharacter implements the staff usurp command: rebinds the session
// currently playing staffCharID onto targetCharID, stashing staffCharID
// on the session so logout can recursively drop both bodies in the right
// order (spec.md scenario S6, state.rs::logout_player). There is no
// separate "outer" session object in this model — one physical session
// plays both roles until it logs out.
func (s *Sim) UsurpCharacter(staffCharID, targetCharID int32) error {
	found := false
	s.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		id := repo.CharID(targetCharID)
		if id <= 0 || int(id) >= repo.MaxChars || chars[id].Used != repo.UseActive {
			return
		}
		chars[id].Flags |= repo.CfUsurp
		found = true
	})
	if !found {
		return fmt.Errorf("usurp: target character %d is not active", targetCharID)
	}

	var sess *netpkg.Session
	s.Sessions.Range(func(candidate *netpkg.Session) {
		if candidate.CharID == staffCharID {
			sess = candidate
		}
	})
	if sess == nil {
		return fmt.Errorf("usurp: no live session bound to character %d", staffCharID)
	}
	sess.OriginalCharID = staffCharID
	sess.Usurping = true
	sess.CharID = targetCharID
	s.Log.Info("admin usurp", zap.Int32("staff", staffCharID), zap.Int32("target", targetCharID))
	return nil
}

// RunGMCommand dispatches a "."-prefixed staff command against charID. It
// copies the character out from under the repository lock, runs
// admin.HandleCommand against the copy, then writes the mutated copy back
// under a second, separate lock acquisition — admin.Ledger.Record makes
// its own network call inside .grant, which must never happen while
// CharactersMut holds the single shared mutex. Replies are collected in
// order and returned once dispatch finishes instead of streamed, since
// the caller (the admin HTTP surface) has no open session to push them
// through.
func (s *Sim) RunGMCommand(ctx context.Context, charID, accountID int32, text string) ([]string, error) {
	id := repo.CharID(charID)
	if id <= 0 || int(id) >= repo.MaxChars {
		return nil, fmt.Errorf("gm command: character %d out of range", charID)
	}

	var ch repo.Character
	found := false
	s.Repo.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if chars[id].Used == repo.UseActive {
			ch = chars[id]
			found = true
		}
	})
	if !found {
		return nil, fmt.Errorf("gm command: character %d is not active", charID)
	}

	var lines []string
	reply := func(msg string) { lines = append(lines, msg) }
	admin.HandleCommand(ctx, &ch, s.Ledger, accountID, text, reply)

	s.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		if chars[id].Used == repo.UseActive {
			chars[id] = ch
		}
	})
	return lines, nil
}
