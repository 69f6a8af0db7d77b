package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/originrealm/worldserver/internal/accountsvc"
	"github.com/originrealm/worldserver/internal/admin"
	"github.com/originrealm/worldserver/internal/config"
	"github.com/originrealm/worldserver/internal/data"
	"github.com/originrealm/worldserver/internal/driver"
	netpkg "github.com/originrealm/worldserver/internal/net"
	"github.com/originrealm/worldserver/internal/persist"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/scripting"
	"github.com/originrealm/worldserver/internal/sim"
	"github.com/originrealm/worldserver/internal/tick"
	"github.com/originrealm/worldserver/internal/wire/packet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              worldserver                  \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      isometric tile-based RPG host         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("WORLDSERVER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 1. Ledger database + migrations
	printSection("ledger database")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := admin.NewDB(ctx, cfg.Ledger, log)
	cancel()
	if err != nil {
		return fmt.Errorf("ledger db: %w", err)
	}
	defer db.Close()
	printOK("connected to postgres")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = admin.RunMigrations(ctx, db.Pool)
	cancel()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	ledger := admin.NewLedger(db)
	fmt.Println()

	// 2. Content tables
	printSection("content tables")
	npcTable, err := data.LoadNpcTable("data/npc_list.yaml")
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	printStat("npc templates", npcTable.Count())

	spawnList, err := data.LoadSpawnList("data/spawn_list.yaml")
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	printStat("spawn entries", len(spawnList))

	itemTable, err := data.LoadItemTable("data/weapon_list.yaml", "data/armor_list.yaml", "data/etcitem_list.yaml")
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("item templates", itemTable.Count())

	zoneTable, err := data.LoadZoneTable("data/zone_list.yaml")
	if err != nil {
		return fmt.Errorf("load zone table: %w", err)
	}
	printStat("zones", zoneTable.Count())
	fmt.Println()

	// 3. Scripting engine
	scripts, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("scripting engine: %w", err)
	}
	defer scripts.Close()

	// 4. Account service client
	accounts, err := accountsvc.NewClient(cfg.AccountService)
	if err != nil {
		return fmt.Errorf("account service client: %w", err)
	}

	// 5. Persistence stores
	charStore := persist.NewCharacterStore("data/characters")
	itemStore := persist.NewItemStore("data/items")
	globalsStore := persist.NewGlobalsStore("data/globals")
	mapStore := persist.NewMapStore("data/map.bin")

	// 6. Repository: world map, then templates, then spawned NPCs
	printSection("world state")
	repoState := repo.New()

	if tiles, err := mapStore.Load(); err != nil {
		log.Warn("map load failed, starting with an empty grid", zap.Error(err))
	} else {
		repoState.MapMut(func(dst []repo.Tile) { copy(dst, tiles) })
		printOK("map loaded")
	}

	if g, err := globalsStore.Load(); err != nil {
		log.Warn("globals load failed, starting from zero value", zap.Error(err))
	} else {
		repoState.GlobalsMut(func(dst *repo.Globals) { *dst = g })
	}

	spawned := spawnNpcs(repoState, npcTable, spawnList, log)
	printStat("npcs spawned", spawned)

	if saved, err := charStore.LoadAll(); err != nil {
		log.Warn("character roster load failed", zap.Error(err))
	} else {
		restored := 0
		for _, ch := range saved {
			id, err := repoState.AllocCharacter()
			if err != nil {
				log.Warn("character arena full during restore", zap.Int32("char", int32(ch.ID)))
				break
			}
			x, y := ch.X, ch.Y
			repoState.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
				chars[id] = *ch
				chars[id].ID = id
				chars[id].Used = repo.UseNonActive
			})
			_ = repoState.PlaceCharacter(id, x, y)
			restored++
		}
		printStat("characters restored (offline)", restored)
	}
	fmt.Println()

	// 7. Network layer
	printSection("network")
	server, err := netpkg.NewServer(cfg.Network.BindAddress, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	sessions := netpkg.NewSessionStore()
	go server.AcceptLoop()
	printOK(fmt.Sprintf("listening on %s", server.Addr().String()))
	fmt.Println()

	// 8. Game simulation: Sim context + tick-phase runner
	registry := packet.NewRegistry(log)
	s := sim.New(repoState, sessions, registry, accounts, charStore, itemStore, globalsStore, ledger,
		npcTable, itemTable, zoneTable, scripts, cfg, log)

	runner := tick.NewRunner()
	runner.Register(sim.NewCountersSystem(s))
	runner.Register(sim.NewInputSystem(s))
	runner.Register(sim.NewDriverSystem(s))
	runner.Register(sim.NewResolveSystem(s))
	runner.Register(sim.NewOutputSystem(s))
	runner.Register(sim.NewPersistSystem(s))
	runner.Register(sim.NewCleanupSystem(s))

	pump := &ioPump{server: server, sessions: sessions}
	profiler := tick.NewProfiler()
	loop := tick.NewLoop(cfg.Network.TickRate, runner, pump, profiler, log)

	// 9. Admin HTTP surface
	kick := func(accountID int32, reason string) error {
		s.KickCharacter(accountID, reason)
		return nil
	}
	usurp := func(staffCharID, targetCharID int32) error {
		return s.UsurpCharacter(staffCharID, targetCharID)
	}
	runGM := func(ctx context.Context, charID, accountID int32, text string) ([]string, error) {
		return s.RunGMCommand(ctx, charID, accountID, text)
	}
	adminSrv := &http.Server{
		Addr:    cfg.Ledger.HTTPBindAddress,
		Handler: admin.Router(ledger, s, kick, usurp, runGM, log),
	}
	go func() {
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin http server failed", zap.Error(err))
		}
	}()
	printReady(fmt.Sprintf("admin http surface on %s", cfg.Ledger.HTTPBindAddress))

	// 10. Run the tick loop until a shutdown signal arrives.
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go loop.Run()

	printSection("ready")
	printReady(fmt.Sprintf("tick loop started (tick rate: %s)", cfg.Network.TickRate))
	fmt.Println()

	sig := <-shutdownCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	loop.Stop()
	s.DropAllSessions()
	saveAll(repoState, charStore, itemStore, globalsStore, mapStore, log)

	server.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = adminSrv.Shutdown(shutdownCtx)
	shutdownCancel()

	log.Info("worldserver stopped")
	return nil
}

// spawnNpcs instantiates one repo.Character per data.SpawnEntry x Count,
// tagging each with the driver.Kind its template names (spec.md §4.7,
// §3.3 "Created by template instantiation"). Unknown npc ids or driver
// kinds are skipped with a warning rather than aborting startup, mirroring
// the teacher's own best-effort spawn pass.
func spawnNpcs(r *repo.Repository, npcTable *data.NpcTable, spawns []data.SpawnEntry, log *zap.Logger) int {
	total := 0
	for _, spawn := range spawns {
		tmpl := npcTable.Get(spawn.NpcID)
		if tmpl == nil {
			log.Warn("spawn: unknown npc id", zap.Int32("npc_id", spawn.NpcID))
			continue
		}
		kind := driverKind(tmpl.Driver)
		for i := 0; i < spawn.Count; i++ {
			x, y := spawn.X, spawn.Y
			if spawn.RandomX > 0 {
				x += int32(rand.Intn(int(spawn.RandomX*2+1))) - spawn.RandomX
			}
			if spawn.RandomY > 0 {
				y += int32(rand.Intn(int(spawn.RandomY*2+1))) - spawn.RandomY
			}

			id, err := r.AllocCharacter()
			if err != nil {
				log.Warn("spawn: character arena full", zap.Int32("npc_id", spawn.NpcID))
				return total
			}
			r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
				ch := &chars[id]
				ch.SetName(tmpl.Name)
				ch.TemplateID = tmpl.NpcID
				ch.Kindred = repo.KinMonster
				ch.Str.Base, ch.Str.Max = tmpl.Str, tmpl.Str
				ch.Dex.Base, ch.Dex.Max = tmpl.Dex, tmpl.Dex
				ch.Con.Base, ch.Con.Max = tmpl.Con, tmpl.Con
				ch.Wis.Base, ch.Wis.Max = tmpl.Wis, tmpl.Wis
				ch.Intl.Base, ch.Intl.Max = tmpl.Int, tmpl.Int
				ch.Cha.Base, ch.Cha.Max = tmpl.Cha, tmpl.Cha
				for _, t := range []*repo.SixTuple{&ch.Str, &ch.Dex, &ch.Con, &ch.Wis, &ch.Intl, &ch.Cha} {
					t.Recompute()
				}
				ch.HP.Base, ch.HP.Max = tmpl.HP, tmpl.HP
				ch.Mana.Base, ch.Mana.Max = tmpl.MP, tmpl.MP
				ch.Endurance.Base, ch.Endurance.Max = tmpl.HP, tmpl.HP
				ch.HP.Recompute()
				ch.Mana.Recompute()
				ch.Endurance.Recompute()
				ch.AHP = ch.HP.Total * 1000
				ch.AMana = ch.Mana.Total * 1000
				ch.AEnd = ch.Endurance.Total * 1000

				scratch := driver.Scratch{Kind: kind}
				scratch.Monster.Team = tmpl.Team
				scratch.Patrol.HomeX, scratch.Patrol.HomeY = x, y
				scratch.Patrol.EntryX, scratch.Patrol.EntryY = x, y
				driver.Encode(ch, scratch)
			})
			_ = r.PlaceCharacter(id, x, y)
			total++
		}
	}
	return total
}

func driverKind(name string) driver.Kind {
	switch name {
	case "guard":
		return driver.KindGuard
	case "monster":
		return driver.KindMonster
	case "patrol":
		return driver.KindPatrol
	default:
		return driver.KindNone
	}
}

// saveAll flushes every live arena to disk on shutdown (spec.md §6.3: a
// clean shutdown persists the whole world, not just the round-robin
// batch PersistSystem covers per tick).
func saveAll(r *repo.Repository, charStore *persist.CharacterStore, itemStore *persist.ItemStore, globalsStore *persist.GlobalsStore, mapStore *persist.MapStore, log *zap.Logger) {
	saved := 0
	r.Characters(func(chars *[repo.MaxChars]repo.Character) {
		for id := repo.CharID(1); int(id) < repo.MaxChars; id++ {
			if chars[id].Used != repo.UseActive && chars[id].Used != repo.UseNonActive {
				continue
			}
			if chars[id].Flags&repo.CfPlayer == 0 {
				continue
			}
			snapshot := chars[id]
			if err := charStore.Save(&snapshot); err != nil {
				log.Error("final character save failed", zap.Int32("char", int32(id)), zap.Error(err))
				continue
			}
			saved++
		}
	})
	r.Items(func(items *[repo.MaxItems]repo.Item) {
		for id := repo.ItemID(1); int(id) < repo.MaxItems; id++ {
			if items[id].Used == repo.UseEmpty {
				continue
			}
			snapshot := items[id]
			if err := itemStore.Save(&snapshot); err != nil {
				log.Error("final item save failed", zap.Int32("item", int32(id)), zap.Error(err))
			}
		}
	})
	r.Globals(func(g *repo.Globals) {
		if err := globalsStore.Save(*g); err != nil {
			log.Error("final globals save failed", zap.Error(err))
		}
	})
	var tiles []repo.Tile
	r.Map(func(t []repo.Tile) { tiles = t })
	if err := mapStore.Save(tiles); err != nil {
		log.Error("final map save failed", zap.Error(err))
	}
	log.Info("shutdown save complete", zap.Int("characters", saved))
}

// ioPump drains the net.Server's new/dead session channels into the
// SessionStore every 8th tick (spec.md §4.8 step 2). Accept and
// read/write happen continuously on their own goroutines regardless; this
// only synchronizes session bookkeeping with the tick loop's single
// writer, matching the IOPump contract in internal/tick.
type ioPump struct {
	server   *netpkg.Server
	sessions *netpkg.SessionStore
}

func (p *ioPump) PumpOnce() {
	draining := true
	for draining {
		select {
		case sess := <-p.server.NewSessions():
			p.sessions.Add(sess)
		default:
			draining = false
		}
	}

	draining = true
	for draining {
		select {
		case id := <-p.server.DeadSessions():
			p.sessions.Remove(id)
		default:
			draining = false
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
