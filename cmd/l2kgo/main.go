package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l2kgo/server/internal/config"
	"github.com/l2kgo/server/internal/data"
	"github.com/l2kgo/server/internal/game"
	"github.com/l2kgo/server/internal/geo"
	"github.com/l2kgo/server/internal/persist"
	"github.com/l2kgo/server/internal/scripting"
	"github.com/l2kgo/server/internal/session"
	"github.com/l2kgo/server/internal/task"
	"github.com/l2kgo/server/internal/world"
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
	fmt.Println("\033[36;1m  │\033[0m             l2kgo  v0.1.0                 \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        Lineage II game server             \033[36;1m│\033[0m")
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
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("L2KGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(startCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(startCtx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	store := persist.NewStore(db)

	// 4. Load data tables
	printSection("data")

	dataDir := cfg.Server.DataDir

	npcTable, err := data.LoadNpcTable(filepath.Join(dataDir, "npc_list.yaml"))
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	printStat("npc templates", npcTable.Count())

	spawnList, err := data.LoadSpawnList(filepath.Join(dataDir, "spawn_list.yaml"))
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}

	itemTable, err := data.LoadItemTable(filepath.Join(dataDir, "item_list.yaml"))
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("item templates", itemTable.Count())

	skillTable, err := data.LoadSkillTable(filepath.Join(dataDir, "skill_list.yaml"))
	if err != nil {
		return fmt.Errorf("load skill table: %w", err)
	}
	printStat("skills", skillTable.Count())

	dropTable, err := data.LoadDropTable(filepath.Join(dataDir, "drop_list.yaml"))
	if err != nil {
		return fmt.Errorf("load drop table: %w", err)
	}
	printStat("drop lists", dropTable.Count())

	// Terrain is optional: without it the geodata oracle degrades to a
	// flat world.
	var oracle geo.Oracle = geo.Flat{}
	terrainPath := filepath.Join(dataDir, "terrain.yaml")
	if _, statErr := os.Stat(terrainPath); statErr == nil {
		terrain, terr := data.LoadTerrainTable(terrainPath)
		if terr != nil {
			return fmt.Errorf("load terrain: %w", terr)
		}
		oracle = geo.NewGrid(terrain)
		printStat("terrain zones", terrain.Count())
	} else {
		log.Warn("no terrain data, running with flat geodata", zap.String("path", terrainPath))
	}

	// 5. Lua scripting engine for NPC AI
	luaEngine, err := scripting.NewEngine(cfg.Server.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua scripts loaded")
	fmt.Println()

	// 6. Assemble the game service
	worldStore := world.NewStore()
	scheduler := task.NewScheduler(log)
	hub := session.NewHub(cfg.Server.OutQueueSize, log)

	svc := game.NewService(game.Deps{
		Log:     log,
		Cfg:     cfg,
		World:   worldStore,
		Tasks:   scheduler,
		Hub:     hub,
		Geo:     oracle,
		Npcs:    npcTable,
		Items:   itemTable,
		Skills:  skillTable,
		Drops:   dropTable,
		Scripts: luaEngine,
		Persist: store,
	})

	// 7. Restore persisted ground items and spawn the world
	printSection("world")

	groundCount, err := restoreGroundItems(startCtx, worldStore, store.Items, itemTable)
	if err != nil {
		return fmt.Errorf("load ground items: %w", err)
	}
	printStat("ground items", groundCount)

	npcCount := spawnNpcs(svc, npcTable, spawnList, log)
	printStat("npcs spawned", npcCount)
	fmt.Println()

	// 8. Background tickers
	svc.StartStateTicker()
	svc.StartRegenTicker()
	svc.StartAITicker()

	scheduler.LaunchTask("autosave", func(ctx context.Context) {
		t := time.NewTicker(cfg.Server.SaveInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				saveAllCharacters(worldStore, store, log)
			}
		}
	})

	printSection("ready")
	printReady(fmt.Sprintf("game loop running (save interval: %s)", cfg.Server.SaveInterval))
	fmt.Println()

	// 9. Wait for shutdown
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	log.Info("shutdown signal received")

	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shCancel()
	if err := scheduler.Shutdown(shCtx); err != nil {
		log.Warn("scheduler shutdown", zap.Error(err))
	}
	saveAllCharacters(worldStore, store, log)
	log.Info("server stopped")
	return nil
}

// spawnNpcs places every spawn list entry into the world through the game
// service, scattering multi-count spawns inside the random radius.
func spawnNpcs(svc *game.Service, npcTable *data.NpcTable, spawns []data.SpawnEntry, log *zap.Logger) int {
	total := 0
	for _, spawn := range spawns {
		tmpl := npcTable.Get(spawn.NpcID)
		if tmpl == nil {
			log.Warn("spawn references unknown npc", zap.Int32("npc_id", spawn.NpcID))
			continue
		}
		count := spawn.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			pos := world.Position{X: spawn.X, Y: spawn.Y, Z: spawn.Z}
			if r := spawn.RandomRadius; r > 0 {
				pos.X += rand.Int31n(2*r+1) - r
				pos.Y += rand.Int31n(2*r+1) - r
			}
			svc.SpawnNpc(tmpl, pos, time.Duration(spawn.RespawnDelay)*time.Second)
			total++
		}
	}
	return total
}

// restoreGroundItems puts DB-backed ground items back into the world so
// drops survive a restart.
func restoreGroundItems(ctx context.Context, ws *world.Store, items *persist.ItemRepo, tbl *data.ItemTable) (int, error) {
	rows, err := items.LoadGroundItems(ctx)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		name := ""
		if tmpl := tbl.Get(row.TemplateID); tmpl != nil {
			name = tmpl.Name
		}
		ws.Add(&world.GroundItem{
			Object:     world.Object{ID: row.ID, Name: name},
			TemplateID: row.TemplateID,
			Count:      row.Count,
			Stackable:  row.Stackable,
			Weight:     row.Weight,
			Pos:        world.Position{X: row.X, Y: row.Y, Z: row.Z},
			Persisted:  true,
		})
	}
	return len(rows), nil
}

// saveAllCharacters persists every online character and inventory.
func saveAllCharacters(ws *world.Store, store *persist.Store, log *zap.Logger) {
	count := 0
	for _, c := range ws.Characters() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := store.SaveCharacter(ctx, c)
		cancel()
		if err != nil {
			log.Error("character save failed", zap.String("name", c.Name), zap.Error(err))
			continue
		}
		count++
	}
	if count > 0 {
		log.Info("autosave complete", zap.Int("characters", count))
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
