package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/boraty14/Becs/internal/config"
	"github.com/boraty14/Becs/internal/core/event"
	coresys "github.com/boraty14/Becs/internal/core/system"
	"github.com/boraty14/Becs/internal/data"
	"github.com/boraty14/Becs/internal/persist"
	"github.com/boraty14/Becs/internal/scripting"
	"github.com/boraty14/Becs/internal/system"
	"github.com/boraty14/Becs/internal/world"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	frames     uint64
	logLevel   string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "becs",
		Short:         "Headless frame loop driving pooled unit managers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(f)
		},
	}

	defaultCfg := "config/becs.toml"
	if p := os.Getenv("BECS_CONFIG"); p != "" {
		defaultCfg = p
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", defaultCfg, "path to the TOML config")
	cmd.Flags().Uint64Var(&f.frames, "frames", 0, "stop after N frames (overrides sim.max_frames)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "override logging.level")
	return cmd
}

// ── Startup display helpers ────────────────────────────────────────

var (
	sectionColor = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen)
	dimColor     = color.New(color.FgHiBlack)
)

func printBanner(runID string) {
	banner := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	banner.Println("  ┌───────────────────────────────────────────┐")
	banner.Println("  │              Becs frame loop              │")
	banner.Println("  └───────────────────────────────────────────┘")
	fmt.Printf("  run %s\n\n", dimColor.Sprint(runID))
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	sectionColor.Printf("  ── %s %s\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value any) {
	v := fmt.Sprint(value)
	dotsLen := 42 - len(label) - len(v)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s %s %s\n", label, dimColor.Sprint(strings.Repeat("·", dotsLen)), okColor.Sprint(v))
}

func printOK(msg string) {
	fmt.Printf("  %s %s\n", okColor.Sprint("✓"), msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run(f *flags) error {
	// 1. Load config
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.frames > 0 {
		cfg.Sim.MaxFrames = f.frames
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	runID := uuid.NewString()
	log = log.With(zap.String("run", runID))
	printBanner(runID)

	// 3. Prefabs and world
	printSection("prefabs")
	prefabs, err := data.LoadPrefabTable(cfg.Sim.Prefabs)
	if err != nil {
		return fmt.Errorf("load prefabs: %w", err)
	}
	bus := event.NewBus()
	w := world.New(bus, log.With(zap.String("component", "world")))
	if err := w.RegisterAll(prefabs, cfg.Pool); err != nil {
		return fmt.Errorf("register prefabs: %w", err)
	}
	for _, p := range prefabs.All() {
		m, _ := w.Manager(p.Name)
		printStat(p.Name, fmt.Sprintf("max %d", m.Stats().Max))
	}
	fmt.Println()

	runner := coresys.NewRunner()

	// 4. Optional statistics database
	var statsWriter system.StatsWriter
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log.With(zap.String("component", "db")))
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("schema version", version)
		statsWriter = persist.NewStatsRepo(db, runID)
		fmt.Println()
	}

	// 5. Optional Lua spawn logic
	if cfg.Scripting.Enabled {
		printSection("scripting")
		lua, err := scripting.NewEngine(cfg.Scripting.Dir, w, runner.Frame, log.With(zap.String("component", "lua")))
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		runner.Register(coresys.PhaseInput, lua)
		printOK("scripts loaded from " + cfg.Scripting.Dir)
		fmt.Println()
	}

	// 6. Systems
	stats := system.NewStatsSystem(w, statsWriter, runner.Frame, cfg.Sim.StatsInterval, log.With(zap.String("component", "stats")))
	runner.Register(coresys.PhasePreUpdate, system.NewEventSystem(bus, log.With(zap.String("component", "events"))))
	runner.Register(coresys.PhaseUpdate, system.NewAgingSystem(w))
	runner.Register(coresys.PhasePostUpdate, system.NewLifetimeSystem(w, log.With(zap.String("component", "lifetime"))))
	runner.Register(coresys.PhasePersist, stats)
	runner.Register(coresys.PhaseCleanup, system.NewCleanupSystem(w, log.With(zap.String("component", "cleanup"))))

	// 7. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	printSection("running")
	printStat("engines", runner.Len())
	printStat("tick", cfg.Sim.TickRate)
	fmt.Println()

	started := time.Now()
	for {
		select {
		case <-ticker.C:
			runner.Tick()
			if cfg.Sim.MaxFrames > 0 && runner.Frame() >= cfg.Sim.MaxFrames {
				log.Info("frame limit reached", zap.Uint64("frames", runner.Frame()))
				return shutdown(runner, w, stats, started, log)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return shutdown(runner, w, stats, started, log)
		}
	}
}

// shutdown disposes every engine, returns all live units to their pools and
// destroys what the pools retain.
func shutdown(runner *coresys.Runner, w *world.World, stats *system.StatsSystem, started time.Time, log *zap.Logger) error {
	live := w.Total()
	runner.Dispose()
	if err := w.ClearAll(); err != nil {
		return fmt.Errorf("clear units: %w", err)
	}
	w.Dispose()
	log.Info("stopped",
		zap.Uint64("frames", runner.Frame()),
		zap.Duration("uptime", time.Since(started)),
		zap.Int("live_at_exit", live),
		zap.Int("snapshots_written", stats.Written()))
	return nil
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
