package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/OCAP2/orbat/internal/battle"
	"github.com/OCAP2/orbat/internal/config"
	"github.com/OCAP2/orbat/internal/influx"
	"github.com/OCAP2/orbat/internal/logging"
	"github.com/OCAP2/orbat/internal/mission"
	"github.com/OCAP2/orbat/internal/recorder"
	"github.com/OCAP2/orbat/internal/unit"
	"github.com/OCAP2/orbat/pkg/core"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const AppName = "orbat"

var (
	// SlogManager handles slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the global structured logger
	Logger *slog.Logger

	// ZLogger feeds the database, influx and dispatcher adapters
	ZLogger zerolog.Logger

	// LogFile is the session log file, nil if it could not be opened
	LogFile *os.File

	// MissionContext tags log records with the battle and frame
	MissionContext = mission.NewContext()

	SessionStartTime = time.Now()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if Logger != nil {
			Logger.Error("Run failed", "error", err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	flags.String("config", ".", "directory holding "+config.FileName)
	flags.String("env", ".env", "dotenv file loaded before the config")
	flags.Bool("discoveries", false, "record every enemy discovery")
	flags.String("logLevel", "info", "log level (debug, info, warn, error)")
	flags.String("sim.name", "Skirmish", "battle name")
	flags.Float64("sim.tick", 1.0, "simulated seconds per step")
	flags.Int("sim.ticks", 600, "maximum number of steps, 0 runs until decided")
	flags.Int("sim.sampleEvery", 10, "steps between recorded snapshots")
	flags.String("storage.type", "memory", "storage backend (memory, gorm)")
	flags.StringArray("position", nil, "spawn point of a side as side=x,y or side=POINT(x y), repeatable")
	return flags
}

func run(ctx context.Context, args []string, out io.Writer) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	configDir, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env")
	discoveries, _ := flags.GetBool("discoveries")
	positionFlags, _ := flags.GetStringArray("position")
	positions, err := config.ParsePositions(positionFlags)
	if err != nil {
		return err
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	if err := config.BindFlags(flags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	configErr := config.Load(configDir)

	closeLogs := setupLogging()
	defer closeLogs()

	if configErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		Logger.Info("Loaded config", "dir", configDir)
	}

	simCfg := config.GetSimConfig()
	b, err := deploy(simCfg, positions)
	if err != nil {
		return err
	}

	storageCfg := config.GetStorageConfig()
	backend, closeStorage, err := createStorageBackend(storageCfg)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	defer closeStorage()
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)

	sampleEvery := uint(max(simCfg.SampleEvery, 1))
	rec := recorder.New(backend, sampleEvery, Logger)
	if err := rec.Start(b.Name(), b.Tick(), SessionStartTime, b.Armies()); err != nil {
		return err
	}
	rec.Attach(b.Dispatcher(), discoveries)
	if err := rec.Sample(0, 0); err != nil {
		return err
	}

	metrics := connectInflux(ctx)
	defer func() {
		if metrics != nil {
			if err := metrics.Close(); err != nil {
				Logger.Warn("Failed to close InfluxDB manager", "error", err)
			}
		}
	}()

	Logger.Info("Battle started", "battle", b.Name(), "ticks", simCfg.Ticks, "tick", b.Tick())
	runErr := b.Run(ctx, simCfg.Ticks, func(frame uint, _ []*unit.Platoon) {
		if err := rec.Sample(frame, b.Clock()); err != nil {
			Logger.Error("Failed to sample battle", "frame", frame, "error", err)
		}
		if metrics != nil && frame%sampleEvery == 0 {
			if err := metrics.WriteSides(b.Name(), uint64(frame), b.Clock(), b.Sides(), time.Now()); err != nil {
				Logger.Error("Failed to write side strength", "frame", frame, "error", err)
			}
		}
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		Logger.Warn("Battle interrupted", "frame", b.Frame())
	}

	if err := rec.Finish(); err != nil {
		return err
	}

	writeReport(out, b, rec.Stats())
	return nil
}

// setupLogging opens the session log file and configures the slog and
// zerolog loggers. The returned func closes what was opened.
func setupLogging() func() {
	level := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")

	SlogManager = logging.NewSlogManager()
	SlogManager.SetContextProvider(logging.MissionContextProvider(MissionContext))

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logs dir: %v\n", err)
	}
	logPath := logging.LogFilePath(logsDir, AppName, SessionStartTime)
	var err error
	LogFile, err = os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create/open log file: %v\n", err)
		LogFile = nil
	}

	var extra []slog.Handler
	var gelfCloser io.Closer
	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		w, err := logging.NewGelfWriter(graylogCfg.Address, AppName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Graylog: %v\n", err)
		} else {
			gelfCloser = w
			extra = append(extra, logging.NewGelfHandler(w, slog.LevelInfo))
		}
	}

	var fileWriter io.Writer
	zlOut := io.Writer(os.Stderr)
	if LogFile != nil {
		fileWriter = LogFile
		zlOut = LogFile
	}
	SlogManager.Setup(fileWriter, level, extra...)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)

	zlLevel, err := zerolog.ParseLevel(level)
	if err != nil || zlLevel == zerolog.NoLevel {
		zlLevel = zerolog.InfoLevel
	}
	ZLogger = zerolog.New(zlOut).Level(zlLevel).With().Timestamp().Str("app", AppName).Logger()

	if LogFile != nil {
		Logger.Info("Logging to file", "path", logPath)
	}

	return func() {
		if gelfCloser != nil {
			_ = gelfCloser.Close()
		}
		if LogFile != nil {
			_ = LogFile.Close()
		}
	}
}

// deploy builds the battle and every army of the configured order of battle.
// positions overrides the spawn point of the armies of a side.
func deploy(simCfg config.SimConfig, positions map[int]core.Vec2) (*battle.Battle, error) {
	b, err := battle.New(battle.Config{
		Name:           simCfg.Name,
		Tick:           simCfg.Tick,
		CellSize:       simCfg.CellSize,
		Doctrine:       simCfg.Doctrine.Doctrine(),
		Logger:         Logger,
		DispatchLogger: logging.NewDispatcherLogger(ZLogger),
		Mission:        MissionContext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create battle: %w", err)
	}

	orders, err := config.GetOrderOfBattle()
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		branch, brigades, err := order.Resolve()
		if err != nil {
			return nil, fmt.Errorf("army of side %d: %w", order.Side, err)
		}
		if pos, ok := positions[order.Side]; ok {
			order.Position = pos
		}
		b.Deploy(core.Side(order.Side), branch, order.Position, brigades)
	}
	return b, nil
}

// connectInflux returns nil when InfluxDB is disabled or unusable.
func connectInflux(ctx context.Context) *influx.Manager {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}
	backupPath := filepath.Join(
		config.GetString("logsDir"),
		fmt.Sprintf("%s_influx_%s.log.gz", AppName, SessionStartTime.Format("20060102_150405")),
	)
	m := influx.NewManager(ZLogger, cfg, backupPath)
	if err := m.Connect(ctx); err != nil {
		SlogManager.WriteLog("connectInflux", fmt.Sprintf("InfluxDB unavailable: %v", err), "WARN")
		return nil
	}
	return m
}
