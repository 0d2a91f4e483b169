// Package main runs the simulation engine behind an HTTP API:
// - Engine (continuous): one tick per interval while running
// - Feed: websocket stream of every tick
// - Archive (optional): samples to ClickHouse, run checkpoints to PostgreSQL
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"mining-sim-lab/internal/archive"
	"mining-sim-lab/internal/config"
	"mining-sim-lab/internal/feed"
	"mining-sim-lab/internal/observability"
	"mining-sim-lab/internal/reporting"
	"mining-sim-lab/internal/simulation"
	"mining-sim-lab/internal/storage"
	chstore "mining-sim-lab/internal/storage/clickhouse"
	"mining-sim-lab/internal/storage/memory"
	"mining-sim-lab/internal/storage/migrations"
	pgstore "mining-sim-lab/internal/storage/postgres"
)

// archives holds the optional archive sinks.
type archives struct {
	samples  storage.SampleArchive
	runs     storage.RunArchive
	sampleDB string
	runDB    string
}

func main() {
	// Load .env and environment; flags override
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	interval := flag.Duration("tick-interval", cfg.TickInterval, "Wall-clock time per simulated second")
	seed := flag.Int64("seed", cfg.Seed, "Random seed (0 = time based)")
	coin := flag.String("coin", cfg.Coin, "Initial coin (BTC, ETH, LTC, DOGE)")
	historySize := flag.Int("history", cfg.HistorySize, "Samples kept in the history window")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string for run checkpoints")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string for samples")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory archives instead of PostgreSQL/ClickHouse")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory for the CSV and report written at shutdown")
	autostart := flag.Bool("autostart", false, "Start the engine immediately")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logJSON := flag.Bool("log-json", false, "Log in JSON format")

	flag.Parse()

	// Setup logger
	base, err := observability.NewLogger(*logLevel, *logJSON, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	logger := base.WithField("component", "server")

	cfg.Addr = *addr
	cfg.TickInterval = *interval
	cfg.Seed = *seed
	cfg.Coin = *coin
	cfg.HistorySize = *historySize
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create archives
	arch, cleanup, err := createArchives(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create archives")
	}
	defer cleanup()

	// Create engine
	engine, err := simulation.NewEngine(simulation.EngineOptions{
		Coin:        cfg.Coin,
		Random:      simulation.NewSeededSource(cfg.Seed),
		Interval:    cfg.TickInterval,
		HistorySize: cfg.HistorySize,
		Logger:      logrus.NewEntry(base),
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create engine")
	}

	hub := feed.NewHub(nil, logrus.NewEntry(base))
	engine.OnTick(hub.Publish)

	recorder := archive.NewRecorder(archive.RecorderOptions{
		Samples:        arch.samples,
		Runs:           arch.runs,
		SampleDatabase: arch.sampleDB,
		RunDatabase:    arch.runDB,
		Logger:         logrus.NewEntry(base),
	})
	recorder.Attach(engine)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		recorder.Run(ctx)
	}()

	server := &Server{
		engine:  engine,
		hub:     hub,
		runs:    arch.runs,
		reports: reporting.NewGenerator(),
		logger:  logger,
		runCtx:  ctx,
		started: time.Now(),
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.Addr).Info("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server error")
			cancel()
		}
	}()

	if *autostart {
		engine.Start(ctx)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("received signal, initiating graceful shutdown")
	case <-ctx.Done():
	}

	go func() {
		// Second signal forces exit
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Warn("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	// 1. Stop ticking and checkpoint the run
	engine.Shutdown()

	// 2. Write the final CSV and report
	writeOutputs(engine, *outputDir, logger)

	// 3. Stop serving, drop feed clients, flush archives
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP shutdown")
	}
	hub.Close()
	cancel()
	wg.Wait()

	logger.Info("shutdown complete")
}

// createArchives creates the archive sinks. Without --use-memory each
// database is used only when its DSN is set.
func createArchives(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *logrus.Entry) (*archives, func(), error) {
	if useMemory {
		return &archives{
			samples: memory.NewSampleArchive(),
			runs:    memory.NewRunArchive(),
		}, func() {}, nil
	}

	arch := &archives{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// PostgreSQL (run checkpoints)
	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		arch.runs = pgstore.NewRunArchive(pool)
		arch.runDB = "postgres"
	} else {
		logger.Warn("POSTGRES_DSN not set, run checkpoints are not archived")
	}

	// ClickHouse (samples)
	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		arch.samples = chstore.NewSampleArchive(conn)
		arch.sampleDB = "clickhouse"
	} else {
		logger.Warn("CLICKHOUSE_DSN not set, samples are not archived")
	}

	return arch, cleanup, nil
}

// writeOutputs writes the CSV export and Markdown report for the final state.
func writeOutputs(engine *simulation.Engine, dir string, logger *logrus.Entry) {
	if dir == "" {
		return
	}

	samples := engine.Samples()
	csvPath, err := reporting.WriteCSVFile(dir, samples)
	if err != nil {
		logger.WithError(err).Error("write CSV export")
	} else {
		logger.WithField("path", csvPath).Info("CSV export written")
	}

	report := reporting.NewGenerator().Generate(engine.Snapshot(), engine.Breakdown(), samples)
	reportPath, err := reporting.WriteMarkdownFile(dir, report)
	if err != nil {
		logger.WithError(err).Error("write report")
		return
	}
	logger.WithField("path", reportPath).Info("report written")
}
