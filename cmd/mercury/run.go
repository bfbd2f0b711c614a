package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/mercury/pkg/backend"
	"mercator-hq/mercury/pkg/cli"
	"mercator-hq/mercury/pkg/config"
	"mercator-hq/mercury/pkg/history"
	"mercator-hq/mercury/pkg/history/recorder"
	"mercator-hq/mercury/pkg/history/retention"
	"mercator-hq/mercury/pkg/history/storage"
	"mercator-hq/mercury/pkg/server"
	"mercator-hq/mercury/pkg/telemetry/logging"
	"mercator-hq/mercury/pkg/telemetry/metrics"
	"mercator-hq/mercury/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Mercury gateway server",
	Long: `Start the standalone gateway server with the specified configuration.

The server forwards /api and /health traffic to the currently configured
backend, serves the frontend bundle, and exposes /config/backend for
runtime reconfiguration.

Examples:
  # Start with default config
  mercury run

  # Start with custom config
  mercury run --config /etc/mercury/config.yaml

  # Override listen address
  mercury run --listen 0.0.0.0:8025

  # Validate config without starting server
  mercury run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    os.Stdout,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.Install()

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Mercury v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	// Backend location store. The server's gateway and config endpoint,
	// the watcher, and the CLI all operate on this one file.
	store := backend.NewFileStore(cfg.Backend.StorePath, logger.Slog())
	fmt.Printf("✓ Backend store: %s (current: %s)\n", cfg.Backend.StorePath, store.Read())

	srv := server.NewServer(cfg, store)
	srv.SetBuildInfo(server.BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		srv.SetMetrics(collector)
	}

	// Tracing
	if cfg.Telemetry.Tracing.Enabled {
		tracer, err := tracing.New(&cfg.Telemetry.Tracing)
		if err != nil {
			slog.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracer.Shutdown(context.Background())
			fmt.Println("✓ Tracing initialized")
		}
	}

	// Traffic history
	if cfg.History.Enabled {
		historyStorage, err := openHistoryStorage(cfg)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer historyStorage.Close()

		rec := recorder.NewRecorder(historyStorage, &recorder.Config{
			Enabled:        true,
			AsyncBuffer:    cfg.History.Recorder.AsyncBuffer,
			WriteTimeout:   cfg.History.Recorder.WriteTimeout,
			CaptureHeaders: cfg.History.Recorder.CaptureHeaders,
			RedactHeaders:  cfg.History.Recorder.RedactHeaders,
			MaxFieldLength: cfg.History.Recorder.MaxFieldLength,
		})
		defer rec.Close()
		srv.SetRecorder(rec)

		// Storage connectivity feeds readiness.
		srv.Checker().RegisterCheck("history", func(ctx context.Context) error {
			_, err := historyStorage.Count(ctx, &history.Query{Limit: 1})
			return err
		})

		if cfg.History.Retention.PruneSchedule != "" {
			pruner := retention.NewPruner(historyStorage, &retention.Config{
				RetentionDays:       cfg.History.Retention.Days,
				PruneSchedule:       cfg.History.Retention.PruneSchedule,
				ArchiveBeforeDelete: cfg.History.Retention.ArchiveBeforeDelete,
				ArchivePath:         cfg.History.Retention.ArchivePath,
				MaxRecords:          cfg.History.Retention.MaxRecords,
			})
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextPruning(); next != nil {
					slog.Debug("history retention scheduler started", "next_pruning", next)
				}
			}
		}

		fmt.Println("✓ Traffic history initialized")
	}

	// Watch the store file so external edits are logged and counted.
	if cfg.Backend.Watch {
		watcher, err := backend.NewWatcher(store, cfg.Backend.WatchDebounce, logger.Slog())
		if err != nil {
			slog.Warn("store watcher unavailable", "error", err)
		} else {
			go func() {
				err := watcher.Watch(ctx, func(origin string) {
					slog.Info("backend location changed on disk", "backend", origin)
					if collector != nil {
						collector.RecordReconfiguration("file")
					}
				})
				if err != nil {
					slog.Warn("store watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Config endpoint: http://%s/config/backend\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// openHistoryStorage creates the configured history backend.
func openHistoryStorage(cfg *config.Config) (history.Storage, error) {
	switch cfg.History.Backend {
	case "sqlite":
		return storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.History.SQLite.Path,
			MaxOpenConns: cfg.History.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.History.SQLite.MaxIdleConns,
			WALMode:      cfg.History.SQLite.WALMode,
			BusyTimeout:  cfg.History.SQLite.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.History.Backend)
	}
}
