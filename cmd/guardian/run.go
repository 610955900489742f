package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"trainerpass/guardian/pkg/cli"
	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/guard"
	"trainerpass/guardian/pkg/moderation/recorder"
	"trainerpass/guardian/pkg/moderation/retention"
	"trainerpass/guardian/pkg/moderation/storage"
	"trainerpass/guardian/pkg/policy"
	"trainerpass/guardian/pkg/policy/git"
	"trainerpass/guardian/pkg/server"
	"trainerpass/guardian/pkg/strikes"
	"trainerpass/guardian/pkg/telemetry/health"
	"trainerpass/guardian/pkg/telemetry/metrics"
	"trainerpass/guardian/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the moderation server",
	Long: `Start the Guardian moderation server with the specified configuration.

The server scans submitted text, records violations for moderator review and
tracks strikes against repeat offenders.

Examples:
  # Start with default config
  guardian run

  # Start with custom config
  guardian run --config /etc/guardian/config.yaml

  # Override listen address
  guardian run --listen 0.0.0.0:8080

  # Validate config and rules without starting server
  guardian run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and rules without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}
	if err := setupLogging(cfg.Telemetry.Logging); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if runFlags.dryRun {
		rules, err := offlineRules(cfg.Filter, "")
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		fmt.Fprintf(out, "✓ Configuration valid (rules version %s, %d active rules)\n",
			rules.Version(), len(rules.Current().Rules()))
		return nil
	}

	fmt.Fprintf(out, "Guardian v%s\n", Version)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	// Telemetry
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)

	// Rules
	var rulesRepo *git.Repository
	if cfg.Filter.Git.Enabled {
		rulesRepo, err = git.NewRepository(cfg.Filter.Git)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		if err := rulesRepo.Sync(ctx); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to sync rules repository: %w", err))
		}
		cfg.Filter.RulesFile = rulesRepo.RulesPath()
	}

	manager, err := policy.NewManager(cfg.Filter, policy.WithReloadHook(collector.RecordRuleReload))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	checker.RegisterCheck("rules", manager.HealthCheck)
	if rulesRepo != nil {
		watcher := git.NewWatcher(rulesRepo, cfg.Filter.Git.PollInterval, manager.Reload)
		go watchRules(ctx, slog.Default(), "git", watcher.Run)
	} else if cfg.Filter.Watch && cfg.Filter.RulesFile != "" {
		go watchRules(ctx, slog.Default(), "file", manager.Watch)
	}
	fmt.Fprintf(out, "✓ Rules loaded (version %s)\n", manager.Version())

	scheduler := retention.NewScheduler()
	guardOpts := []guard.Option{
		guard.WithMetrics(collector),
		guard.WithTracer(tracer),
	}
	srvOpts := server.Options{
		Rules:        manager,
		Query:        cfg.Moderation.Query,
		Export:       cfg.Moderation.Export,
		Health:       checker,
		HealthConfig: cfg.Telemetry.Health,
		Version: health.VersionInfo{
			Version:      Version,
			Commit:       GitCommit,
			BuildTime:    BuildDate,
			RulesVersion: manager.Version,
		},
		Tracer: tracer,
	}

	// Moderation records
	if cfg.Moderation.Enabled {
		store, err := storage.New(cfg.Moderation)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open moderation store: %w", err))
		}
		defer store.Close()

		rec := recorder.New(store, cfg.Moderation.Recorder, collector)
		// Deferred after the store so pending records drain before it closes.
		defer rec.Close()

		checker.RegisterCheck("moderation_store", health.PingCheck(store))
		pruner := retention.NewPruner(store, cfg.Moderation.Retention, collector)
		if err := scheduler.Add(ctx, "moderation-prune", cfg.Moderation.Retention.Schedule, func(ctx context.Context) error {
			_, err := pruner.Prune(ctx)
			return err
		}); err != nil {
			return cli.NewCommandError("run", err)
		}

		guardOpts = append(guardOpts, guard.WithRecorder(rec))
		srvOpts.Records = store
		fmt.Fprintf(out, "✓ Moderation store initialized (%s)\n", cfg.Moderation.Backend)
	}

	// Strikes
	if cfg.Strikes.Enabled {
		tracker, err := strikes.Open(cfg.Strikes)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open strike store: %w", err))
		}
		defer tracker.Close()

		checker.RegisterCheck("strikes", tracker.HealthCheck)
		if err := scheduler.Add(ctx, "strike-cleanup", cfg.Strikes.CleanupSchedule, tracker.CleanupExpired); err != nil {
			return cli.NewCommandError("run", err)
		}

		guardOpts = append(guardOpts, guard.WithStrikes(tracker))
		srvOpts.Strikes = tracker
		fmt.Fprintf(out, "✓ Strike tracking enabled (%s, threshold %d)\n", cfg.Strikes.Backend, cfg.Strikes.Threshold)
	}

	scheduler.Start(ctx)
	defer scheduler.Stop()
	for _, name := range scheduler.Jobs() {
		if next, ok := scheduler.NextRun(name); ok {
			slog.Debug("scheduled job", "job", name, "next_run", next)
		}
	}

	moderator, err := guard.New(manager, cfg.Enforcement, guardOpts...)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	srvOpts.Moderator = moderator

	if cfg.Telemetry.Metrics.Enabled {
		srvOpts.Metrics = collector.Handler()
		srvOpts.MetricsPath = cfg.Telemetry.Metrics.Path
	}

	srv, err := server.New(cfg.Server, srvOpts)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// watchRules runs a rule watcher until ctx is done and logs why it stopped.
func watchRules(ctx context.Context, logger *slog.Logger, source string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		logger.Error("rule watcher stopped", "source", source, "error", err)
	}
}
