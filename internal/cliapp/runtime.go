package cliapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreapp "autoload/internal/core/app"
	"autoload/internal/core/config"
	"autoload/internal/core/ports"
	"autoload/internal/shared/observability"
	"autoload/internal/shared/version"
)

// Run executes the CLI and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "autoload v%s\n", version.Version)
		return 0
	}
	if len(opts.args) > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", opts.args)
		return 2
	}

	configureLogging(stderr, opts.verbose)

	if err := config.LoadDotEnv(opts.envFile); err != nil {
		slog.Warn("failed to load environment file", "path", opts.envFile, "error", err)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "path", opts.configPath, "error", err)
		return 1
	}
	config.ApplyEnvOverrides(cfg)
	applyFlagOverrides(opts, cfg)
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to resolve working directory", "error", err)
		return 1
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		return 1
	}

	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "endpoint", cfg.Observability.OTLPEndpoint, "error", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	app, err := coreapp.New(cfg, paths, coreapp.Dependencies{})
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer app.Close()

	if opts.history > 0 {
		return printHistory(app, opts.history, stdout)
	}

	app.SetDryRun(opts.dryRun)
	result, err := app.Regenerate(ctx)
	if err != nil {
		fmt.Fprint(stderr, coreapp.FormatRunError(err))
		if !opts.watch {
			return 1
		}
	} else {
		fmt.Fprint(stdout, coreapp.FormatSummary(result))
	}

	if !opts.watch {
		return 0
	}

	app.SetUpdateHandler(func(update coreapp.Update) {
		if update.Err != nil {
			fmt.Fprint(stderr, coreapp.FormatRunError(update.Err))
			return
		}
		fmt.Fprint(stdout, coreapp.FormatSummary(update.Result))
	})
	if err := app.Watch(ctx); err != nil {
		slog.Error("failed to watch packages", "error", err)
		return 1
	}
	return 0
}

func printHistory(app *coreapp.App, limit int, stdout io.Writer) int {
	recorder := app.Recorder()
	if recorder == nil {
		slog.Error("history is disabled; set [history] enabled = true")
		return 1
	}
	runs, err := recorder.LoadRuns(limit)
	if err != nil {
		slog.Error("failed to load generation history", "error", err)
		return 1
	}
	last, ok, err := recorder.LatestSuccessful()
	if err != nil {
		slog.Error("failed to load last successful run", "error", err)
		return 1
	}
	var lastGood *ports.RunRecord
	if ok {
		lastGood = &last
	}
	fmt.Fprint(stdout, coreapp.FormatHistory(runs, lastGood))
	return 0
}

// loadConfig falls back to the built-in defaults when the default config file
// does not exist. An explicitly named file must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path != defaultConfigPath || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	slog.Debug("no config file, using defaults", "path", path)
	return config.DefaultConfig(), nil
}

func applyFlagOverrides(opts cliOptions, cfg *config.Config) {
	if opts.root != "" {
		cfg.Paths.InstallRoot = opts.root
	}
	if opts.format != "" {
		config.SetFormat(cfg, opts.format)
	}
	if opts.metricsFile != "" {
		cfg.Observability.MetricsFile = opts.metricsFile
	}
	if opts.history > 0 {
		cfg.History.Enabled = true
	}
}

func configureLogging(output io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
