package app

import (
	"context"
	"log/slog"

	"autoload/internal/core/watcher"
	"autoload/internal/shared/observability"
	"autoload/internal/shared/util"
)

// Watch regenerates whenever a source file, manifest or alias file below an
// active package root changes. It blocks until ctx is cancelled. A failed
// regeneration is logged and the previous artifacts stay in place.
func (a *App) Watch(ctx context.Context) error {
	packages, err := a.generator.ActivePackages(ctx)
	if err != nil {
		return err
	}
	roots := make([]string, 0, len(packages))
	for _, pkg := range packages {
		roots = util.AppendUnique(roots, pkg.Path)
	}

	trigger := make(chan struct{}, 1)
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Scan.ExcludeDirs,
		a.Config.Scan.ExcludeFiles,
		func(paths []string) {
			a.HandleChanges(paths)
			select {
			case trigger <- struct{}{}:
			default:
			}
		},
	)
	if err != nil {
		return err
	}
	defer w.Close()

	w.SetFilters(a.Config.Scan.Extensions, a.watchedNames())
	if err := w.Watch(roots); err != nil {
		return err
	}
	slog.Info("watching packages for changes", "roots", len(roots))

	limiter := util.PerMinute(a.Config.Watch.MaxPerMinute)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
		}
		if !limiter.Allow(1) {
			observability.WatcherThrottledTotal.Inc()
			slog.Debug("regeneration throttled", "max_per_minute", a.Config.Watch.MaxPerMinute)
			if err := limiter.Wait(ctx, 1); err != nil {
				return nil
			}
		}
		result, err := a.Regenerate(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("regeneration failed, previous artifacts kept", "error", err)
		}
		a.emitUpdate(Update{Result: result, Err: err})
	}
}

// HandleChanges logs a debounced batch of changed paths.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	for _, path := range paths {
		slog.Debug("changed", "path", path)
	}
}

func (a *App) watchedNames() []string {
	names := []string{a.Config.Manifest.File}
	return append(names, a.Config.Alias.Files...)
}
