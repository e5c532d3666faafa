package app

import (
	"fmt"
	"log/slog"
	"sync"

	"autoload/internal/core/config"
	"autoload/internal/core/errors"
	"autoload/internal/core/ports"
	"autoload/internal/data/artifacts"
	"autoload/internal/data/history"
	"autoload/internal/data/registry"
	"autoload/internal/engine/alias"
	"autoload/internal/engine/classmap"
	"autoload/internal/engine/manifest"
	"autoload/internal/engine/render"
	"autoload/internal/engine/scanner"
)

// Update is emitted after every regeneration attempt in watch mode.
type Update struct {
	Result ports.RegenerateResult
	Err    error
}

// Dependencies overrides collaborators that would otherwise be built from
// the configuration. Nil fields are built.
type Dependencies struct {
	Registry ports.PackageRegistry
	Writer   ports.ArtifactWriter
	Recorder ports.RunRecorder
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	registry  ports.PackageRegistry
	generator *classmap.Generator
	aliases   *alias.Builder
	renderer  render.Renderer
	names     render.FileNames
	writer    ports.ArtifactWriter
	recorder  ports.RunRecorder
	store     *history.Store

	dryRun bool

	// runMu serializes regenerations; the generator memo is per run.
	runMu sync.Mutex

	updateMu sync.RWMutex
	onUpdate func(Update)
}

func New(cfg *config.Config, paths config.ResolvedPaths, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	if paths.InstallRoot == "" {
		return nil, errors.New(errors.CodeValidationError, "install root is required")
	}

	reg := deps.Registry
	if reg == nil {
		var err error
		reg, err = buildRegistry(cfg, paths)
		if err != nil {
			return nil, err
		}
	}

	syntax := scanner.PHPSyntax()
	syntax.Extensions = append([]string(nil), cfg.Scan.Extensions...)
	sc, err := scanner.New(scanner.Options{
		Syntax:       syntax,
		ExcludeDirs:  cfg.Scan.ExcludeDirs,
		ExcludeFiles: cfg.Scan.ExcludeFiles,
		Duplicates:   cfg.Scan.Duplicates,
	})
	if err != nil {
		return nil, err
	}

	gen, err := classmap.New(reg, manifest.NewReader(cfg.Manifest.File), sc, classmap.Options{
		InstallRoot:   paths.InstallRoot,
		Workers:       cfg.Scan.Workers,
		PackageErrors: cfg.Generator.PackageErrors,
	})
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(render.Options{
		Format:         cfg.Render.Format,
		RootVariable:   cfg.Render.RootVariable,
		RootExpression: cfg.Render.RootExpression,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Paths:     paths,
		registry:  reg,
		generator: gen,
		aliases:   alias.NewBuilder(cfg.Alias.Files, cfg.Generator.PackageErrors == classmap.PackageErrorsSkip),
		renderer:  renderer,
		names: render.FileNames{
			ClassMap: cfg.Render.ClassMapFile,
			Prefixes: cfg.Render.PrefixFile,
			Aliases:  cfg.Render.AliasFile,
		},
		writer:   deps.Writer,
		recorder: deps.Recorder,
	}
	if a.writer == nil {
		a.writer = artifacts.NewWriter(paths.OutputDir)
	}
	if a.recorder == nil && cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.store = store
		a.recorder = history.NewAdapter(store)
	}
	return a, nil
}

func buildRegistry(cfg *config.Config, paths config.ResolvedPaths) (ports.PackageRegistry, error) {
	switch cfg.Registry.Mode {
	case config.RegistryModeFile:
		return registry.NewFileRegistry(paths.RegistryFile, paths.InstallRoot, cfg.Registry.FrameworkPrefix), nil
	case config.RegistryModeDirectory, "":
		return registry.NewDirectoryRegistry(paths.InstallRoot, cfg.Registry.FrameworkPrefix, cfg.Registry.Patterns, cfg.Registry.Markers)
	default:
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown registry mode %q", cfg.Registry.Mode))
	}
}

// SetDryRun makes Regenerate render without writing artifacts.
func (a *App) SetDryRun(dryRun bool) {
	a.dryRun = dryRun
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// Recorder returns the run ledger, or nil when history is disabled.
func (a *App) Recorder() ports.RunRecorder {
	return a.recorder
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if err != nil {
		slog.Warn("failed to close history store", "error", err)
	}
	return err
}
