// # internal/engine/classmap/classmap.go
package classmap

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"autoload/internal/core/errors"
	"autoload/internal/core/ports"
	"autoload/internal/engine/manifest"
	"autoload/internal/engine/paths"
	"autoload/internal/engine/render"
	"autoload/internal/engine/scanner"
	"autoload/internal/shared/observability"
	"autoload/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	PackageErrorsAbort = "abort"
	PackageErrorsSkip  = "skip"
)

type Options struct {
	// InstallRoot is the directory every generated path is made relative to.
	InstallRoot string
	// Workers bounds concurrent package scans; <= 0 means runtime.NumCPU().
	Workers int
	// PackageErrors is PackageErrorsAbort or PackageErrorsSkip and applies to
	// malformed manifests only.
	PackageErrors string
}

// Result holds the merged tables of one run. Paths are install-root relative.
type Result struct {
	ClassMap map[string]string
	Prefixes map[string][]string
	// Packages are the active packages in merge order.
	Packages []ports.Package
	// Skipped lists packages whose manifest was ignored under the skip policy.
	Skipped []string
}

// PackageInfo is the contribution of a single package.
type PackageInfo struct {
	Package  ports.Package
	Classes  map[string]string
	Prefixes map[string][]string
	Skipped  bool
}

// Generator builds class loading information. Its active-package list is
// memoized per run and cleared at the start of every Generate.
type Generator struct {
	registry    ports.PackageRegistry
	manifests   *manifest.Reader
	scanner     *scanner.Scanner
	installRoot string
	workers     int
	skipErrors  bool

	mu     sync.Mutex
	active []ports.Package
	loaded bool
}

func New(registry ports.PackageRegistry, manifests *manifest.Reader, sc *scanner.Scanner, opts Options) (*Generator, error) {
	if registry == nil || manifests == nil || sc == nil {
		return nil, errors.New(errors.CodeValidationError, "generator requires a registry, manifest reader and scanner")
	}
	if opts.InstallRoot == "" {
		return nil, errors.New(errors.CodeValidationError, "generator requires an install root")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var skip bool
	switch opts.PackageErrors {
	case "", PackageErrorsAbort:
	case PackageErrorsSkip:
		skip = true
	default:
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown package error policy %q", opts.PackageErrors))
	}
	return &Generator{
		registry:    registry,
		manifests:   manifests,
		scanner:     sc,
		installRoot: paths.Canonicalize(opts.InstallRoot),
		workers:     workers,
		skipErrors:  skip,
	}, nil
}

// Reset drops the memoized active-package list.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = nil
	g.loaded = false
}

// ActivePackages returns the registry's packages minus framework packages,
// loading them on first use after a Reset.
func (g *Generator) ActivePackages(ctx context.Context) ([]ports.Package, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loaded {
		return g.active, nil
	}
	all, err := g.registry.Packages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	g.active = FilterFramework(all)
	g.loaded = true
	return g.active, nil
}

// FilterFramework drops framework packages, keeping order.
func FilterFramework(packages []ports.Package) []ports.Package {
	out := make([]ports.Package, 0, len(packages))
	for _, pkg := range packages {
		if pkg.Framework {
			slog.Debug("skipping framework package", "package", pkg.Key)
			continue
		}
		out = append(out, pkg)
	}
	return out
}

// Generate refreshes the package list and builds the merged tables. Any
// error aborts the run and no result is returned.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "classmap.Generate")
	defer span.End()

	g.Reset()
	packages, err := g.ActivePackages(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	result, err := g.GeneratePackages(ctx, packages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("packages", len(result.Packages)),
		attribute.Int("classes", len(result.ClassMap)),
	)
	return result, nil
}

// GeneratePackages builds the tables for an explicit package list. Framework
// packages are ignored. Packages are scanned concurrently and merged in list
// order, so collisions resolve exactly as in a sequential run.
func (g *Generator) GeneratePackages(ctx context.Context, packages []ports.Package) (*Result, error) {
	start := time.Now()
	defer func() {
		observability.StageDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	}()

	packages = FilterFramework(packages)
	infos := make([]*PackageInfo, len(packages))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)
	for i, pkg := range packages {
		group.Go(func() error {
			info, err := g.ForPackage(gctx, pkg)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return merge(infos), nil
}

func merge(infos []*PackageInfo) *Result {
	result := &Result{
		ClassMap: make(map[string]string),
		Prefixes: make(map[string][]string),
		Packages: make([]ports.Package, 0, len(infos)),
	}
	owner := make(map[string]string)
	for _, info := range infos {
		result.Packages = append(result.Packages, info.Package)
		if info.Skipped {
			result.Skipped = append(result.Skipped, info.Package.Key)
		}
		for _, class := range util.SortedStringKeys(info.Classes) {
			if prev, ok := owner[class]; ok && prev != info.Package.Key {
				slog.Debug("class overridden by later package", "class", class, "previous", prev, "package", info.Package.Key)
			}
			result.ClassMap[class] = info.Classes[class]
			owner[class] = info.Package.Key
		}
		for _, prefix := range util.SortedStringKeys(info.Prefixes) {
			result.Prefixes[prefix] = util.AppendUnique(result.Prefixes[prefix], info.Prefixes[prefix]...)
		}
	}
	return result
}

// ForPackage reads one package's manifest and scans its declarations.
func (g *Generator) ForPackage(ctx context.Context, pkg ports.Package) (*PackageInfo, error) {
	ctx, span := observability.Tracer.Start(ctx, "classmap.ForPackage",
		trace.WithAttributes(attribute.String("package", pkg.Key)))
	defer span.End()

	start := time.Now()
	info, err := g.forPackage(ctx, pkg)
	observability.PackageScanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.AddContext(err, errors.CtxPackage, pkg.Key)
	}
	observability.PackagesScannedTotal.Inc()
	span.SetAttributes(attribute.Int("classes", len(info.Classes)))
	return info, nil
}

func (g *Generator) forPackage(ctx context.Context, pkg ports.Package) (*PackageInfo, error) {
	info := &PackageInfo{
		Package:  pkg,
		Classes:  make(map[string]string),
		Prefixes: make(map[string][]string),
	}
	if !paths.Within(g.installRoot, pkg.Path) {
		return nil, errors.PathOutsideRoot(g.installRoot, paths.Canonicalize(pkg.Path))
	}

	m, err := g.manifests.Read(pkg.Path)
	switch {
	case err == nil:
		for _, nd := range m.NamespaceDirs(pkg.Path) {
			rel, err := paths.RelativizeDir(g.installRoot, nd.Dir)
			if err != nil {
				return nil, err
			}
			info.Prefixes[nd.Prefix] = util.AppendUnique(info.Prefixes[nd.Prefix], rel)
		}
	case stderrors.Is(err, manifest.ErrNotFound):
		slog.Debug("package has no manifest", "package", pkg.Key)
	case g.skipErrors && errors.IsCode(err, errors.CodeManifestParse):
		slog.Warn("ignoring malformed package manifest", "package", pkg.Key, "error", err)
		observability.PackagesSkippedTotal.Inc()
		info.Skipped = true
	default:
		return nil, err
	}

	decls, err := g.scanner.Scan(ctx, pkg.Path)
	if err != nil {
		return nil, err
	}
	for _, decl := range decls {
		rel, err := paths.Relativize(g.installRoot, decl.File)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxClass, decl.Name)
		}
		info.Classes[decl.Name] = rel
	}
	return info, nil
}

// Render serializes the class map and prefix tables.
func (r *Result) Render(renderer render.Renderer, names render.FileNames) []ports.Artifact {
	return []ports.Artifact{
		{Name: names.ClassMap, Content: renderer.ClassMap(names.ClassMap, r.ClassMap)},
		{Name: names.Prefixes, Content: renderer.Prefixes(names.Prefixes, r.Prefixes)},
	}
}
