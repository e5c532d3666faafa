package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"autoload/internal/core/errors"
	"autoload/internal/core/ports"
	"autoload/internal/shared/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ ports.Regenerator = (*App)(nil)

// Regenerate rebuilds every artifact from the current package set. Artifacts
// are written only after generation, alias building and rendering all
// succeeded, so a failed run leaves the previous artifacts untouched.
func (a *App) Regenerate(ctx context.Context) (ports.RegenerateResult, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "app.Regenerate", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Bool("dry_run", a.dryRun),
	))
	defer span.End()

	started := time.Now()
	record := ports.RunRecord{ID: runID, StartedAt: started.UTC()}

	result, err := a.regenerate(ctx, runID)
	result.Duration = time.Since(started)

	record.FinishedAt = time.Now().UTC()
	record.Packages = result.Packages
	record.Classes = result.Classes
	record.Prefixes = result.Prefixes
	record.Aliases = result.Aliases
	record.Written = result.Written
	record.Digest = result.Digest
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RunsTotal.WithLabelValues(ports.RunStatusFailed).Inc()
		record.Status = ports.RunStatusFailed
		record.Error = err.Error()
	} else {
		observability.RunsTotal.WithLabelValues(ports.RunStatusSuccess).Inc()
		record.Status = ports.RunStatusSuccess
	}

	a.record(record)
	a.exportMetrics()

	if err != nil {
		return result, err
	}
	span.SetAttributes(
		attribute.Int("classes", result.Classes),
		attribute.Int("aliases", result.Aliases),
		attribute.Int("written", len(result.Written)),
	)
	slog.Info("regenerated class loading information",
		"run_id", runID,
		"packages", result.Packages,
		"classes", result.Classes,
		"prefixes", result.Prefixes,
		"aliases", result.Aliases,
		"written", len(result.Written),
		"dry_run", a.dryRun,
		"duration", result.Duration,
	)
	return result, nil
}

func (a *App) regenerate(ctx context.Context, runID string) (ports.RegenerateResult, error) {
	out := ports.RegenerateResult{RunID: runID, DryRun: a.dryRun}

	generated, err := a.generator.Generate(ctx)
	if err != nil {
		return out, errors.AddContext(err, errors.CtxOperation, "generate")
	}
	out.Packages = len(generated.Packages)
	out.Skipped = len(generated.Skipped)
	out.Classes = len(generated.ClassMap)
	out.Prefixes = len(generated.Prefixes)

	start := time.Now()
	mapping, err := a.aliases.Build(ctx, generated.Packages)
	observability.StageDuration.WithLabelValues("alias").Observe(time.Since(start).Seconds())
	if err != nil {
		return out, errors.AddContext(err, errors.CtxOperation, "build_aliases")
	}
	out.Aliases = mapping.Len()

	start = time.Now()
	list := generated.Render(a.renderer, a.names)
	list = append(list, ports.Artifact{
		Name:    a.names.Aliases,
		Content: a.renderer.Aliases(a.names.Aliases, mapping),
	})
	observability.StageDuration.WithLabelValues("render").Observe(time.Since(start).Seconds())
	out.Artifacts = list
	out.Digest = digest(list)

	observability.ClassesDiscovered.Set(float64(out.Classes))
	observability.AliasesDiscovered.Set(float64(out.Aliases))

	if a.dryRun {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	start = time.Now()
	written, err := a.writer.WriteAll(list)
	observability.StageDuration.WithLabelValues("write").Observe(time.Since(start).Seconds())
	out.Written = written
	if err != nil {
		return out, errors.AddContext(err, errors.CtxOperation, "write_artifacts")
	}
	return out, nil
}

func (a *App) record(run ports.RunRecord) {
	if a.recorder == nil || a.dryRun {
		return
	}
	if err := a.recorder.RecordRun(run); err != nil {
		slog.Warn("failed to record generation run", "run_id", run.ID, "error", err)
	}
}

func (a *App) exportMetrics() {
	if a.Paths.MetricsFile == "" {
		return
	}
	if err := observability.WriteTextfile(a.Paths.MetricsFile); err != nil {
		slog.Warn("failed to write metrics textfile", "path", a.Paths.MetricsFile, "error", err)
	}
}

// digest fingerprints a rendered artifact set.
func digest(list []ports.Artifact) string {
	h := sha256.New()
	for _, art := range list {
		h.Write([]byte(art.Name))
		h.Write([]byte{0})
		h.Write([]byte(art.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
