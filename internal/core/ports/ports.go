package ports

import (
	"context"
	"time"
)

// Package is one installed unit of code as enumerated by a registry.
type Package struct {
	Key string
	// Path is the absolute package root.
	Path string
	// Framework marks packages under the reserved framework folder; they are
	// indexed elsewhere and never contribute to generated artifacts.
	Framework bool
}

// PackageRegistry enumerates installed packages in load order.
type PackageRegistry interface {
	Packages(ctx context.Context) ([]Package, error)
}

// Artifact is a rendered output file, named relative to the output directory.
type Artifact struct {
	Name    string
	Content string
}

// ArtifactWriter persists rendered artifacts. Implementations must never leave a
// partially written artifact in place.
type ArtifactWriter interface {
	WriteAll(artifacts []Artifact) ([]string, error)
}

// RunRecord describes one generation attempt.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Packages   int
	Classes    int
	Prefixes   int
	Aliases    int
	Written    []string
	Digest     string
	Status     string
	Error      string
}

const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// RunRecorder persists generation attempts for later inspection.
type RunRecorder interface {
	RecordRun(run RunRecord) error
	LoadRuns(limit int) ([]RunRecord, error)
	// LatestSuccessful returns false when no run has succeeded yet.
	LatestSuccessful() (RunRecord, bool, error)
}

// RegenerateResult summarizes a completed regeneration.
type RegenerateResult struct {
	RunID    string
	Packages int
	Skipped  int
	Classes  int
	Prefixes int
	Aliases  int
	Written  []string
	// Artifacts holds the rendered files, including unchanged ones.
	Artifacts []Artifact
	Digest    string
	DryRun    bool
	Duration  time.Duration
}

// Regenerator is the driving port used by the CLI and watch loop.
type Regenerator interface {
	Regenerate(ctx context.Context) (RegenerateResult, error)
}
