package history

import (
	"errors"

	"autoload/internal/core/ports"
)

// Adapter bridges Store to the core RunRecorder port.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) RecordRun(record ports.RunRecord) error {
	_, err := a.store.RecordRun(Run{
		ID:         record.ID,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
		Packages:   record.Packages,
		Classes:    record.Classes,
		Prefixes:   record.Prefixes,
		Aliases:    record.Aliases,
		Written:    record.Written,
		Digest:     record.Digest,
		Status:     record.Status,
		Error:      record.Error,
	})
	return err
}

func (a *Adapter) LoadRuns(limit int) ([]ports.RunRecord, error) {
	runs, err := a.store.LoadRuns(limit)
	if err != nil {
		return nil, err
	}
	out := make([]ports.RunRecord, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRecord(r))
	}
	return out, nil
}

// LatestSuccessful reports false when no run has succeeded yet.
func (a *Adapter) LatestSuccessful() (ports.RunRecord, bool, error) {
	run, err := a.store.LatestSuccessful()
	if errors.Is(err, ErrNoRuns) {
		return ports.RunRecord{}, false, nil
	}
	if err != nil {
		return ports.RunRecord{}, false, err
	}
	return toRecord(run), true, nil
}

func toRecord(r Run) ports.RunRecord {
	return ports.RunRecord{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Packages:   r.Packages,
		Classes:    r.Classes,
		Prefixes:   r.Prefixes,
		Aliases:    r.Aliases,
		Written:    r.Written,
		Digest:     r.Digest,
		Status:     r.Status,
		Error:      r.Error,
	}
}
