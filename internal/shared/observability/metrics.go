package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoload_runs_total",
		Help: "Total number of generation runs by outcome.",
	}, []string{"status"})

	PackagesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoload_packages_scanned_total",
		Help: "Total number of packages scanned for class declarations.",
	})

	PackagesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoload_packages_skipped_total",
		Help: "Total number of packages whose contribution was skipped after an error.",
	})

	ClassesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autoload_classes_discovered",
		Help: "Number of classes in the most recently generated class map.",
	})

	AliasesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autoload_aliases_discovered",
		Help: "Number of class aliases in the most recently generated alias map.",
	})

	PackageScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoload_package_scan_seconds",
		Help:    "Time spent scanning a single package.",
		Buckets: prometheus.DefBuckets,
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autoload_stage_seconds",
		Help:    "Time spent in each regeneration stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	ArtifactWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoload_artifact_writes_total",
		Help: "Artifact write attempts by result (written, unchanged).",
	}, []string{"result"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoload_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoload_watcher_throttled_total",
		Help: "Total number of regenerations deferred by the watch rate limit.",
	})
)

// WriteTextfile exports every registered metric in the node-exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
