package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "covid_build_info",
		Help: "Build information of the covid data aggregation service",
	}, []string{"version"})

	SnapshotFilesLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covid_snapshot_files_loaded_total",
		Help: "Number of snapshot files read successfully",
	})
	SnapshotFilesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covid_snapshot_files_skipped_total",
		Help: "Number of snapshot files skipped, by reason",
	}, []string{"reason"})
	SourceLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covid_source_loads_total",
		Help: "Number of raw table loads, by resulting source mode",
	}, []string{"mode"})
	LoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "covid_load_duration_seconds",
		Help:    "Time spent reading snapshot files",
		Buckets: prometheus.DefBuckets,
	})

	CanonicalRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "covid_canonical_records",
		Help: "Number of canonical records produced by the last normalization",
	})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "covid_cache_requests_total",
		Help: "Response cache lookups, by result",
	}, []string{"result"})
	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "covid_cache_swept_entries_total",
		Help: "Expired response cache entries removed by the sweeper",
	})
)
