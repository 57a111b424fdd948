package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the addon engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Fingerprint metrics
	FingerprintsComputed  prometheus.Counter
	FingerprintCacheHits  prometheus.Counter
	FingerprintFailures   prometheus.Counter
	FingerprintDuration   prometheus.Histogram
	FingerprintCacheSaves prometheus.Counter

	// Identity metrics
	AddonCacheHits     prometheus.Counter
	ResolutionFailures *prometheus.CounterVec
	UpdatableAddons    *prometheus.GaugeVec

	// Repository metrics
	RepositoryFetches        *prometheus.CounterVec
	RepositoryFetchDuration  *prometheus.HistogramVec
	RepositoryBreakerChanges *prometheus.CounterVec

	// Filesystem metrics
	FilesystemRetries *prometheus.CounterVec

	// Snapshot for summaries printed by the CLI
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for human readable summaries
type Snapshot struct {
	FingerprintsComputed int64
	FingerprintCacheHits int64
	AddonCacheHits       int64
	ResolutionFailures   int64
	FilesystemRetries    int64
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FingerprintsComputed: factory.NewCounter(prometheus.CounterOpts{
			Name: "chmon_fingerprints_computed_total",
			Help: "Addon folders fingerprinted from disk",
		}),
		FingerprintCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "chmon_fingerprint_cache_hits_total",
			Help: "Fingerprints served from the fingerprint cache",
		}),
		FingerprintFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "chmon_fingerprint_failures_total",
			Help: "Folders whose fingerprint could not be computed",
		}),
		FingerprintDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chmon_fingerprint_duration_seconds",
			Help:    "Time spent fingerprinting one folder",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		FingerprintCacheSaves: factory.NewCounter(prometheus.CounterOpts{
			Name: "chmon_cache_saves_total",
			Help: "Cache snapshots written to disk",
		}),
		AddonCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "chmon_addon_cache_hits_total",
			Help: "Addons re-associated from the addon identity cache",
		}),
		ResolutionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chmon_resolution_failures_total",
			Help: "Addons whose remote identity could not be resolved",
		}, []string{"kind"}),
		UpdatableAddons: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chmon_updatable_addons",
			Help: "Addons with an update available",
		}, []string{"flavor"}),
		RepositoryFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chmon_repository_fetches_total",
			Help: "Remote repository calls",
		}, []string{"kind", "status"}),
		RepositoryFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chmon_repository_fetch_duration_seconds",
			Help:    "Remote repository call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		RepositoryBreakerChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chmon_repository_breaker_transitions_total",
			Help: "Circuit breaker state changes per repository host",
		}, []string{"name", "to"}),
		FilesystemRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chmon_fs_retries_total",
			Help: "Filesystem operations retried because the target was locked",
		}, []string{"op"}),
	}
}

// RecordFingerprint records a freshly computed fingerprint
func (m *Metrics) RecordFingerprint(duration time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.FingerprintFailures.Inc()
		return
	}
	m.FingerprintsComputed.Inc()
	m.FingerprintDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.FingerprintsComputed++
	m.mu.Unlock()
}

// IncFingerprintCacheHit records a fingerprint served from cache
func (m *Metrics) IncFingerprintCacheHit() {
	if m == nil {
		return
	}
	m.FingerprintCacheHits.Inc()

	m.mu.Lock()
	m.snapshot.FingerprintCacheHits++
	m.mu.Unlock()
}

// IncCacheSave records a cache snapshot write
func (m *Metrics) IncCacheSave() {
	if m == nil {
		return
	}
	m.FingerprintCacheSaves.Inc()
}

// IncAddonCacheHit records an addon resolved from the identity cache
func (m *Metrics) IncAddonCacheHit() {
	if m == nil {
		return
	}
	m.AddonCacheHits.Inc()

	m.mu.Lock()
	m.snapshot.AddonCacheHits++
	m.mu.Unlock()
}

// RecordResolutionFailure records an addon that could not be resolved
func (m *Metrics) RecordResolutionFailure(kind string) {
	if m == nil {
		return
	}
	m.ResolutionFailures.WithLabelValues(kind).Inc()

	m.mu.Lock()
	m.snapshot.ResolutionFailures++
	m.mu.Unlock()
}

// SetUpdatable sets the number of updatable addons of a flavor
func (m *Metrics) SetUpdatable(flavor string, count int) {
	if m == nil {
		return
	}
	m.UpdatableAddons.WithLabelValues(flavor).Set(float64(count))
}

// RecordRepositoryFetch records one remote repository call
func (m *Metrics) RecordRepositoryFetch(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RepositoryFetches.WithLabelValues(kind, status).Inc()
	m.RepositoryFetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordBreakerTransition records a circuit breaker state change
func (m *Metrics) RecordBreakerTransition(name, to string) {
	if m == nil {
		return
	}
	m.RepositoryBreakerChanges.WithLabelValues(name, to).Inc()
}

// IncFilesystemRetry records one retried filesystem operation
func (m *Metrics) IncFilesystemRetry(op string) {
	if m == nil {
		return
	}
	m.FilesystemRetries.WithLabelValues(op).Inc()

	m.mu.Lock()
	m.snapshot.FilesystemRetries++
	m.mu.Unlock()
}

// Snapshot returns the running totals
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
