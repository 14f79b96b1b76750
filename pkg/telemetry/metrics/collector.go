package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/svnwatch/pkg/config"
	"mercator-hq/svnwatch/pkg/svn"
)

// overflowLabel replaces repository label values beyond the cardinality limit.
const overflowLabel = "other"

// Collector owns the Prometheus registry and the poller metrics registered in
// it. Repository labels pass through a CardinalityLimiter so a misbehaving
// caller cannot grow the series count without bound.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	poller *PollerMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh registry
// with the Go runtime and process collectors is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "svnwatch",
//		Subsystem: "poller",
//	}
//	collector := metrics.NewCollector(cfg, nil)
//	poller.SetObserver(collector.Observer(poller.Config().RepositoryURL))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.CycleDurationBuckets) == 0 {
		cfg.CycleDurationBuckets = append([]float64(nil), config.DefaultCycleDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		poller:             NewPollerMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(100),
	}
}

// Observer returns an svn.Observer that records into this collector with
// the given repository label. When metrics are disabled the observer drops
// everything.
func (c *Collector) Observer(repository string) svn.Observer {
	if !c.config.Enabled {
		return disabledObserver{}
	}
	if !c.cardinalityLimiter.Allow(repository) {
		repository = overflowLabel
	}
	return &repositoryObserver{metrics: c.poller, repository: repository}
}

// Poller returns the poller metrics for direct inspection.
func (c *Collector) Poller() *PollerMetrics {
	return c.poller
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// repositoryObserver binds PollerMetrics to one repository label.
type repositoryObserver struct {
	metrics    *PollerMetrics
	repository string
}

func (o *repositoryObserver) CycleCompleted(d time.Duration, newEntries, changes int, watermark int64) {
	o.metrics.RecordCycle(o.repository, d, newEntries, changes, watermark)
}

func (o *repositoryObserver) CycleAborted(stage, kind string, d time.Duration) {
	o.metrics.RecordAbort(o.repository, stage, kind, d)
}

func (o *repositoryObserver) TriggerDropped() {
	o.metrics.droppedTriggers.WithLabelValues(o.repository).Inc()
}

func (o *repositoryObserver) SinkFailed() {
	o.metrics.sinkFailures.WithLabelValues(o.repository).Inc()
}

func (o *repositoryObserver) GapDetected() {
	o.metrics.gaps.WithLabelValues(o.repository).Inc()
}

type disabledObserver struct{}

func (disabledObserver) CycleCompleted(time.Duration, int, int, int64) {}
func (disabledObserver) CycleAborted(string, string, time.Duration)    {}
func (disabledObserver) TriggerDropped()                              {}
func (disabledObserver) SinkFailed()                                  {}
func (disabledObserver) GapDetected()                                 {}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label value is allowed. Returns true if the value
// already exists or if the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
