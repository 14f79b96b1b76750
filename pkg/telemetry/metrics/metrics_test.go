package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/svnwatch/pkg/config"
)

const repo = "svn://svn.example.org/repo"

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:              true,
		Namespace:            "test",
		Subsystem:            "poller",
		CycleDurationBuckets: []float64{0.1, 1, 10},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if collector.Poller() == nil {
		t.Fatal("expected poller metrics")
	}

	defaults := NewCollector(&config.MetricsConfig{Enabled: true}, nil)
	if defaults.config.Namespace != config.DefaultMetricsNamespace || len(defaults.config.CycleDurationBuckets) == 0 {
		t.Errorf("defaults not applied: %+v", defaults.config)
	}
}

func TestObserver_CycleCompleted(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	obs := collector.Observer(repo)
	pm := collector.Poller()

	obs.CycleCompleted(250*time.Millisecond, 3, 4, 1205)
	obs.CycleCompleted(time.Second, 0, 0, 1205)

	if got := testutil.ToFloat64(pm.cycles.WithLabelValues(repo, "completed")); got != 2 {
		t.Errorf("cycles completed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pm.logEntries.WithLabelValues(repo)); got != 3 {
		t.Errorf("log entries = %v, want 3", got)
	}
	if got := testutil.ToFloat64(pm.changes.WithLabelValues(repo)); got != 4 {
		t.Errorf("changes = %v, want 4", got)
	}
	if got := testutil.ToFloat64(pm.watermark.WithLabelValues(repo)); got != 1205 {
		t.Errorf("watermark = %v, want 1205", got)
	}
	if got := testutil.ToFloat64(pm.lastSuccess.WithLabelValues(repo)); got <= 0 {
		t.Errorf("last success timestamp not set: %v", got)
	}
	if n := testutil.CollectAndCount(pm.cycleDuration); n != 1 {
		t.Errorf("expected one duration series, got %d", n)
	}
}

func TestObserver_Failures(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	obs := collector.Observer(repo)
	pm := collector.Poller()

	obs.CycleAborted("fetching_log", "execution", time.Second)
	obs.CycleAborted("parsing", "parse", time.Millisecond)
	obs.CycleAborted("fetching_log", "execution", time.Second)
	obs.TriggerDropped()
	obs.SinkFailed()
	obs.SinkFailed()
	obs.GapDetected()

	if got := testutil.ToFloat64(pm.cycles.WithLabelValues(repo, "aborted")); got != 3 {
		t.Errorf("aborted cycles = %v, want 3", got)
	}
	if got := testutil.ToFloat64(pm.aborts.WithLabelValues(repo, "fetching_log", "execution")); got != 2 {
		t.Errorf("fetch aborts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pm.droppedTriggers.WithLabelValues(repo)); got != 1 {
		t.Errorf("dropped triggers = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pm.sinkFailures.WithLabelValues(repo)); got != 2 {
		t.Errorf("sink failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pm.gaps.WithLabelValues(repo)); got != 1 {
		t.Errorf("gaps = %v, want 1", got)
	}
}

func TestObserver_UnsetWatermarkNotExported(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.Observer(repo).CycleCompleted(time.Millisecond, 0, 0, -1)

	if n := testutil.CollectAndCount(collector.Poller().watermark); n != 0 {
		t.Errorf("expected no watermark series for an unset revision, got %d", n)
	}
}

func TestObserver_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	obs := collector.Observer(repo)
	obs.CycleCompleted(time.Second, 1, 1, 10)
	obs.GapDetected()

	if n := testutil.CollectAndCount(collector.Poller().cycles); n != 0 {
		t.Errorf("disabled collector recorded %d series", n)
	}
}

func TestObserver_CardinalityOverflow(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.Observer("svn://a/repo").TriggerDropped()
	collector.Observer("svn://b/repo").TriggerDropped()

	pm := collector.Poller()
	if got := testutil.ToFloat64(pm.droppedTriggers.WithLabelValues("svn://a/repo")); got != 1 {
		t.Errorf("first repository = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pm.droppedTriggers.WithLabelValues(overflowLabel)); got != 1 {
		t.Errorf("overflow = %v, want 1", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)
	if !cl.Allow("a") || !cl.Allow("b") || !cl.Allow("a") {
		t.Error("expected values within limit to be allowed")
	}
	if cl.Allow("c") {
		t.Error("expected value past the limit to be rejected")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cl.Count())
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.Observer(repo).CycleCompleted(time.Second, 2, 2, 42)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		"test_poller_cycles_total",
		"test_poller_watermark_revision",
		`repository="svn://svn.example.org/repo"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func BenchmarkObserver_CycleCompleted(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	obs := collector.Observer(repo)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		obs.CycleCompleted(time.Second, 1, 1, int64(i))
	}
}
