package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

type fakeReporter struct{ err error }

func (f fakeReporter) CheckHealth(maxFailures int) error { return f.err }

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{name: "no checks", checks: nil, want: StatusReady},
		{
			name: "all ok",
			checks: map[string]CheckFunc{
				"poller": PollerCheck(fakeReporter{}, 3),
				"sink":   PingCheck(fakePinger{}),
			},
			want: StatusReady,
		},
		{
			name: "sink down",
			checks: map[string]CheckFunc{
				"poller": PollerCheck(fakeReporter{}, 3),
				"sink":   PingCheck(fakePinger{err: errors.New("database is locked")}),
			},
			want: StatusNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			status := c.CheckReadiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("Status = %q, want %q", status.Status, tt.want)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(status.Checks))
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	block := make(chan struct{})
	defer close(block)
	c.RegisterCheck("stuck", func(ctx context.Context) error {
		<-block
		return nil
	})

	status := c.CheckReadiness(context.Background())
	result := status.Checks["stuck"]
	if result.Status != StatusUnhealthy || result.Message != ErrCheckTimeout.Error() {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestChecker_ListChecks(t *testing.T) {
	c := New(0)
	c.RegisterCheck("sink", PingCheck(fakePinger{}))
	c.RegisterCheck("poller", PollerCheck(fakeReporter{}, 1))
	c.RegisterCheck("sink", PingCheck(fakePinger{}))

	if got := c.ListChecks(); !reflect.DeepEqual(got, []string{"poller", "sink"}) {
		t.Errorf("ListChecks() = %v", got)
	}
}

func TestReadinessHandler(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("poller", PollerCheck(fakeReporter{err: errors.New("3 consecutive poll cycles failed")}, 3))

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status code = %d, want 503", rec.Code)
	}
	var body Status
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Checks["poller"].Message != "3 consecutive poll cycles failed" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestLivenessHandler(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("sink", PingCheck(fakePinger{err: errors.New("down")}))

	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness must not depend on readiness checks, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD: code=%d body=%q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: code=%d", rec.Code)
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler(NewVersionInfo("1.0.0", "abc123", "2025-01-01"))(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info.Version != "1.0.0" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}
