// Package health implements liveness and readiness probes.
//
// Liveness only reports that the process is up. Readiness runs the
// registered checks concurrently, each bounded by the check timeout:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("poller", health.PollerCheck(poller, 3))
//	checker.RegisterCheck("sink", health.PingCheck(store))
//	mux.Handle("GET /readyz", checker.ReadinessHandler())
//
// The poller check turns unhealthy after a run of aborted cycles, which
// usually means the repository is unreachable or the credentials expired.
package health
