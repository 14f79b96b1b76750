// Package server provides the admin HTTP server of the poller.
//
// Endpoints:
//
//	GET  /healthz   liveness probe
//	GET  /readyz    readiness probe (poller and sink checks)
//	GET  /metrics   Prometheus metrics, when enabled
//	GET  /status    poller activity counters
//	GET  /version   build information
//	POST /poll      run a cycle now
//
// POST /poll goes through the poller's single-flight guard, so a manual
// trigger that lands while a scheduled cycle runs gets 409 Conflict instead
// of queueing. Manual triggers are throttled by a token bucket
// (server.trigger_rate, server.trigger_burst) and answer 429 when it is
// empty.
//
// The server is meant for a trusted network: it binds to 127.0.0.1 by
// default and has no authentication.
package server
