// Package scheduler triggers poll cycles on a cron schedule.
//
// The poller itself has no timer; it exposes a single Poll entry point and
// expects something to call it periodically. Scheduler is that something,
// built on github.com/robfig/cron/v3 so either a fixed interval
// ("@every 10m0s") or a cron expression can drive it.
package scheduler
