package svn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultPollInterval is how often the scheduler triggers a cycle.
	DefaultPollInterval = 10 * time.Minute

	// DefaultHistoryLimit bounds how many log entries one cycle fetches.
	DefaultHistoryLimit = 100

	// rawSnippetSize limits how much unparsable output is logged.
	rawSnippetSize = 512
)

// Sink receives the changes detected by a cycle, one call per change.
// Retrying a failed submission is the sink's business.
type Sink interface {
	Submit(ctx context.Context, change *Change) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, change *Change) error

// Submit calls f(ctx, change).
func (f SinkFunc) Submit(ctx context.Context, change *Change) error {
	return f(ctx, change)
}

// Observer is notified about cycle outcomes, typically to record metrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	CycleCompleted(d time.Duration, newEntries, changes int, watermark int64)
	CycleAborted(stage, kind string, d time.Duration)
	TriggerDropped()
	SinkFailed()
	GapDetected()
}

type nopObserver struct{}

func (nopObserver) CycleCompleted(time.Duration, int, int, int64) {}
func (nopObserver) CycleAborted(string, string, time.Duration)    {}
func (nopObserver) TriggerDropped()                              {}
func (nopObserver) SinkFailed()                                  {}
func (nopObserver) GapDetected()                                 {}

// Tracer starts spans. Both an OpenTelemetry trace.Tracer and the tracing
// package's wrapper satisfy it.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// Config configures a Poller.
type Config struct {
	// RepositoryURL is the watched URL; a trailing slash is ignored
	RepositoryURL string

	// Split maps paths to branches; nil means SplitAlwaysTrunk
	Split PathSplitter

	// Credentials are passed to every svn invocation
	Credentials Credentials

	// Binary is the svn executable, DefaultBinary when empty
	Binary string

	// PollInterval is consumed by the scheduler, not the Poller itself
	PollInterval time.Duration

	// HistoryLimit is the --limit passed to svn log
	HistoryLimit int
}

// Poller detects new commits in a Subversion repository and hands them to a
// Sink. Poll runs one cycle; an external scheduler decides when. At most one
// cycle runs at a time and overlapping triggers are dropped.
//
// Basic usage:
//
//	p, err := svn.NewPoller(cfg, svn.NewExecRunner(time.Minute), sink)
//	if err != nil {
//	    return err
//	}
//	report, err := p.Poll(ctx)
type Poller struct {
	cfg    Config
	client *Client
	sink   Sink

	inFlight atomic.Bool

	// state is written only by the goroutine holding inFlight, under mu so
	// State and Stats can read it concurrently.
	mu    sync.RWMutex
	state PollerState
	stats Stats

	logger   *slog.Logger
	tracer   Tracer
	observer Observer
}

// NewPoller creates a poller for cfg. A nil runner runs svn with os/exec.
func NewPoller(cfg Config, runner Runner, sink Sink) (*Poller, error) {
	cfg.RepositoryURL = strings.TrimRight(strings.TrimSpace(cfg.RepositoryURL), "/")
	if cfg.RepositoryURL == "" {
		return nil, errors.New("repository url is required")
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}
	if cfg.Split == nil {
		cfg.Split = SplitAlwaysTrunk
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if runner == nil {
		runner = NewExecRunner(0)
	}

	return &Poller{
		cfg:      cfg,
		client:   NewClient(runner, cfg.Binary, cfg.Credentials),
		sink:     sink,
		state:    PollerState{LastRevision: NoRevision},
		stats:    Stats{LastRevision: NoRevision, Stage: StageIdle},
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("svnwatch"),
		observer: nopObserver{},
	}, nil
}

// SetLogger sets a custom logger for the poller.
func (p *Poller) SetLogger(logger *slog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// SetTracer sets the tracer used for cycle and stage spans.
func (p *Poller) SetTracer(tracer Tracer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracer = tracer
}

// SetObserver sets the observer notified about cycle outcomes.
func (p *Poller) SetObserver(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = observer
}

// Config returns the effective configuration.
func (p *Poller) Config() Config {
	return p.cfg
}

// Describe returns a short human readable description of the poller.
func (p *Poller) Describe() string {
	return "svnwatch " + safeURL(p.cfg.RepositoryURL)
}

// State returns a copy of the poller state.
func (p *Poller) State() PollerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Stats returns a snapshot of the poller counters.
func (p *Poller) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// CheckHealth returns an error once maxFailures cycles in a row have aborted.
// A non-positive maxFailures disables the check.
func (p *Poller) CheckHealth(maxFailures int) error {
	stats := p.Stats()
	if maxFailures <= 0 || stats.ConsecutiveFailures < int64(maxFailures) {
		return nil
	}
	return fmt.Errorf("%d consecutive poll cycles failed, last error: %s",
		stats.ConsecutiveFailures, stats.LastError)
}

// SeedWatermark sets the watermark before polling so that the first cycle
// reports everything after rev instead of suppressing the backlog. The
// watermark never moves backwards.
func (p *Poller) SeedWatermark(rev Revision) error {
	if !rev.IsSet() {
		return fmt.Errorf("invalid revision %d", rev)
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	defer p.inFlight.Store(false)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.LastRevision.IsSet() && rev < p.state.LastRevision {
		return fmt.Errorf("cannot move watermark back from r%d to r%d", p.state.LastRevision, rev)
	}
	p.state.LastRevision = rev
	p.stats.LastRevision = rev
	return nil
}

// Poll runs one detection cycle. It returns ErrCycleInFlight without doing
// anything when another cycle is still running, and a *CycleError when a
// stage fails. Sink failures do not abort the cycle; they are counted in the
// report.
func (p *Poller) Poll(ctx context.Context) (*CycleReport, error) {
	p.mu.RLock()
	logger, tracer, observer := p.logger, p.tracer, p.observer
	p.mu.RUnlock()

	if !p.inFlight.CompareAndSwap(false, true) {
		p.mu.Lock()
		p.stats.DroppedTriggers++
		stage := p.stats.Stage
		p.mu.Unlock()

		logger.Warn("poll trigger dropped, previous cycle still in flight",
			"repository", p.cfg.RepositoryURL,
			"stage", stage)
		observer.TriggerDropped()
		return nil, ErrCycleInFlight
	}
	defer p.inFlight.Store(false)

	start := time.Now()
	cycleID := uuid.NewString()
	logger = logger.With("cycle_id", cycleID, "repository", p.cfg.RepositoryURL)

	ctx, span := tracer.Start(ctx, "svn.poll", trace.WithAttributes(
		attribute.String("svn.repository", safeURL(p.cfg.RepositoryURL)),
		attribute.String("svn.cycle_id", cycleID),
	))
	defer span.End()

	c := &cycle{
		poller:   p,
		logger:   logger,
		tracer:   tracer,
		observer: observer,
		report: &CycleReport{
			CycleID:           cycleID,
			PreviousWatermark: p.state.LastRevision,
			Watermark:         p.state.LastRevision,
		},
	}

	err := c.run(ctx)
	c.report.Duration = time.Since(start)

	if err != nil {
		p.recordAbort(logger, observer, err, c.report.Duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	p.recordSuccess(c.report)
	observer.CycleCompleted(c.report.Duration, c.report.NewEntries, len(c.report.Changes), int64(c.report.Watermark))
	span.SetAttributes(
		attribute.Int("svn.new_entries", c.report.NewEntries),
		attribute.Int("svn.changes", len(c.report.Changes)),
		attribute.Int64("svn.watermark", int64(c.report.Watermark)),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("poll cycle completed",
		"previous_revision", c.report.PreviousWatermark,
		"revision", c.report.Watermark,
		"fetched_entries", c.report.FetchedEntries,
		"new_entries", c.report.NewEntries,
		"changes", len(c.report.Changes),
		"sink_failures", c.report.SinkFailures,
		"duration", c.report.Duration)

	return c.report, nil
}

func (p *Poller) setStage(stage Stage) {
	p.mu.Lock()
	p.stats.Stage = stage
	p.mu.Unlock()
}

func (p *Poller) recordSuccess(report *CycleReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Cycles++
	p.stats.ChangesSubmitted += int64(len(report.Changes) - report.SinkFailures)
	p.stats.SinkFailures += int64(report.SinkFailures)
	p.stats.ConsecutiveFailures = 0
	p.stats.LastSuccess = time.Now()
	p.stats.LastError = ""
	p.stats.LastRevision = p.state.LastRevision
	p.stats.Stage = StageIdle
}

func (p *Poller) recordAbort(logger *slog.Logger, observer Observer, err error, d time.Duration) {
	stage := StageAborted
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		stage = cycleErr.Stage
	}
	kind := errorKind(err)

	p.mu.Lock()
	p.stats.Aborted++
	p.stats.ConsecutiveFailures++
	p.stats.LastError = err.Error()
	p.stats.Stage = StageIdle
	p.mu.Unlock()

	attrs := []any{
		"stage", stage,
		"kind", kind,
		"error", err,
		"duration", d,
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		attrs = append(attrs, "raw", parseErr.Snippet(rawSnippetSize))
	}
	if kind == "invariant" {
		logger.Error("poll cycle aborted, check repository configuration", attrs...)
	} else {
		logger.Warn("poll cycle aborted", attrs...)
	}

	observer.CycleAborted(string(stage), kind, d)
}

// cycle carries the per-trigger values through the stages of one Poll.
type cycle struct {
	poller   *Poller
	logger   *slog.Logger
	tracer   Tracer
	observer Observer
	report   *CycleReport
}

// stage runs fn inside a span named after the stage. A failure is wrapped in
// a *CycleError naming the stage.
func (c *cycle) stage(ctx context.Context, stage Stage, fn func(ctx context.Context) error) error {
	c.poller.setStage(stage)

	ctx, span := c.tracer.Start(ctx, "svn."+string(stage))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &CycleError{Stage: stage, Err: err}
	}
	return nil
}

func (c *cycle) run(ctx context.Context) error {
	p := c.poller
	cfg := p.cfg

	if !p.state.PrefixResolved {
		err := c.stage(ctx, StageResolvingPrefix, func(ctx context.Context) error {
			prefix, info, err := ResolvePrefix(ctx, p.client, cfg.RepositoryURL)
			if err != nil {
				return err
			}

			p.mu.Lock()
			p.state.Prefix = prefix
			p.state.PrefixResolved = true
			p.mu.Unlock()

			c.logger.Info("resolved repository prefix",
				"prefix", prefix,
				"root", info.Root,
				"uuid", info.UUID)
			return nil
		})
		if err != nil {
			return err
		}
	}
	prefix := p.state.Prefix
	c.report.Prefix = prefix

	var raw []byte
	err := c.stage(ctx, StageFetchingLog, func(ctx context.Context) error {
		var err error
		raw, err = p.client.Log(ctx, cfg.RepositoryURL, cfg.HistoryLimit)
		return err
	})
	if err != nil {
		return err
	}

	var entries []LogEntry
	err = c.stage(ctx, StageParsing, func(context.Context) error {
		var err error
		entries, err = ParseLog(raw)
		return err
	})
	if err != nil {
		return err
	}
	c.report.FetchedEntries = len(entries)

	var result FilterResult
	_ = c.stage(ctx, StageFiltering, func(context.Context) error {
		result = FilterNewEntries(entries, p.state.LastRevision)
		// A window shorter than the limit already holds the whole history.
		if result.Gap && len(entries) < cfg.HistoryLimit {
			result.Gap = false
		}
		return nil
	})
	c.reportFilter(result)

	var changes []*Change
	err = c.stage(ctx, StageBuildingChanges, func(context.Context) error {
		var err error
		changes, err = BuildChanges(cfg.RepositoryURL, result.Entries, prefix, cfg.Split)
		return err
	})
	if err != nil {
		return err
	}

	// Commit point: from here on the revisions are considered delivered.
	p.mu.Lock()
	p.state.LastRevision = result.Watermark
	p.mu.Unlock()
	c.report.Watermark = result.Watermark
	c.report.NewEntries = len(result.Entries)
	c.report.FirstPoll = result.FirstPoll
	c.report.Gap = result.Gap
	c.report.Changes = changes

	if len(changes) == 0 {
		return nil
	}

	// A shutdown must not cut a batch in half.
	submitCtx := context.WithoutCancel(ctx)
	_ = c.stage(submitCtx, StageSubmitting, func(ctx context.Context) error {
		c.submit(ctx, changes)
		return nil
	})

	return nil
}

func (c *cycle) reportFilter(result FilterResult) {
	previous := c.report.PreviousWatermark
	switch {
	case result.FirstPoll:
		c.logger.Info("first poll, starting at newest revision",
			"revision", result.Watermark)
	case result.Regressed:
		c.logger.Warn("newest revision is older than the watermark, keeping watermark",
			"watermark", previous)
	case result.Gap:
		c.logger.Warn("watermark not found in fetched history, older revisions may be missing",
			"watermark", previous,
			"history_limit", c.poller.cfg.HistoryLimit,
			"oldest_fetched", result.Entries[0].Revision)
		c.observer.GapDetected()
	}
}

func (c *cycle) submit(ctx context.Context, changes []*Change) {
	for _, change := range changes {
		if err := c.poller.sink.Submit(ctx, change); err != nil {
			c.report.SinkFailures++
			sinkErr := &SinkError{Revision: change.Revision, Branch: change.Branch, Err: err}
			c.logger.Error("failed to submit change",
				"revision", change.Revision,
				"branch", change.Branch,
				"error", sinkErr)
			c.observer.SinkFailed()
			continue
		}
		c.logger.Debug("submitted change",
			"revision", change.Revision,
			"branch", change.Branch,
			"author", change.Author,
			"files", len(change.Files))
	}
}

// safeURL drops user info from a repository URL.
func safeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = nil
	return u.String()
}
