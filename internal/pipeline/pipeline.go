package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	"github.com/couchcryptid/emergency-site-monitor/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

// AlertSource fetches the current alert parts. It degrades to an empty
// slice instead of failing.
type AlertSource interface {
	FetchAlerts(ctx context.Context) []domain.AlertPart
}

// SiteSource loads the validated site roster.
type SiteSource interface {
	LoadSites(ctx context.Context) ([]domain.Site, error)
}

// Publisher hands a finished snapshot to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, snap *domain.Snapshot) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the fetch-load-match refresh loop and holds the
// latest snapshot.
type Pipeline struct {
	alerts    AlertSource
	sites     SiteSource
	publisher Publisher
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	latest atomic.Pointer[domain.Snapshot]
}

// New creates a Pipeline. publisher may be nil. A nil clock selects the real clock.
func New(alerts AlertSource, sites SiteSource, publisher Publisher, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		alerts:    alerts,
		sites:     sites,
		publisher: publisher,
		interval:  interval,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a refresh has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.latest.Load() == nil {
		return errors.New("no refresh has completed yet")
	}
	return nil
}

// Latest returns the most recent snapshot, or nil before the first refresh.
func (p *Pipeline) Latest() *domain.Snapshot {
	return p.latest.Load()
}

// Refresh runs one fetch-load-match cycle and stores the result. An alert
// feed failure yields a snapshot with no alerts; a roster failure returns an
// error and keeps the previous snapshot. Refreshes may run concurrently; the
// newest result wins.
func (p *Pipeline) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	start := p.clock.Now()

	alerts := p.alerts.FetchAlerts(ctx)
	sites, err := p.sites.LoadSites(ctx)
	if err != nil {
		p.metrics.RefreshErrors.Inc()
		return nil, fmt.Errorf("load sites: %w", err)
	}

	snap := buildSnapshot(alerts, sites, p.clock.Now())
	p.store(snap)
	p.observe(snap)
	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())

	p.publish(ctx, snap)
	return snap, nil
}

// Run refreshes immediately and then every interval until ctx is cancelled.
// A failed refresh is retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("refresh loop started", "interval", p.interval)
	p.metrics.RefreshRunning.Set(1)
	defer p.metrics.RefreshRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := p.interval
		if _, err := p.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("refresh loop stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("refresh failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = retry.NextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			p.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// store swaps in snap unless a newer snapshot has already landed.
func (p *Pipeline) store(snap *domain.Snapshot) {
	for {
		cur := p.latest.Load()
		if cur != nil && cur.RefreshedAt.After(snap.RefreshedAt) {
			return
		}
		if p.latest.CompareAndSwap(cur, snap) {
			return
		}
	}
}

func (p *Pipeline) publish(ctx context.Context, snap *domain.Snapshot) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, snap); err != nil {
		p.logger.Error("publish snapshot failed", "error", err, "records", len(snap.Matches))
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(snap.Matches)))
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
