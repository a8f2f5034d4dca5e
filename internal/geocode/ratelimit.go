package geocode

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

var (
	// ErrMonthlyBudget is returned by Acquire once the month's accumulated
	// cost has reached the budget.
	ErrMonthlyBudget = errors.New("monthly geocoding budget exhausted")

	// ErrDailyCap is returned by Acquire once the day's request count has
	// reached the cap.
	ErrDailyCap = errors.New("daily geocoding request cap reached")
)

// costEpsilon absorbs float drift when summing per-request costs.
const costEpsilon = 1e-9

// Limits configures the rate limiter.
type Limits struct {
	RequestsPerSecond float64
	DailyRequestCap   int
	CostPerRequest    float64 // dollars
	MonthlyBudget     float64 // dollars
}

// DefaultLimits keeps usage well inside the provider's free tier.
func DefaultLimits() Limits {
	return Limits{
		RequestsPerSecond: 10,
		DailyRequestCap:   500,
		CostPerRequest:    0.005,
		MonthlyBudget:     50,
	}
}

// Usage is a point-in-time view of limiter counters.
type Usage struct {
	DailyRequests   int       `json:"daily_requests"`
	DailyCost       float64   `json:"daily_cost"`
	MonthlyRequests int       `json:"monthly_requests"`
	MonthlyCost     float64   `json:"monthly_cost"`
	DailyRemaining  int       `json:"daily_remaining"`
	BudgetRemaining float64   `json:"budget_remaining"`
	LastRequestAt   time.Time `json:"last_request_at,omitzero"`
}

// RateLimiter paces provider calls and enforces daily request and monthly
// cost caps. Counters reset lazily: every Acquire, RecordUsage and Usage
// first checks whether the calendar day or month has rolled over.
//
// Acquire reserves a slot; each successful Acquire must be followed by
// exactly one RecordUsage (the call was issued) or Release (it was not).
// Reserved slots count against the caps so concurrent callers cannot
// overshoot them.
type RateLimiter struct {
	limits Limits
	clock  clockwork.Clock
	pacer  *rate.Limiter
	logger *slog.Logger

	mu            sync.Mutex
	lastRequestAt time.Time
	dailyCount    int
	monthlyCount  int
	dailyCost     float64
	monthlyCost   float64
	dayAnchor     time.Time
	monthAnchor   time.Time
	pending       int
}

// NewRateLimiter creates a limiter anchored at the clock's current day and month.
func NewRateLimiter(limits Limits, clock clockwork.Clock, logger *slog.Logger) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	every := rate.Inf
	if limits.RequestsPerSecond > 0 {
		every = rate.Limit(limits.RequestsPerSecond)
	}
	now := clock.Now()
	return &RateLimiter{
		limits:      limits,
		clock:       clock,
		pacer:       rate.NewLimiter(every, 1),
		logger:      logger,
		dayAnchor:   startOfDay(now),
		monthAnchor: startOfMonth(now),
	}
}

// Acquire decides whether a provider call may go ahead. It returns
// ErrMonthlyBudget or ErrDailyCap when denied, in that order of precedence.
// When allowed it may block until the pacing interval since the previous
// call has elapsed; cancelling ctx abandons the wait and the reservation.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	now := l.clock.Now()
	l.resetIfDue(now)

	if l.monthlyCost+float64(l.pending)*l.limits.CostPerRequest >= l.limits.MonthlyBudget-costEpsilon {
		cost := l.monthlyCost
		l.mu.Unlock()
		l.logger.Warn("geocode request blocked: monthly budget exhausted",
			"monthly_cost", cost, "monthly_budget", l.limits.MonthlyBudget)
		return ErrMonthlyBudget
	}
	if l.dailyCount+l.pending >= l.limits.DailyRequestCap {
		count := l.dailyCount
		l.mu.Unlock()
		l.logger.Warn("geocode request blocked: daily cap reached",
			"daily_requests", count, "daily_cap", l.limits.DailyRequestCap)
		return ErrDailyCap
	}

	res := l.pacer.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	l.pending++
	l.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	select {
	case <-l.clock.After(delay):
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		res.CancelAt(l.clock.Now())
		l.release()
		l.mu.Unlock()
		return ctx.Err()
	}
}

// RecordUsage charges one issued provider call against every counter.
func (l *RateLimiter) RecordUsage() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.resetIfDue(now)
	l.release()
	l.lastRequestAt = now
	l.dailyCount++
	l.monthlyCount++
	l.dailyCost += l.limits.CostPerRequest
	l.monthlyCost += l.limits.CostPerRequest
}

// Release returns a slot obtained from Acquire without charging it.
func (l *RateLimiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release()
}

// Usage reports the current counters.
func (l *RateLimiter) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetIfDue(l.clock.Now())
	return Usage{
		DailyRequests:   l.dailyCount,
		DailyCost:       l.dailyCost,
		MonthlyRequests: l.monthlyCount,
		MonthlyCost:     l.monthlyCost,
		DailyRemaining:  max(l.limits.DailyRequestCap-l.dailyCount, 0),
		BudgetRemaining: max(l.limits.MonthlyBudget-l.monthlyCost, 0),
		LastRequestAt:   l.lastRequestAt,
	}
}

func (l *RateLimiter) release() {
	if l.pending > 0 {
		l.pending--
	}
}

// resetIfDue zeroes the daily and monthly counters when now has moved past
// their anchors. Callers hold l.mu.
func (l *RateLimiter) resetIfDue(now time.Time) {
	if day := startOfDay(now); day.After(l.dayAnchor) {
		l.logger.Info("geocode daily usage reset",
			"previous_requests", l.dailyCount, "previous_cost", l.dailyCost)
		l.dailyCount = 0
		l.dailyCost = 0
		l.dayAnchor = day
	}
	if month := startOfMonth(now); month.After(l.monthAnchor) {
		l.logger.Info("geocode monthly usage reset",
			"previous_requests", l.monthlyCount, "previous_cost", l.monthlyCost)
		l.monthlyCount = 0
		l.monthlyCost = 0
		l.monthAnchor = month
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
