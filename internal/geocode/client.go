// Package geocode resolves user-searched addresses to coordinates through a
// paid provider, guarded by a TTL cache and a budget-aware rate limiter.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	"github.com/couchcryptid/emergency-site-monitor/internal/observability"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrUnavailable means the rate limiter refused the call. The address may
	// be perfectly valid; callers should show a budget or rate message.
	ErrUnavailable = errors.New("geocoding unavailable")

	// ErrNotFound means the provider could not resolve the address, or the
	// call failed.
	ErrNotFound = errors.New("address not found")
)

// Client is the single entry point for address resolution.
type Client struct {
	provider domain.Geocoder
	cache    *Cache
	limiter  *RateLimiter
	metrics  *observability.Metrics
	logger   *slog.Logger

	inflight singleflight.Group
}

// lookup is the shared outcome of one provider flight.
type lookup struct {
	coords  domain.Coordinates
	outcome string
}

// NewClient wires a provider behind the given cache and limiter. The cache
// and limiter are long-lived and may be shared by several clients.
func NewClient(provider domain.Geocoder, cache *Cache, limiter *RateLimiter, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		provider: provider,
		cache:    cache,
		limiter:  limiter,
		metrics:  metrics,
		logger:   logger,
	}
}

// Resolve returns coordinates for address. Cache hits return immediately
// without touching the limiter. Otherwise the call needs a limiter slot
// (ErrUnavailable when denied), and every issued provider call is charged,
// successful or not. Only successful results are cached.
//
// Concurrent misses for the same address share one provider call and one
// charge. The flight runs under the first caller's context; later callers
// stop waiting when their own context is done.
func (c *Client) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		c.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		return domain.Coordinates{}, fmt.Errorf("%w: empty address", ErrNotFound)
	}

	coords, result := c.cache.Lookup(address)
	c.metrics.GeocodeCache.WithLabelValues(string(result)).Inc()
	if result == LookupHit {
		c.logger.Debug("geocode cache hit", "address", address)
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		return coords, nil
	}

	if err := ctx.Err(); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, err
	}

	ch := c.inflight.DoChan(cacheKey(address), func() (any, error) {
		return c.fetch(ctx, address)
	})
	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("geocode joined in-flight lookup", "address", address)
		}
		l := res.Val.(lookup)
		c.metrics.GeocodeRequests.WithLabelValues(l.outcome).Inc()
		return l.coords, res.Err
	case <-ctx.Done():
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, ctx.Err()
	}
}

// fetch runs one limiter-guarded provider call and caches a success.
func (c *Client) fetch(ctx context.Context, address string) (lookup, error) {
	// A flight that finished between our cache miss and joining the group
	// has already stored the result.
	if coords, ok := c.cache.Get(address); ok {
		return lookup{coords: coords, outcome: "success"}, nil
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		switch {
		case errors.Is(err, ErrMonthlyBudget):
			c.metrics.GeocodeDenied.WithLabelValues("monthly_budget").Inc()
		case errors.Is(err, ErrDailyCap):
			c.metrics.GeocodeDenied.WithLabelValues("daily_cap").Inc()
		default:
			return lookup{outcome: "error"}, err
		}
		return lookup{outcome: "unavailable"}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		c.limiter.Release()
		return lookup{outcome: "error"}, err
	}

	start := time.Now()
	result, err := c.provider.ForwardGeocode(ctx, address)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	c.limiter.RecordUsage()
	c.observeUsage()

	if err != nil {
		c.logger.Warn("geocode request failed", "address", address, "error", err)
		return lookup{outcome: "error"}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if !result.Found() {
		c.logger.Info("geocode found no match", "address", address)
		return lookup{outcome: "not_found"}, ErrNotFound
	}

	coords := result.Coordinates()
	c.cache.Set(address, coords)
	c.logger.Debug("geocode resolved", "address", address, "lat", coords.Lat, "lon", coords.Lon)
	return lookup{coords: coords, outcome: "success"}, nil
}

// Usage reports the limiter counters and cache size.
func (c *Client) Usage() (Usage, int) {
	return c.limiter.Usage(), c.cache.Len()
}

func (c *Client) observeUsage() {
	u := c.limiter.Usage()
	c.metrics.GeocodeDailyUsed.Set(float64(u.DailyRequests))
	c.metrics.GeocodeMonthlyCost.Set(u.MonthlyCost)
}
