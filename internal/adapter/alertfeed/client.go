// Package alertfeed fetches the BC evacuation orders and alerts feed and
// flattens it into alert parts.
package alertfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	"github.com/couchcryptid/emergency-site-monitor/internal/observability"
)

// maxFeedBytes bounds how much of a response body is read.
const maxFeedBytes = 64 << 20

// Client fetches the alert feed over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client. timeout bounds the whole request.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchAlerts returns every alert part in the feed. It never fails: a feed
// that cannot be fetched or decoded, or that holds no features, yields an
// empty slice with the reason logged and counted. Individual features that
// are malformed or not polygons are skipped.
func (c *Client) FetchAlerts(ctx context.Context) []domain.AlertPart {
	fc, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("alert feed unavailable", "url", c.url, "error", err)
		return []domain.AlertPart{}
	}
	if len(fc.Features) == 0 {
		c.metrics.AlertFeedErrors.WithLabelValues("empty").Inc()
		c.logger.Warn("alert feed returned no features", "url", c.url)
		return []domain.AlertPart{}
	}

	parts := normalizeFeatures(fc.Features, c.metrics, c.logger)
	c.logger.Info("alert feed fetched", "features", len(fc.Features), "parts", len(parts))
	return parts
}

func (c *Client) fetch(ctx context.Context) (domain.RawFeatureCollection, error) {
	var fc domain.RawFeatureCollection

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		c.metrics.AlertFeedErrors.WithLabelValues("fetch").Inc()
		return fc, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.AlertFeedErrors.WithLabelValues("fetch").Inc()
		return fc, fmt.Errorf("alert feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.AlertFeedErrors.WithLabelValues("status").Inc()
		return fc, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&fc); err != nil {
		c.metrics.AlertFeedErrors.WithLabelValues("decode").Inc()
		return fc, fmt.Errorf("decode feed: %w", err)
	}
	return fc, nil
}

// normalizeFeatures decodes each raw feature on its own so a bad one only
// costs itself.
func normalizeFeatures(raw []json.RawMessage, metrics *observability.Metrics, logger *slog.Logger) []domain.AlertPart {
	parts := make([]domain.AlertPart, 0, len(raw))
	for i, msg := range raw {
		var f domain.RawFeature
		if err := json.Unmarshal(msg, &f); err != nil {
			metrics.AlertFeedErrors.WithLabelValues("feature").Inc()
			logger.Warn("skipping malformed alert feature", "index", i, "error", err)
			continue
		}

		fp, err := domain.NormalizeFeature(f, logger)
		if err != nil {
			metrics.AlertFeedErrors.WithLabelValues("feature").Inc()
			logger.Warn("skipping alert feature",
				"index", i,
				"event_name", f.Properties.EventName,
				"geometry", f.Geometry.Type,
				"error", err,
			)
			continue
		}
		parts = append(parts, fp...)
	}
	return parts
}
