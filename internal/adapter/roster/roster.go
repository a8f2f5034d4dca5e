// Package roster loads the site roster from a CSV file or URL, or from a
// SQLite table.
package roster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	"github.com/couchcryptid/emergency-site-monitor/internal/observability"
)

// RowSource reads raw roster rows keyed by column name.
type RowSource interface {
	ReadRows(ctx context.Context) ([]domain.SiteRow, error)
	// Describe names the source for logs.
	Describe() string
}

// Repository turns raw rows into validated sites.
type Repository struct {
	source  RowSource
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRepository wraps a row source.
func NewRepository(source RowSource, metrics *observability.Metrics, logger *slog.Logger) *Repository {
	return &Repository{source: source, metrics: metrics, logger: logger}
}

// LoadSites reads the roster and returns only rows with valid coordinates.
// Dropped rows are counted and logged, never returned as an error; an error
// means the source itself could not be read.
func (r *Repository) LoadSites(ctx context.Context) ([]domain.Site, error) {
	rows, err := r.source.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read roster from %s: %w", r.source.Describe(), err)
	}

	sites, dropped := domain.NormalizeSiteRows(rows)
	r.metrics.SitesLoaded.Set(float64(len(sites)))
	if dropped > 0 {
		r.metrics.SitesDropped.Add(float64(dropped))
		r.logger.Warn("dropped roster rows with invalid coordinates",
			"source", r.source.Describe(),
			"sites_dropped", dropped,
			"rows", len(rows),
		)
	}
	r.logger.Info("roster loaded", "source", r.source.Describe(), "sites", len(sites))
	return sites, nil
}
