package pipeline

import (
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
)

// buildSnapshot matches sites against alert parts.
func buildSnapshot(alerts []domain.AlertPart, sites []domain.Site, now time.Time) *domain.Snapshot {
	return &domain.Snapshot{
		Alerts:      alerts,
		Sites:       sites,
		Matches:     domain.Match(sites, alerts),
		RefreshedAt: now.UTC(),
	}
}

// observe records snapshot gauges and logs the summary.
func (p *Pipeline) observe(snap *domain.Snapshot) {
	s := snap.Summarize()
	p.metrics.AlertParts.Set(float64(s.AlertParts))
	p.metrics.MatchRecords.Set(float64(s.MatchRecords))
	p.metrics.AffectedSites.Set(float64(s.AffectedSites))

	p.logger.Info("refresh complete",
		"alert_parts", s.AlertParts,
		"sites", s.Sites,
		"affected_sites", s.AffectedSites,
		"match_records", s.MatchRecords,
	)
}
