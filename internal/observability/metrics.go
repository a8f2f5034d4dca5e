package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "site_monitor"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Refresh pipeline metrics.
	RefreshRunning   prometheus.Gauge
	RefreshDuration  prometheus.Histogram
	RefreshErrors    prometheus.Counter
	AlertParts       prometheus.Gauge
	AlertFeedErrors  *prometheus.CounterVec // labels: reason={fetch,status,decode,empty,feature}
	SitesLoaded      prometheus.Gauge
	SitesDropped     prometheus.Counter
	MatchRecords     prometheus.Gauge
	AffectedSites    prometheus.Gauge
	RecordsPublished prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,not_found,error,unavailable}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss,expired}
	GeocodeDenied      *prometheus.CounterVec // labels: reason={monthly_budget,daily_cap}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeDailyUsed   prometheus.Gauge
	GeocodeMonthlyCost prometheus.Gauge
	GeocodeEnabled     prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-load-match cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Refresh cycles that failed and kept the previous snapshot.",
		}),
		AlertParts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_parts",
			Help:      "Alert polygon parts in the latest feed fetch.",
		}),
		AlertFeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_feed_errors_total",
			Help:      "Alert feed problems by reason.",
		}, []string{"reason"}),
		SitesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sites_loaded",
			Help:      "Sites with valid coordinates in the latest roster load.",
		}),
		SitesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sites_dropped_total",
			Help:      "Roster rows excluded for invalid coordinates.",
		}),
		MatchRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "match_records",
			Help:      "Match records in the latest snapshot.",
		}),
		AffectedSites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "affected_sites",
			Help:      "Sites inside at least one alert area in the latest snapshot.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Match records written to the sink topic.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Address resolutions by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_denied_total",
			Help:      "Geocode requests refused by the rate limiter, by reason.",
		}, []string{"reason"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeDailyUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_daily_requests",
			Help:      "Provider requests issued since the daily reset.",
		}),
		GeocodeMonthlyCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_monthly_cost_dollars",
			Help:      "Accumulated provider cost since the monthly reset.",
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when address search is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RefreshRunning,
		m.RefreshDuration,
		m.RefreshErrors,
		m.AlertParts,
		m.AlertFeedErrors,
		m.SitesLoaded,
		m.SitesDropped,
		m.MatchRecords,
		m.AffectedSites,
		m.RecordsPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDenied,
		m.GeocodeAPIDuration,
		m.GeocodeDailyUsed,
		m.GeocodeMonthlyCost,
		m.GeocodeEnabled,
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
