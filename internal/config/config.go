package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultAlertsURL is the BC evacuation orders and alerts FeatureServer query,
// returning every feature as GeoJSON.
const DefaultAlertsURL = "https://services6.arcgis.com/ubm4tcTYICKBpist/arcgis/rest/services/Evacuation_Orders_and_Alerts/FeatureServer/0/query?where=1%3D1&outFields=*&outSR=4326&f=pgeojson"

// DefaultSitesCSVURL is the BC licensed child care facilities roster.
const DefaultSitesCSVURL = "https://catalogue.data.gov.bc.ca/dataset/4cc207cc-ff03-44f8-8c5f-415af5224646/resource/9a9f14e1-03ea-4a11-936a-6e77b15eeb39/download/childcare_locations.csv"

// Site roster sources.
const (
	SitesSourceCSV    = "csv"
	SitesSourceSQLite = "sqlite"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is a plain SQL identifier safe to splice
// into a query.
func IsIdentifier(s string) bool {
	return identifier.MatchString(s)
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	AlertsURL       string
	AlertsTimeout   time.Duration
	RefreshInterval time.Duration

	SitesSource  string
	SitesCSVURL  string
	SitesTimeout time.Duration
	SitesDBPath  string
	SitesDBTable string

	// Mapbox geocoding configuration.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration
	MapboxCountry string

	// Geocoding cost controls.
	GeocodeCacheTTL       time.Duration
	GeocodeRPS            float64
	GeocodeDailyCap       int
	GeocodeCostPerRequest float64
	GeocodeMonthlyBudget  float64

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	alertsTimeout, err := parseDuration("ALERTS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	sitesTimeout, err := parseDuration("SITES_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("GEOCODE_CACHE_TTL", "720h")
	if err != nil {
		return nil, err
	}

	rps, err := parseNonNegativeFloat("GEOCODE_RPS", "10")
	if err != nil {
		return nil, err
	}
	costPerRequest, err := parseNonNegativeFloat("GEOCODE_COST_PER_REQUEST", "0.005")
	if err != nil {
		return nil, err
	}
	monthlyBudget, err := parseNonNegativeFloat("GEOCODE_MONTHLY_BUDGET", "50")
	if err != nil {
		return nil, err
	}
	dailyCap, err := strconv.Atoi(sharedcfg.EnvOrDefault("GEOCODE_DAILY_CAP", "500"))
	if err != nil || dailyCap < 0 {
		return nil, errors.New("invalid GEOCODE_DAILY_CAP")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		AlertsURL:       sharedcfg.EnvOrDefault("ALERTS_URL", DefaultAlertsURL),
		AlertsTimeout:   alertsTimeout,
		RefreshInterval: refreshInterval,

		SitesSource:  sharedcfg.EnvOrDefault("SITES_SOURCE", SitesSourceCSV),
		SitesCSVURL:  sharedcfg.EnvOrDefault("SITES_CSV_URL", DefaultSitesCSVURL),
		SitesTimeout: sitesTimeout,
		SitesDBPath:  os.Getenv("SITES_DB_PATH"),
		SitesDBTable: sharedcfg.EnvOrDefault("SITES_DB_TABLE", "child_care_facilities"),

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,
		MapboxCountry: sharedcfg.EnvOrDefault("MAPBOX_COUNTRY", "ca"),

		GeocodeCacheTTL:       cacheTTL,
		GeocodeRPS:            rps,
		GeocodeDailyCap:       dailyCap,
		GeocodeCostPerRequest: costPerRequest,
		GeocodeMonthlyBudget:  monthlyBudget,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "site-alert-matches"),
	}

	switch cfg.SitesSource {
	case SitesSourceCSV:
		if cfg.SitesCSVURL == "" {
			return nil, errors.New("SITES_CSV_URL is required when SITES_SOURCE is csv")
		}
	case SitesSourceSQLite:
		if cfg.SitesDBPath == "" {
			return nil, errors.New("SITES_DB_PATH is required when SITES_SOURCE is sqlite")
		}
		if !IsIdentifier(cfg.SitesDBTable) {
			return nil, fmt.Errorf("invalid SITES_DB_TABLE %q", cfg.SitesDBTable)
		}
	default:
		return nil, fmt.Errorf("invalid SITES_SOURCE %q: want csv or sqlite", cfg.SitesSource)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseNonNegativeFloat(name, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(name, def), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}
