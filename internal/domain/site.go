package domain

import (
	"math"
	"strconv"
	"strings"
)

// Roster column names as they appear in the source, mapped to the canonical
// field each one fills.
var siteColumns = map[string]string{
	"facility_name": "site_name",
	"latitude":      "lat",
	"longitude":     "lon",
	"total_spaces":  "max_capacity",
	"city":          "city",
	"phone":         "phone",
}

// SourceColumns lists the roster columns in the order sources should select them.
var SourceColumns = []string{"facility_name", "latitude", "longitude", "total_spaces", "city", "phone"}

// Site is a physical location of interest (shelter, school, daycare).
type Site struct {
	SiteName    string  `json:"site_name"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	MaxCapacity int     `json:"max_capacity"`
	Phone       string  `json:"phone,omitempty"`
}

// SiteRow is one roster row keyed by column name. Either the source column
// name (facility_name) or the canonical one (site_name) is accepted.
type SiteRow map[string]string

func (r SiteRow) get(source string) string {
	if v, ok := r[source]; ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(r[siteColumns[source]])
}

// NormalizeSiteRows converts roster rows into sites. Rows whose latitude or
// longitude is missing, non-numeric or out of range are excluded; dropped
// reports how many.
func NormalizeSiteRows(rows []SiteRow) (sites []Site, dropped int) {
	sites = make([]Site, 0, len(rows))
	for _, row := range rows {
		lat, okLat := parseCoordinate(row.get("latitude"), 90)
		lon, okLon := parseCoordinate(row.get("longitude"), 180)
		if !okLat || !okLon {
			dropped++
			continue
		}
		sites = append(sites, Site{
			SiteName:    row.get("facility_name"),
			City:        row.get("city"),
			Lat:         lat,
			Lon:         lon,
			MaxCapacity: parseCapacity(row.get("total_spaces")),
			Phone:       row.get("phone"),
		})
	}
	return sites, dropped
}

func parseCoordinate(s string, limit float64) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}

// parseCapacity accepts integers and floats ("25.0"), truncating fractions.
// Negative or unparseable values are treated as unknown capacity (0).
func parseCapacity(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int(f)
}
