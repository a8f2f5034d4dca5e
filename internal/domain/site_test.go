package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeSiteRows(t *testing.T) {
	rows := []SiteRow{
		{"facility_name": "Sunny Days Daycare", "latitude": "49.1", "longitude": "-122.9", "total_spaces": "25", "city": "Abbotsford", "phone": "604-555-0100"},
		{"facility_name": "Missing Lat", "latitude": "", "longitude": "-122.9", "city": "Abbotsford"},
		{"facility_name": "Bad Lon", "latitude": "49.1", "longitude": "west", "city": "Abbotsford"},
		{"facility_name": "Whole Float Capacity", "latitude": " 50.0 ", "longitude": "-120", "total_spaces": "12.0", "city": "Kamloops"},
		{"site_name": "Canonical Columns", "lat": "48.4", "lon": "-123.4", "max_capacity": "n/a", "city": "Victoria"},
	}

	sites, dropped := NormalizeSiteRows(rows)

	want := []Site{
		{SiteName: "Sunny Days Daycare", City: "Abbotsford", Lat: 49.1, Lon: -122.9, MaxCapacity: 25, Phone: "604-555-0100"},
		{SiteName: "Whole Float Capacity", City: "Kamloops", Lat: 50, Lon: -120, MaxCapacity: 12},
		{SiteName: "Canonical Columns", City: "Victoria", Lat: 48.4, Lon: -123.4},
	}
	if diff := cmp.Diff(want, sites); diff != "" {
		t.Errorf("NormalizeSiteRows() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, dropped)
}

func TestNormalizeSiteRows_Empty(t *testing.T) {
	sites, dropped := NormalizeSiteRows(nil)
	assert.Empty(t, sites)
	assert.Zero(t, dropped)
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in    string
		limit float64
		want  float64
		ok    bool
	}{
		{"49.25", 90, 49.25, true},
		{"-90", 90, -90, true},
		{"90.0001", 90, 0, false},
		{"-181", 180, 0, false},
		{"NaN", 90, 0, false},
		{"Inf", 180, 0, false},
		{"", 90, 0, false},
		{"abc", 90, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseCoordinate(tt.in, tt.limit)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 0)
		})
	}
}

func TestParseCapacity(t *testing.T) {
	tests := map[string]int{
		"40":   40,
		"12.0": 12,
		"":     0,
		"-5":   0,
		"-5.0": 0,
		"lots": 0,
		"NaN":  0,
		"8.75": 8,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseCapacity(in), in)
	}
}
