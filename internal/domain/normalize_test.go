package domain

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func square(lon, lat, size float64) Ring {
	return Ring{
		{Lon: lon, Lat: lat},
		{Lon: lon + size, Lat: lat},
		{Lon: lon + size, Lat: lat + size},
		{Lon: lon, Lat: lat + size},
		{Lon: lon, Lat: lat},
	}
}

func fireFeature(kind GeometryKind, rings ...Ring) RawFeature {
	return RawFeature{
		ID: "evt-1",
		Properties: RawAlertProperties{
			EventName:        "Example Creek Wildfire",
			EventType:        "fire",
			OrderAlertStatus: "ORDER",
			IssuingAgency:    "Regional District",
		},
		Geometry: Geometry{Kind: kind, Type: kind.String(), Rings: rings},
	}
}

func TestNormalizeFeature_MultiPolygonParts(t *testing.T) {
	f := fireFeature(KindMultiPolygon, square(0, 0, 1), square(5, 5, 1), square(10, 10, 1))

	parts, err := NormalizeFeature(f, discardLogger())
	require.NoError(t, err)
	require.Len(t, parts, 3)

	for i, p := range parts {
		assert.Equal(t, i+1, p.PartIndex)
		assert.Equal(t, 3, p.TotalParts)
		assert.Equal(t, "evt-1", p.EventID)
		assert.Equal(t, "Example Creek Wildfire", p.EventName)
		assert.Equal(t, EventTypeFire, p.EventType)
		assert.Equal(t, StatusOrder, p.OrderAlertStatus)
	}
	assert.Equal(t, Position{Lon: 5, Lat: 5}, parts[1].Geometry[0])
}

func TestNormalizeFeature_PolygonRingsBecomeParts(t *testing.T) {
	f := fireFeature(KindPolygon, square(0, 0, 4), square(1, 1, 1))

	parts, err := NormalizeFeature(f, discardLogger())
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, 2, parts[1].PartIndex)
	assert.Equal(t, 2, parts[1].TotalParts)
}

func TestNormalizeFeature_UnsupportedGeometry(t *testing.T) {
	f := fireFeature(KindUnsupported)
	f.Geometry.Type = "Point"

	parts, err := NormalizeFeature(f, discardLogger())
	require.ErrorIs(t, err, ErrUnsupportedGeometry)
	assert.Contains(t, err.Error(), "Point")
	assert.Empty(t, parts)
}

func TestNormalizeFeature_DegenerateRingsDropped(t *testing.T) {
	line := Ring{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 0}}
	f := fireFeature(KindMultiPolygon, line, square(5, 5, 1), nil)

	parts, err := NormalizeFeature(f, discardLogger())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, 1, parts[0].PartIndex)
	assert.Equal(t, 1, parts[0].TotalParts)
}

func TestNormalizeFeature_AllRingsDegenerate(t *testing.T) {
	f := fireFeature(KindPolygon, Ring{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0}})

	_, err := NormalizeFeature(f, discardLogger())
	require.ErrorIs(t, err, ErrNoValidRings)
}

func TestNormalizeFeature_ClosesOpenRing(t *testing.T) {
	open := Ring{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}}
	parts, err := NormalizeFeature(fireFeature(KindPolygon, open), discardLogger())
	require.NoError(t, err)

	ring := parts[0].Geometry
	require.Len(t, ring, 4)
	assert.Equal(t, ring[0], ring[3])
	assert.Len(t, open, 3, "input ring is not mutated")
}

func TestNormalizeFeature_ExtendedAttributes(t *testing.T) {
	ms := float64(time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC).UnixMilli())
	area, length := 12500.5, 830.25
	f := fireFeature(KindPolygon, square(0, 0, 1))
	f.ID = ""
	f.Properties.ObjectID = "42"
	f.Properties.EventType = "Earthquake"
	f.Properties.OrderAlertStatus = "Tactical"
	f.Properties.OrderAlertName = "Area 3"
	f.Properties.PreocCode = "CTL"
	f.Properties.EventNumber = "K52001"
	f.Properties.DateModified = &ms
	f.Properties.FeatureAreaSqm = &area
	f.Properties.FeatureLengthM = &length

	parts, err := NormalizeFeature(f, discardLogger())
	require.NoError(t, err)
	p := parts[0]

	assert.Equal(t, "42", p.EventID)
	assert.Equal(t, EventTypeOther, p.EventType)
	assert.Equal(t, AlertStatus(""), p.OrderAlertStatus)
	assert.Equal(t, "Area 3", p.OrderAlertName)
	assert.Equal(t, "CTL", p.PreocCode)
	assert.Equal(t, "K52001", p.EventNumber)
	require.NotNil(t, p.DateModified)
	assert.True(t, p.DateModified.Equal(time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 12500.5, p.AreaSqm, 0)
	assert.InDelta(t, 830.25, p.LengthM, 0)
}

func TestParseEventType(t *testing.T) {
	tests := map[string]EventType{
		"Fire":       EventTypeFire,
		"FLOOD":      EventTypeFlood,
		" landslide": EventTypeLandslide,
		"Tsunami":    EventTypeOther,
		"":           EventTypeOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseEventType(in), in)
	}
}

func TestParseAlertStatus(t *testing.T) {
	assert.Equal(t, StatusAlert, ParseAlertStatus("Alert"))
	assert.Equal(t, StatusOrder, ParseAlertStatus("order"))
	assert.Equal(t, AlertStatus(""), ParseAlertStatus("All Clear"))
}

func TestAlertPart_Bounds(t *testing.T) {
	p := AlertPart{Geometry: Ring{{Lon: -123, Lat: 49.2}, {Lon: -122.8, Lat: 49}, {Lon: -122.9, Lat: 49.1}, {Lon: -123, Lat: 49.2}}}
	lo, hi := p.Bounds()
	assert.Equal(t, Position{Lon: -123, Lat: 49}, lo)
	assert.Equal(t, Position{Lon: -122.8, Lat: 49.2}, hi)
}
