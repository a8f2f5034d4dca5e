package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawFeatureCollection is the GeoJSON document served by the alert feed.
// Features are kept raw so one malformed feature cannot sink the whole feed.
type RawFeatureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// RawFeature is a single feed feature before normalization.
type RawFeature struct {
	ID         FlexString         `json:"id"`
	Properties RawAlertProperties `json:"properties"`
	Geometry   Geometry           `json:"geometry"`
}

// RawAlertProperties holds the feed attributes we carry. Field names are the
// upper-case ArcGIS column names.
type RawAlertProperties struct {
	ObjectID         FlexString `json:"OBJECTID"`
	EventName        string     `json:"EVENT_NAME"`
	EventType        string     `json:"EVENT_TYPE"`
	OrderAlertStatus string     `json:"ORDER_ALERT_STATUS"`
	IssuingAgency    string     `json:"ISSUING_AGENCY"`
	OrderAlertName   string     `json:"ORDER_ALERT_NAME"`
	PreocCode        string     `json:"PREOC_CODE"`
	EventNumber      FlexString `json:"EVENT_NUMBER"`
	DateModified     *float64   `json:"DATE_MODIFIED"` // epoch milliseconds
	FeatureAreaSqm   *float64   `json:"FEATURE_AREA_SQM"`
	FeatureLengthM   *float64   `json:"FEATURE_LENGTH_M"`
}

// FlexString accepts either a JSON string or a JSON number. ArcGIS is not
// consistent about which one it sends for ids.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// GeometryKind tags which variant a Geometry holds.
type GeometryKind int

const (
	KindUnsupported GeometryKind = iota
	KindPolygon
	KindMultiPolygon
)

func (k GeometryKind) String() string {
	switch k {
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unsupported"
	}
}

// Geometry is the decoded form of a feature geometry.
//
// For KindPolygon, Rings holds every coordinate ring of the polygon in source
// order. For KindMultiPolygon, Rings holds the exterior ring of each
// constituent polygon. Either way each ring becomes one alert part; holes are
// not modeled.
type Geometry struct {
	Kind  GeometryKind
	Type  string // GeoJSON type name as received
	Rings []Ring
}

// UnmarshalJSON decodes a GeoJSON geometry object. Types other than Polygon
// and MultiPolygon decode successfully as KindUnsupported.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	*g = Geometry{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode geometry: %w", err)
	}
	g.Type = raw.Type

	switch raw.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(raw.Coordinates, &coords); err != nil {
			return fmt.Errorf("decode polygon coordinates: %w", err)
		}
		g.Kind = KindPolygon
		for _, ring := range coords {
			g.Rings = append(g.Rings, toRing(ring))
		}
	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(raw.Coordinates, &coords); err != nil {
			return fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		g.Kind = KindMultiPolygon
		for _, poly := range coords {
			if len(poly) == 0 {
				g.Rings = append(g.Rings, nil)
				continue
			}
			g.Rings = append(g.Rings, toRing(poly[0]))
		}
	default:
		g.Kind = KindUnsupported
	}
	return nil
}

// toRing converts [lon, lat(, z)] tuples, skipping tuples that are too short.
func toRing(coords [][]float64) Ring {
	ring := make(Ring, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		ring = append(ring, Position{Lon: c[0], Lat: c[1]})
	}
	return ring
}

// eventID picks the feature id, falling back to OBJECTID.
func (f RawFeature) eventID() string {
	if f.ID != "" {
		return string(f.ID)
	}
	return string(f.Properties.ObjectID)
}
