package http

import "github.com/couchcryptid/emergency-site-monitor/internal/domain"

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string           `json:"type"`
	Geometry   polygon          `json:"geometry"`
	Properties domain.AlertPart `json:"properties"`
}

type polygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// toGeoJSON renders one Polygon feature per alert part for map overlays.
func toGeoJSON(parts []domain.AlertPart) featureCollection {
	features := make([]feature, 0, len(parts))
	for _, p := range parts {
		ring := make([][]float64, len(p.Geometry))
		for i, pos := range p.Geometry {
			ring[i] = []float64{pos.Lon, pos.Lat}
		}
		features = append(features, feature{
			Type:       "Feature",
			Geometry:   polygon{Type: "Polygon", Coordinates: [][][]float64{ring}},
			Properties: p,
		})
	}
	return featureCollection{Type: "FeatureCollection", Features: features}
}
