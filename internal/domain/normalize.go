package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrUnsupportedGeometry marks a feature whose geometry is not a polygon type.
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")

	// ErrNoValidRings marks a polygon feature where every ring was degenerate.
	ErrNoValidRings = errors.New("no valid rings")
)

// NormalizeFeature flattens one feed feature into alert parts, one per ring.
// Parts are numbered from 1 in source order. Degenerate rings (fewer than
// three distinct vertices) are dropped and not counted in TotalParts.
func NormalizeFeature(f RawFeature, logger *slog.Logger) ([]AlertPart, error) {
	if f.Geometry.Kind == KindUnsupported {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGeometry, f.Geometry.Type)
	}

	rings := make([]Ring, 0, len(f.Geometry.Rings))
	for i, r := range f.Geometry.Rings {
		cleaned, ok := closeRing(r)
		if !ok {
			logger.Warn("dropping degenerate alert ring",
				"event_id", f.eventID(),
				"event_name", f.Properties.EventName,
				"ring", i+1,
				"vertices", len(r),
			)
			continue
		}
		rings = append(rings, cleaned)
	}
	if len(rings) == 0 {
		return nil, ErrNoValidRings
	}

	base := alertFromProperties(f)
	parts := make([]AlertPart, 0, len(rings))
	for i, r := range rings {
		p := base
		p.Geometry = r
		p.PartIndex = i + 1
		p.TotalParts = len(rings)
		parts = append(parts, p)
	}
	return parts, nil
}

func alertFromProperties(f RawFeature) AlertPart {
	props := f.Properties
	part := AlertPart{
		EventID:          f.eventID(),
		EventName:        props.EventName,
		EventType:        ParseEventType(props.EventType),
		OrderAlertStatus: ParseAlertStatus(props.OrderAlertStatus),
		IssuingAgency:    props.IssuingAgency,
		OrderAlertName:   props.OrderAlertName,
		PreocCode:        props.PreocCode,
		EventNumber:      string(props.EventNumber),
	}
	if props.DateModified != nil {
		t := time.UnixMilli(int64(*props.DateModified)).UTC()
		part.DateModified = &t
	}
	if props.FeatureAreaSqm != nil {
		part.AreaSqm = *props.FeatureAreaSqm
	}
	if props.FeatureLengthM != nil {
		part.LengthM = *props.FeatureLengthM
	}
	return part
}

// closeRing returns the ring closed (first vertex repeated at the end) and
// whether it has at least three distinct vertices.
func closeRing(r Ring) (Ring, bool) {
	distinct := make(map[Position]struct{}, len(r))
	for _, p := range r {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return nil, false
	}
	if r[0] == r[len(r)-1] {
		return r, true
	}
	closed := make(Ring, len(r), len(r)+1)
	copy(closed, r)
	return append(closed, r[0]), true
}
