package domain

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// MatchedAlert is the alert side of a MatchRecord.
type MatchedAlert struct {
	EventID          string      `json:"event_id"`
	EventName        string      `json:"event_name"`
	EventType        EventType   `json:"event_type"`
	OrderAlertStatus AlertStatus `json:"order_alert_status,omitempty"`
	IssuingAgency    string      `json:"issuing_agency,omitempty"`
	PartIndex        int         `json:"part_index"`
	TotalParts       int         `json:"total_parts"`
}

// MatchRecord pairs a site with one alert part containing it. Alert is nil
// when the site is inside no alert area.
type MatchRecord struct {
	Site
	Alert *MatchedAlert `json:"alert"`
}

// Affected reports whether the record carries an alert.
func (r MatchRecord) Affected() bool { return r.Alert != nil }

// R-tree fan-out. Alert feeds carry at most a few thousand parts.
const (
	treeMinChildren = 25
	treeMaxChildren = 50
)

// Matcher answers containment queries against a fixed set of alert parts.
// It is immutable once built and safe for concurrent use.
type Matcher struct {
	parts []AlertPart
	tree  *rtreego.Rtree
	// unindexed holds parts whose bounds could not be turned into a rect;
	// they are tested against every point.
	unindexed []int
}

type indexedPart struct {
	idx  int
	rect rtreego.Rect
}

func (p *indexedPart) Bounds() rtreego.Rect { return p.rect }

// NewMatcher indexes parts by bounding box.
func NewMatcher(parts []AlertPart) *Matcher {
	m := &Matcher{parts: parts}
	objs := make([]rtreego.Spatial, 0, len(parts))
	for i, p := range parts {
		lo, hi := p.Bounds()
		rect, err := rtreego.NewRect(
			rtreego.Point{lo.Lon - boundaryTolerance, lo.Lat - boundaryTolerance},
			[]float64{hi.Lon - lo.Lon + 2*boundaryTolerance, hi.Lat - lo.Lat + 2*boundaryTolerance},
		)
		if err != nil {
			m.unindexed = append(m.unindexed, i)
			continue
		}
		objs = append(objs, &indexedPart{idx: i, rect: rect})
	}
	m.tree = rtreego.NewTree(2, treeMinChildren, treeMaxChildren, objs...)
	return m
}

// Containing returns, in input order, every part whose ring contains pt
// (boundary inclusive).
func (m *Matcher) Containing(pt Coordinates) []AlertPart {
	pos := Position{Lon: pt.Lon, Lat: pt.Lat}
	query := rtreego.Point{pos.Lon, pos.Lat}.ToRect(boundaryTolerance)

	candidates := append([]int(nil), m.unindexed...)
	for _, s := range m.tree.SearchIntersect(query) {
		candidates = append(candidates, s.(*indexedPart).idx)
	}
	sort.Ints(candidates)

	var out []AlertPart
	for _, idx := range candidates {
		if RingContains(m.parts[idx].Geometry, pos) {
			out = append(out, m.parts[idx])
		}
	}
	return out
}

// Match joins sites against the matcher's parts with left outer join
// semantics: one record per containing part, or a single record with a nil
// Alert when nothing contains the site. Output follows site order.
func (m *Matcher) Match(sites []Site) []MatchRecord {
	records := make([]MatchRecord, 0, len(sites))
	for _, s := range sites {
		hits := m.Containing(Coordinates{Lat: s.Lat, Lon: s.Lon})
		if len(hits) == 0 {
			records = append(records, MatchRecord{Site: s})
			continue
		}
		for _, p := range hits {
			records = append(records, MatchRecord{Site: s, Alert: matchedAlert(p)})
		}
	}
	return records
}

// Match is shorthand for NewMatcher(parts).Match(sites).
func Match(sites []Site, parts []AlertPart) []MatchRecord {
	return NewMatcher(parts).Match(sites)
}

func matchedAlert(p AlertPart) *MatchedAlert {
	return &MatchedAlert{
		EventID:          p.EventID,
		EventName:        p.EventName,
		EventType:        p.EventType,
		OrderAlertStatus: p.OrderAlertStatus,
		IssuingAgency:    p.IssuingAgency,
		PartIndex:        p.PartIndex,
		TotalParts:       p.TotalParts,
	}
}
