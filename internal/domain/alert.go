package domain

import (
	"strings"
	"time"
)

// EventType classifies the hazard behind an alert.
type EventType string

const (
	EventTypeFire      EventType = "Fire"
	EventTypeFlood     EventType = "Flood"
	EventTypeLandslide EventType = "Landslide"
	EventTypeOther     EventType = "Other"
)

// ParseEventType maps a feed EVENT_TYPE value onto a known type. Matching is
// case-insensitive; anything unrecognized (including empty) becomes Other.
func ParseEventType(s string) EventType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fire":
		return EventTypeFire
	case "flood":
		return EventTypeFlood
	case "landslide":
		return EventTypeLandslide
	default:
		return EventTypeOther
	}
}

// AlertStatus is the ORDER_ALERT_STATUS of an alert area. An Order requires
// evacuation; an Alert means be ready to leave.
type AlertStatus string

const (
	StatusAlert AlertStatus = "Alert"
	StatusOrder AlertStatus = "Order"
)

// ParseAlertStatus returns the canonical status, or "" when the feed value
// is neither Alert nor Order.
func ParseAlertStatus(s string) AlertStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alert":
		return StatusAlert
	case "order":
		return StatusOrder
	default:
		return ""
	}
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position is a single vertex in feed order: longitude first.
type Position struct {
	Lon float64
	Lat float64
}

// Ring is a closed sequence of positions. The first and last positions are equal.
type Ring []Position

// AlertPart is one simple polygon ring belonging to one alert event.
// PartIndex is 1-based and never exceeds TotalParts.
type AlertPart struct {
	EventID          string      `json:"event_id"`
	EventName        string      `json:"event_name"`
	EventType        EventType   `json:"event_type"`
	OrderAlertStatus AlertStatus `json:"order_alert_status,omitempty"`
	IssuingAgency    string      `json:"issuing_agency,omitempty"`

	OrderAlertName string     `json:"order_alert_name,omitempty"`
	PreocCode      string     `json:"preoc_code,omitempty"`
	EventNumber    string     `json:"event_number,omitempty"`
	DateModified   *time.Time `json:"date_modified,omitempty"`
	AreaSqm        float64    `json:"feature_area_sqm,omitempty"`
	LengthM        float64    `json:"feature_length_m,omitempty"`

	Geometry   Ring `json:"-"`
	PartIndex  int  `json:"part_index"`
	TotalParts int  `json:"total_parts"`
}

// Bounds returns the bounding box of the part's ring as min and max corners.
func (p AlertPart) Bounds() (minPos, maxPos Position) {
	if len(p.Geometry) == 0 {
		return Position{}, Position{}
	}
	minPos, maxPos = p.Geometry[0], p.Geometry[0]
	for _, v := range p.Geometry[1:] {
		minPos.Lon = min(minPos.Lon, v.Lon)
		minPos.Lat = min(minPos.Lat, v.Lat)
		maxPos.Lon = max(maxPos.Lon, v.Lon)
		maxPos.Lat = max(maxPos.Lat, v.Lat)
	}
	return minPos, maxPos
}
