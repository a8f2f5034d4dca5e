package domain

import (
	"sort"
	"time"
)

// Snapshot is the immutable result of one refresh: the alert parts and sites
// that went in and the match records that came out.
type Snapshot struct {
	Alerts      []AlertPart   `json:"alerts"`
	Sites       []Site        `json:"sites"`
	Matches     []MatchRecord `json:"matches"`
	RefreshedAt time.Time     `json:"refreshed_at"`
}

// Summary counts distinct sites by whether any alert covers them.
type Summary struct {
	AlertParts      int       `json:"alert_parts"`
	Sites           int       `json:"sites"`
	AffectedSites   int       `json:"affected_sites"`
	UnaffectedSites int       `json:"unaffected_sites"`
	MatchRecords    int       `json:"match_records"`
	RefreshedAt     time.Time `json:"refreshed_at"`
}

// Summarize reports counts for a snapshot. Every unaffected site yields
// exactly one record with no alert, so affected sites are the remainder.
func (s *Snapshot) Summarize() Summary {
	unaffected := 0
	for _, rec := range s.Matches {
		if !rec.Affected() {
			unaffected++
		}
	}
	return Summary{
		AlertParts:      len(s.Alerts),
		Sites:           len(s.Sites),
		AffectedSites:   len(s.Sites) - unaffected,
		UnaffectedSites: unaffected,
		MatchRecords:    len(s.Matches),
		RefreshedAt:     s.RefreshedAt,
	}
}

// MatchFilter narrows match records the way the dashboard does. Empty string
// fields mean "all".
type MatchFilter struct {
	City         string
	EventType    string
	EventName    string
	AffectedOnly bool
}

// FilterMatches returns the records that pass every set filter.
func FilterMatches(records []MatchRecord, f MatchFilter) []MatchRecord {
	out := make([]MatchRecord, 0, len(records))
	for _, r := range records {
		if f.City != "" && r.City != f.City {
			continue
		}
		if f.EventType != "" && (r.Alert == nil || string(r.Alert.EventType) != f.EventType) {
			continue
		}
		if f.EventName != "" && (r.Alert == nil || r.Alert.EventName != f.EventName) {
			continue
		}
		if f.AffectedOnly && !r.Affected() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterOptions lists the values a dashboard can offer in its dropdowns.
type FilterOptions struct {
	Cities     []string `json:"cities"`
	EventTypes []string `json:"event_types"`
	EventNames []string `json:"event_names"`
}

// BuildFilterOptions collects sorted unique cities across all records, and
// event types and names across affected records in city ("" for every city).
func BuildFilterOptions(records []MatchRecord, city string) FilterOptions {
	cities := make(map[string]struct{})
	types := make(map[string]struct{})
	names := make(map[string]struct{})
	for _, r := range records {
		if r.City != "" {
			cities[r.City] = struct{}{}
		}
		if r.Alert == nil || (city != "" && r.City != city) {
			continue
		}
		types[string(r.Alert.EventType)] = struct{}{}
		if r.Alert.EventName != "" {
			names[r.Alert.EventName] = struct{}{}
		}
	}
	return FilterOptions{
		Cities:     sortedKeys(cities),
		EventTypes: sortedKeys(types),
		EventNames: sortedKeys(names),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
