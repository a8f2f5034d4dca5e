package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	"github.com/couchcryptid/emergency-site-monitor/internal/geocode"
)

type matchesResponse struct {
	RefreshedAt time.Time            `json:"refreshed_at"`
	Count       int                  `json:"count"`
	Matches     []domain.MatchRecord `json:"matches"`
}

type usageResponse struct {
	geocode.Usage
	CacheEntries int `json:"cache_entries"`
}

// latest writes 503 and returns nil when no snapshot exists yet.
func (s *Server) latest(w http.ResponseWriter) *domain.Snapshot {
	snap := s.snapshots.Latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no_snapshot")
	}
	return snap
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	snap := s.latest(w)
	if snap == nil {
		return
	}
	q := r.URL.Query()
	affected, _ := strconv.ParseBool(q.Get("affected"))
	matches := domain.FilterMatches(snap.Matches, domain.MatchFilter{
		City:         q.Get("city"),
		EventType:    q.Get("event_type"),
		EventName:    q.Get("event_name"),
		AffectedOnly: affected,
	})
	writeJSON(w, http.StatusOK, matchesResponse{
		RefreshedAt: snap.RefreshedAt,
		Count:       len(matches),
		Matches:     matches,
	})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	snap := s.latest(w)
	if snap == nil {
		return
	}
	writeJSON(w, http.StatusOK, domain.BuildFilterOptions(snap.Matches, r.URL.Query().Get("city")))
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest(w)
	if snap == nil {
		return
	}
	writeJSON(w, http.StatusOK, toGeoJSON(snap.Alerts))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Refresh(r.Context())
	if err != nil {
		s.logger.Error("on-demand refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "refresh_failed")
		return
	}
	writeJSON(w, http.StatusOK, snap.Summarize())
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		writeError(w, http.StatusNotImplemented, "geocoding_disabled")
		return
	}
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "address_required")
		return
	}

	coords, err := s.resolver.Resolve(r.Context(), address)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, coords)
	case errors.Is(err, geocode.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable")
	case errors.Is(err, geocode.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		s.logger.Warn("geocode request aborted", "error", err)
		writeError(w, http.StatusInternalServerError, "error")
	}
}

func (s *Server) handleGeocodeUsage(w http.ResponseWriter, _ *http.Request) {
	if s.resolver == nil {
		writeError(w, http.StatusNotImplemented, "geocoding_disabled")
		return
	}
	usage, entries := s.resolver.Usage()
	writeJSON(w, http.StatusOK, usageResponse{Usage: usage, CacheEntries: entries})
}
