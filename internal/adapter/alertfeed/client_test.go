package alertfeed

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	"github.com/couchcryptid/emergency-site-monitor/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedBody = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": 101,
      "geometry": {"type": "Polygon", "coordinates": [[[-123.0,49.0],[-122.8,49.0],[-122.8,49.2],[-123.0,49.2],[-123.0,49.0]]]},
      "properties": {"EVENT_NAME": "Example Creek Wildfire", "EVENT_TYPE": "Fire", "ORDER_ALERT_STATUS": "Alert", "ISSUING_AGENCY": "Regional District"}
    },
    {
      "type": "Feature",
      "id": 102,
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[0,0],[1,0],[1,1],[0,0]]],
        [[[5,5],[6,5],[6,6],[5,5]]],
        [[[9,9],[10,9],[10,10],[9,9]]]
      ]},
      "properties": {"EVENT_NAME": "Fraser River Flooding", "EVENT_TYPE": "Flood", "ORDER_ALERT_STATUS": "Order"}
    },
    {
      "type": "Feature",
      "id": 103,
      "geometry": {"type": "Point", "coordinates": [-123.0, 49.0]},
      "properties": {"EVENT_NAME": "Pin"}
    },
    {
      "type": "Feature",
      "id": 104,
      "geometry": {"type": "Polygon", "coordinates": "broken"},
      "properties": {"EVENT_NAME": "Broken"}
    }
  ]
}`

type fixture struct {
	client  *Client
	metrics *observability.Metrics
	logs    *bytes.Buffer
}

func newFixture(url string) fixture {
	var buf bytes.Buffer
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return fixture{
		client:  NewClient(url, 2*time.Second, metrics, logger),
		metrics: metrics,
		logs:    &buf,
	}
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAlerts_NormalizesFeed(t *testing.T) {
	srv := serve(t, http.StatusOK, feedBody)
	f := newFixture(srv.URL)

	parts := f.client.FetchAlerts(context.Background())

	require.Len(t, parts, 4)

	fire := parts[0]
	assert.Equal(t, "101", fire.EventID)
	assert.Equal(t, domain.EventTypeFire, fire.EventType)
	assert.Equal(t, domain.StatusAlert, fire.OrderAlertStatus)
	assert.Equal(t, 1, fire.PartIndex)
	assert.Equal(t, 1, fire.TotalParts)

	for i, p := range parts[1:] {
		assert.Equal(t, "102", p.EventID)
		assert.Equal(t, domain.EventTypeFlood, p.EventType)
		assert.Equal(t, i+1, p.PartIndex)
		assert.Equal(t, 3, p.TotalParts)
	}

	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.AlertFeedErrors.WithLabelValues("feature")), 0)
	assert.Contains(t, f.logs.String(), "skipping alert feature")
	assert.Contains(t, f.logs.String(), "geometry=Point")
}

func TestFetchAlerts_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"down"}`, "status"},
		{"malformed json", http.StatusOK, `{"type":"FeatureCollection","features":[`, "decode"},
		{"empty feed", http.StatusOK, `{"type":"FeatureCollection","features":[]}`, "empty"},
		{"missing features", http.StatusOK, `{"type":"FeatureCollection"}`, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			f := newFixture(srv.URL)

			parts := f.client.FetchAlerts(context.Background())

			assert.NotNil(t, parts)
			assert.Empty(t, parts)
			assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.AlertFeedErrors.WithLabelValues(tt.reason)), 0)
		})
	}
}

func TestFetchAlerts_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := newFixture(url)
	parts := f.client.FetchAlerts(context.Background())

	assert.Empty(t, parts)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.AlertFeedErrors.WithLabelValues("fetch")), 0)
}

func TestFetchAlerts_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newFixture(srv.URL)
	f.client.httpClient.Timeout = 50 * time.Millisecond

	assert.Empty(t, f.client.FetchAlerts(context.Background()))
}
