package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/config"
	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage_AffectedSite(t *testing.T) {
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	rec := domain.MatchRecord{
		Site: domain.Site{SiteName: "Site A", City: "Abbotsford", Lat: 49.1, Lon: -122.9, MaxCapacity: 30},
		Alert: &domain.MatchedAlert{
			EventID:    "F1",
			EventName:  "Example Creek Wildfire",
			EventType:  domain.EventTypeFire,
			PartIndex:  1,
			TotalParts: 1,
		},
	}

	msg, err := serializeToMessage(rec, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Site A"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("Fire"), msg.Headers[0].Value)
	assert.Equal(t, "refreshed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Site A", decoded["site_name"])
	alert, ok := decoded["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Fire", alert["event_type"])
}

func TestSerializeToMessage_UnaffectedSite(t *testing.T) {
	rec := domain.MatchRecord{Site: domain.Site{SiteName: "Site B", Lat: 50, Lon: -120}}

	msg, err := serializeToMessage(rec, time.Now())
	require.NoError(t, err)

	assert.Empty(t, msg.Headers[0].Value)
	assert.Contains(t, string(msg.Value), `"alert":null`)
}

func TestWriter_PublishEmptySnapshotIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaSinkTopic: "unused"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	require.NoError(t, w.Publish(context.Background(), nil))
	require.NoError(t, w.Publish(context.Background(), &domain.Snapshot{}))
}
