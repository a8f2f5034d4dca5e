package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/emergency-site-monitor/internal/config"
	"github.com/couchcryptid/emergency-site-monitor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes match records to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes every match record of the snapshot in a single
// WriteMessages call. Records are keyed by site name so all records for one
// site land on the same partition.
func (w *Writer) Publish(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || len(snap.Matches) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Matches))
	for i := range snap.Matches {
		msg, err := serializeToMessage(snap.Matches[i], snap.RefreshedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish match records: %w", err)
	}
	w.logger.Debug("published match records", "records", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a MatchRecord into a Kafka message. Unaffected
// sites carry an empty event_type header.
func serializeToMessage(rec domain.MatchRecord, refreshedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize match record: %w", err)
	}
	var eventType string
	if rec.Alert != nil {
		eventType = string(rec.Alert.EventType)
	}
	return kafkago.Message{
		Key:   []byte(rec.SiteName),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "refreshed_at", Value: []byte(refreshedAt.Format(time.RFC3339))},
		},
	}, nil
}
