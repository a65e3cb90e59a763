package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/city-insight-service/internal/config"
	"github.com/couchcryptid/city-insight-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces insight results to the sink Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple insight results to the sink
// topic in a single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.InsightResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an InsightResult into a Kafka message keyed by
// city slug, so all results for one city land on the same partition.
func serializeToMessage(result domain.InsightResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize insight result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.CitySlug),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "pipeline_version", Value: []byte(result.PipelineVersion)},
			{Key: "computed_at", Value: []byte(result.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
