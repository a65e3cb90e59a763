package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/city-insight-service/internal/config"
	"github.com/couchcryptid/city-insight-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// drainTimeout bounds how long ExtractBatch waits for follow-up messages
// after the first one arrives. Short, so small batches flush promptly.
const drainTimeout = 250 * time.Millisecond

// Reader consumes bundle request messages from the source Kafka topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
// Offsets are committed explicitly through RawRequest.Commit after a message
// has been evaluated and loaded.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaSourceTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // synchronous commits
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch blocks until at least one message arrives, then drains up to
// batchSize messages with a short per-message timeout. A context
// cancellation while waiting for the first message returns the error; while
// draining it just ends the batch.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRequest, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	batch := []domain.RawRequest{r.mapMessage(first)}

	for len(batch) < batchSize {
		drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
		msg, err := r.reader.FetchMessage(drainCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break
			}
			r.logger.Warn("fetch during drain failed", "error", err)
			break
		}
		batch = append(batch, r.mapMessage(msg))
	}

	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func (r *Reader) mapMessage(msg kafkago.Message) domain.RawRequest {
	return mapMessageToRawRequest(msg, func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	})
}

// mapMessageToRawRequest converts a Kafka message into the transport-agnostic
// request shape the stream loop consumes.
func mapMessageToRawRequest(msg kafkago.Message, commit func(ctx context.Context) error) domain.RawRequest {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawRequest{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit:    commit,
	}
}
