//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/city-insight-service/internal/adapter/kafka"
	"github.com/couchcryptid/city-insight-service/internal/config"
	"github.com/couchcryptid/city-insight-service/internal/domain"
	"github.com/couchcryptid/city-insight-service/internal/observability"
	"github.com/couchcryptid/city-insight-service/internal/pipeline"
)

const (
	testSourceTopic = "test-bundles"
	testSinkTopic   = "test-insights"
)

// insightMessage holds a deserialized message read from the sink topic.
type insightMessage struct {
	Result  domain.InsightResult
	Key     string
	Headers map[string]string
}

// readInsight reads a single message from the sink consumer and deserializes it.
func readInsight(ctx context.Context, t *testing.T, consumer *kafkago.Reader) insightMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var result domain.InsightResult
	require.NoError(t, json.Unmarshal(msg.Value, &result), "unmarshal sink message")

	return insightMessage{
		Result:  result,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) correctly round-trip a message through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
	}

	bundle := sampleBundles()[0]
	payload, err := json.Marshal(bundle)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("austin-tx"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawRequest
	for {
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("austin-tx"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	// Evaluate the bundle.
	parsed, err := domain.ParseRawRequest(raw)
	require.NoError(t, err)
	evaluator := pipeline.NewEvaluator(discardLogger(), observability.NewMetricsForTesting())
	result := evaluator.Evaluate(ctx, parsed)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.InsightResult{result}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	im := readInsight(ctx, t, consumer)
	assert.Equal(t, "austin-tx", im.Key)
	assert.Equal(t, domain.PipelineVersionRule, im.Headers["pipeline_version"])
	_, err = time.Parse(time.RFC3339, im.Headers["computed_at"])
	assert.NoError(t, err, "computed_at should be valid RFC3339")

	assert.Equal(t, "austin-tx", im.Result.CitySlug)
	assert.True(t, im.Result.Valid)
	assert.NotEmpty(t, im.Result.Personality)
	assert.GreaterOrEqual(t, len(im.Result.Strengths), 2)
}

// TestStreamEndToEnd wires the full stream (Reader → Evaluator → Writer) with
// real Kafka and verifies that complete and sparse bundles both produce
// well-formed insights.
func TestStreamEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-stream-%d", time.Now().UnixNano()),
	}

	bundles := sampleBundles()
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(bundles))
	for _, b := range bundles {
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(b.City.Slug), Value: payload})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the stream.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	evaluator := pipeline.NewEvaluator(discardLogger(), metrics)
	stream := pipeline.NewStream(reader, evaluator, writer, discardLogger(), metrics, 50)

	streamCtx, streamCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- stream.Run(streamCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]insightMessage, len(bundles))
	for len(received) < len(bundles) {
		im := readInsight(ctx, t, consumer)
		received[im.Result.CitySlug] = im
	}

	streamCancel()
	require.NoError(t, <-errCh)

	for slug, im := range received {
		assert.Equal(t, slug, im.Key, "message key should match the slug")
		assert.NotEmpty(t, im.Headers["pipeline_version"], "missing pipeline_version header")
		_, err := time.Parse(time.RFC3339, im.Headers["computed_at"])
		assert.NoError(t, err, "invalid computed_at format")

		assert.True(t, im.Result.Valid)
		assert.NotEmpty(t, im.Result.Personality)
		assert.GreaterOrEqual(t, len(im.Result.Strengths), 1)
	}

	// The complete bundle takes the normal path.
	austin, ok := received["austin-tx"]
	require.True(t, ok, "expected an insight for austin-tx")
	assert.Equal(t, domain.PipelineVersionRule, austin.Result.PipelineVersion)
	assert.Contains(t, austin.Result.Personality, "Austin")

	// The identity-only bundle degrades but still produces a usable profile.
	marfa, ok := received["marfa-tx"]
	require.True(t, ok, "expected an insight for marfa-tx")
	assert.Equal(t, domain.PipelineVersionFallback, marfa.Result.PipelineVersion)
	assert.Contains(t, marfa.Result.Personality, "Marfa")
	assert.NotEmpty(t, marfa.Result.BestSuitedFor)
}

// TestStreamParseError verifies that an unparseable message (poison pill) is
// skipped and the stream continues processing valid messages.
func TestStreamParseError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-poison-%d", time.Now().UnixNano()),
	}

	validPayload, err := json.Marshal(sampleBundles()[0])
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: validPayload},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	evaluator := pipeline.NewEvaluator(discardLogger(), metrics)
	stream := pipeline.NewStream(reader, evaluator, writer, discardLogger(), metrics, 50)

	streamCtx, streamCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- stream.Run(streamCtx) }()

	// Only the valid message should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	im := readInsight(ctx, t, consumer)
	assert.Equal(t, "austin-tx", im.Result.CitySlug)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	streamCancel()
	require.NoError(t, <-errCh)
}
