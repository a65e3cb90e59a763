package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/city-insight-service/internal/domain"
	"github.com/couchcryptid/city-insight-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw bundle requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRequest, error)
}

// BatchLoader writes multiple insight results to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.InsightResult) error
}

// InsightEvaluator turns one feature bundle into an insight result. It never
// fails: degraded input yields a degraded result, not an error.
type InsightEvaluator interface {
	Evaluate(ctx context.Context, bundle domain.FeatureBundle) domain.InsightResult
}

// Stream orchestrates the extract-evaluate-load loop for Kafka mode.
type Stream struct {
	extractor BatchExtractor
	evaluator InsightEvaluator
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// NewStream creates a Stream with the given stages and observability.
func NewStream(e BatchExtractor, ev InsightEvaluator, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Stream {
	return &Stream{
		extractor: e,
		evaluator: ev,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil if the stream has processed at least one message,
// or an error describing why the service is not yet ready.
func (s *Stream) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("stream has not processed any messages yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	s.logger.Info("stream started", "batch_size", s.batchSize)
	s.metrics.StreamRunning.Set(1)
	defer s.metrics.StreamRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stream stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !s.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-evaluate-load cycle. Returns false if the
// stream should stop.
func (s *Stream) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := s.extractor.ExtractBatch(ctx, s.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.Error("extract batch failed", "error", err)
		return s.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	s.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	s.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := s.evaluateAndLoad(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		s.metrics.BatchDuration.Observe(time.Since(start).Seconds())
		s.ready.Store(true)
	}
	return true
}

// evaluateAndLoad parses and evaluates each message in the batch, loads the
// results, and commits offsets. Unparseable messages are committed and
// skipped: a malformed bundle will never parse on retry either. Returns the
// number of loaded results and false if the stream should stop.
func (s *Stream) evaluateAndLoad(ctx context.Context, rawBatch []domain.RawRequest, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	results := make([]domain.InsightResult, 0, len(rawBatch))
	successfulRaws := make([]domain.RawRequest, 0, len(rawBatch))

	for _, raw := range rawBatch {
		bundle, err := domain.ParseRawRequest(raw)
		if err != nil {
			s.logger.Warn("parse failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			s.metrics.ParseErrors.Inc()
			s.commitOffset(ctx, raw)
			continue
		}
		results = append(results, s.evaluator.Evaluate(ctx, bundle))
		successfulRaws = append(successfulRaws, raw)
	}

	if len(results) == 0 {
		return 0, true
	}

	if err := s.loader.LoadBatch(ctx, results); err != nil {
		s.logger.Error("load batch failed", "error", err, "batch_size", len(results))
		return 0, s.backoffOrStop(ctx, backoff, maxBackoff)
	}

	s.metrics.MessagesProduced.Add(float64(len(results)))

	for _, raw := range successfulRaws {
		s.commitOffset(ctx, raw)
	}

	return len(results), true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the stream should stop.
func (s *Stream) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (s *Stream) commitOffset(ctx context.Context, raw domain.RawRequest) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		s.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
