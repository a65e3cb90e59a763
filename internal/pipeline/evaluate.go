// Package pipeline orchestrates the insight pipeline: feature computation,
// quality checking, guarding, rule inference, confidence scoring, and the
// tiered fallback ladder. The caller always gets a well-formed result;
// degradation is signaled through the pipeline version and caveats, never
// through an error or a nil field.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/city-insight-service/internal/domain"
	"github.com/couchcryptid/city-insight-service/internal/observability"
)

// upstreamConfidenceTolerance is the largest gap between an upstream-supplied
// confidence score and the computed one that passes without comment.
const upstreamConfidenceTolerance = 20.0

// Evaluator runs the full scoring-plus-resilience pipeline for one bundle at
// a time. It holds no mutable state besides observability handles, so
// concurrent evaluations need no coordination.
type Evaluator struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEvaluator creates an Evaluator with the given observability.
func NewEvaluator(logger *slog.Logger, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{logger: logger, metrics: metrics}
}

// CheckReadiness reports readiness for the HTTP adapter. The pipeline is
// pure and needs no warm-up, so it is ready as soon as it exists.
func (e *Evaluator) CheckReadiness(_ context.Context) error { return nil }

// Evaluate runs one bundle through the pipeline and always returns a usable
// result. Validation failures, guard blocks, and low confidence route to the
// fallback ladder; an unexpected panic is recovered into the inference-error
// fallback so no internal failure ever reaches the caller.
func (e *Evaluator) Evaluate(ctx context.Context, bundle domain.FeatureBundle) (result domain.InsightResult) {
	start := time.Now()
	slug := resolveSlug(bundle)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("inference panicked", "city", slug, "panic", fmt.Sprintf("%v", r))
			result = e.degrade(slug, domain.HandleInferenceError(bundle, fmt.Errorf("inference panic: %v", r)))
		}
		e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	if bundle.DataQuality != nil && len(bundle.DataQuality.UnavailableSources) > 0 {
		e.logger.Warn("upstream sources unavailable", "city", slug,
			"sources", bundle.DataQuality.UnavailableSources)
		return e.degrade(slug, domain.HandleAPIUnavailable(bundle, bundle.DataQuality.UnavailableSources))
	}

	// Fill in any dimension scores the assembler left uncomputed.
	bundle = domain.WithComputedScores(bundle, domain.ComputeScores(domain.MetricsFromBundle(bundle)))

	quality := domain.ValidateBundle(bundle)
	if !quality.Sufficient {
		e.logger.Warn("bundle failed quality check", "city", slug,
			"issues", quality.Issues, "completeness", quality.Completeness)
		return e.degrade(slug, domain.HandleIncompleteData(bundle, quality))
	}

	guard := domain.ValidateForInference(bundle)
	if !guard.Proceed {
		e.logger.Warn("guard blocked inference", "city", slug, "blockers", guard.Blockers)
		resp := domain.HandleIncompleteData(bundle, quality)
		resp.Caveats = append(resp.Caveats, guard.Blockers...)
		return e.degrade(slug, resp)
	}

	insights := domain.RunInference(bundle)
	confidence := domain.ComputeConfidence(quality, bundle)

	if confidence.Level == domain.ConfidenceLow {
		e.logger.Info("low confidence, qualifying result", "city", slug,
			"confidence", confidence.Overall)
		resp := domain.HandleLowConfidence(bundle, insights, confidence)
		if caveat, ok := upstreamDisagreement(bundle, confidence); ok {
			resp.Caveats = append(resp.Caveats, caveat)
		}
		return e.degrade(slug, resp)
	}

	if caveat, ok := upstreamDisagreement(bundle, confidence); ok {
		e.logger.Warn("upstream confidence disagrees with computed", "city", slug, "detail", caveat)
	}

	e.metrics.EvaluationsTotal.WithLabelValues("ok").Inc()
	e.metrics.Confidence.Observe(confidence.Overall)
	e.logger.Debug("evaluation complete", "city", slug,
		"confidence", confidence.Overall, "level", confidence.Level,
		"recommendations", guard.Recommendations)

	return domain.InsightResult{
		CitySlug:        slug,
		Personality:     insights.Personality,
		Strengths:       insights.Strengths,
		Weaknesses:      insights.Weaknesses,
		BestSuitedFor:   insights.AudienceSegments,
		PipelineVersion: domain.PipelineVersionRule,
		Valid:           true,
		ComputedAt:      domain.Now(),
	}
}

// degrade records fallback metrics and converts the response to the
// caller-facing shape.
func (e *Evaluator) degrade(slug string, resp domain.FallbackResponse) domain.InsightResult {
	e.metrics.EvaluationsTotal.WithLabelValues("fallback").Inc()
	e.metrics.FallbacksTotal.WithLabelValues(string(resp.Tier), string(resp.Reason)).Inc()
	return resp.ToInsightResult(slug)
}

// upstreamDisagreement reports when an upstream-supplied confidence score
// differs from the computed one by more than the tolerance.
func upstreamDisagreement(bundle domain.FeatureBundle, confidence domain.ConfidenceResult) (string, bool) {
	if bundle.DataQuality == nil || bundle.DataQuality.Confidence == nil {
		return "", false
	}
	gap := math.Abs(*bundle.DataQuality.Confidence - confidence.Overall)
	if gap <= upstreamConfidenceTolerance {
		return "", false
	}
	return fmt.Sprintf("upstream confidence (%.1f) differs from computed confidence (%.1f)",
		*bundle.DataQuality.Confidence, confidence.Overall), true
}

func resolveSlug(bundle domain.FeatureBundle) string {
	if bundle.City.Slug != "" {
		return bundle.City.Slug
	}
	if slug := domain.Slugify(bundle.City.Name, bundle.City.State); slug != "" {
		return slug
	}
	return "unknown-city"
}
