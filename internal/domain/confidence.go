package domain

import (
	"fmt"
	"math"
)

// Confidence blend weights. They must cover the whole of the overall
// confidence: 40% completeness, 30% pattern reliability, 30% inference
// strength.
const (
	weightCompleteness       = 0.40
	weightPatternReliability = 0.30
	weightInferenceStrength  = 0.30
)

// Confidence level thresholds on the overall 0-100 score.
const (
	confidenceHighMin   = 80.0
	confidenceMediumMin = 60.0
)

// ComputeConfidence blends data completeness with two signal-quality
// measures into one confidence score and level. Pattern reliability reflects
// how many dimension scores were actually computed; inference strength
// reflects how far those scores sit from the neutral midpoint of 50, where
// clustered values carry no signal. Deterministic given identical inputs.
func ComputeConfidence(quality QualityResult, b FeatureBundle) ConfidenceResult {
	scores := b.PresentScores()

	completeness := clamp(quality.Completeness, 0, 100)
	reliability := float64(len(scores)) / float64(len(Dimensions)) * 100
	strength := inferenceStrength(scores)

	breakdown := ConfidenceBreakdown{
		DataCompleteness:   round1(weightCompleteness * completeness),
		PatternReliability: round1(weightPatternReliability * reliability),
		InferenceStrength:  round1(weightInferenceStrength * strength),
	}
	overall := round1(breakdown.DataCompleteness + breakdown.PatternReliability + breakdown.InferenceStrength)

	return ConfidenceResult{
		Overall: overall,
		Level:   confidenceLevel(overall),
		Reasoning: fmt.Sprintf(
			"data completeness %.1f%%, %d of %d dimension scores computed, signal strength %.1f/100",
			completeness, len(scores), len(Dimensions), strength,
		),
		Breakdown: breakdown,
	}
}

// inferenceStrength measures average distance from the neutral midpoint.
// A score of exactly 50 contributes nothing; 0 or 100 contributes fully.
func inferenceStrength(scores map[Dimension]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var total float64
	for _, s := range scores {
		total += math.Abs(s-50) / 50 * 100
	}
	return clamp(total/float64(len(scores)), 0, 100)
}

func confidenceLevel(overall float64) ConfidenceLevel {
	switch {
	case overall >= confidenceHighMin:
		return ConfidenceHigh
	case overall >= confidenceMediumMin:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
