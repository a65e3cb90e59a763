package domain

import "time"

// Pipeline version markers let downstream consumers tell a normal-path result
// from a degraded one without inspecting caveat text.
const (
	PipelineVersionRule     = "rule-1.0"
	PipelineVersionFallback = "fallback-1.0"
)

// InsightResult is the caller-facing output of one evaluation. It is
// constructed once per request and never mutated afterwards; persistence is a
// collaborator concern. Valid is true even for degraded results — a
// degraded-but-present profile is still displayable, and PipelineVersion
// carries the distinction.
type InsightResult struct {
	CitySlug        string    `json:"city_slug"`
	Personality     string    `json:"personality"`
	Strengths       []string  `json:"strengths"`
	Weaknesses      []string  `json:"weaknesses"`
	BestSuitedFor   []string  `json:"best_suited_for"`
	PipelineVersion string    `json:"pipeline_version"`
	Valid           bool      `json:"valid"`
	ComputedAt      time.Time `json:"computed_at"`
}

// QualityResult reports structural and semantic integrity of a bundle.
// Issues block inference; warnings are advisory and never block.
type QualityResult struct {
	Sufficient   bool     `json:"sufficient"`
	Completeness float64  `json:"completeness_pct"`
	Issues       []string `json:"issues"`
	Warnings     []string `json:"warnings"`
}

// ConfidenceLevel is the discrete trust band for a confidence score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// ConfidenceBreakdown holds the weighted contribution of each signal.
// The three values sum to the overall confidence.
type ConfidenceBreakdown struct {
	DataCompleteness   float64 `json:"data_completeness"`
	PatternReliability float64 `json:"pattern_reliability"`
	InferenceStrength  float64 `json:"inference_strength"`
}

// ConfidenceResult expresses how much the computed insights can be trusted,
// independent of completeness alone.
type ConfidenceResult struct {
	Overall   float64             `json:"overall"`
	Level     ConfidenceLevel     `json:"level"`
	Reasoning string              `json:"reasoning"`
	Breakdown ConfidenceBreakdown `json:"breakdown"`
}

// GuardResult is the outcome of the pre-inference gate. Non-empty Blockers
// force Proceed false; recommendations never block.
type GuardResult struct {
	Proceed         bool     `json:"proceed"`
	Blockers        []string `json:"blockers"`
	Recommendations []string `json:"recommendations"`
}

// InferenceInsights is the rule engine's raw output, before any fallback
// handling. Strengths and AudienceSegments always hold 2-6 entries;
// Personality is at most 500 characters.
type InferenceInsights struct {
	Personality      string   `json:"personality"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	AudienceSegments []string `json:"audience_segments"`
}
