// Package domain computes explainable city profile scores and insights.
//
// # Input
//
// The unit of work is a feature bundle: one city's identity plus optional
// economy, livability, sustainability, and growth feature groups, assembled
// upstream from external data sources (economic indicators, air quality,
// census figures). Every metric is optional; absence is valid input. Optional
// numeric fields are pointers so "not supplied" and "zero" stay distinct.
//
// # Score normalization
//
// Dimension scores are 0-100, derived from raw metrics by min-max
// normalization (log-scaled for population) and clamped after scaling:
//
//	economy        = 0.40·norm(gdpPerCapita, 15000..150000) + 0.60·inv(norm(unemployment, 2..15))
//	livability     = 0.35·inv(norm(costOfLiving, 70..180)) + 0.35·inv(norm(aqi, 0..200)) + 0.30·inv(logNorm(population, 50000..10M))
//	sustainability = inv(norm(aqi, 0..200))
//	growth         = 0.50·norm(populationGrowthRate, -2..5) + 0.50·norm(gdpGrowthRate, -5..10)
//	overall        = 0.30·economy + 0.35·livability + 0.20·sustainability + 0.15·growth
//
// where inv(x) = 100 - x. The overall weights sum to exactly 1.0; see
// [OverallWeightSum]. A score whose inputs are missing is nil, never a
// fabricated default — downstream validation reacts to the nil.
//
// # Validation and gating
//
// [ValidateBundle] checks structural integrity (identity present, population
// non-negative, scores in range) and computes a completeness percentage over
// the expected leaf fields. Blocking problems land in Issues, advisory ones
// in Warnings. [ValidateForInference] is the pre-inference gate: four
// numerically identical dimension scores indicate an upstream placeholder
// bug and block outright; everything else it reports is advisory.
//
// # Inference
//
// [RunInference] evaluates literal threshold tables — ordered rows of
// predicate plus output template — to derive strengths (score ≥ 80 excellent,
// ≥ 60 strong), weaknesses (score < 40), audience segments, and a short
// personality narrative. Evaluation is a single deterministic pass: the same
// bundle always yields byte-identical output. List bounds are hard
// invariants: 2-6 strengths, 2-6 audience segments, personality ≤ 500 chars.
//
// # Fallback tiers
//
// When data is insufficient, confidence is low, upstream sources are down, or
// inference fails, the fallback layer produces a fully populated degraded
// response instead of an error:
//
//	TIER_1_PARTIAL_DATA   completeness ≥ 50%: reuse whatever scores exist
//	TIER_2_METADATA_ONLY  identity only: generic, verifiable statements
//	TIER_3_SAFE_DEFAULT   nothing usable: confidence 0, one generic strength
//
// No field of a [FallbackResponse] is ever nil, and internal error detail
// never reaches the caller-facing text.
package domain
