package domain

import (
	"fmt"
	"strings"
)

// FallbackTier is one of three escalating degradation severities.
type FallbackTier string

const (
	TierPartialData  FallbackTier = "TIER_1_PARTIAL_DATA"
	TierMetadataOnly FallbackTier = "TIER_2_METADATA_ONLY"
	TierSafeDefault  FallbackTier = "TIER_3_SAFE_DEFAULT"
)

// FallbackReason records why the fallback path was taken.
type FallbackReason string

const (
	ReasonIncompleteData FallbackReason = "INCOMPLETE_DATA"
	ReasonLowConfidence  FallbackReason = "LOW_CONFIDENCE"
	ReasonAPIUnavailable FallbackReason = "API_UNAVAILABLE"
	ReasonInferenceError FallbackReason = "INFERENCE_ERROR"
)

// partialDataMinCompleteness separates tier 1 from tier 2.
const partialDataMinCompleteness = 50.0

// FallbackResponse is a fully populated degraded result. Every field is
// mandatory: slices are empty rather than nil, the map always has an entry
// per feature source, and the personality and user message are never blank.
type FallbackResponse struct {
	Tier             FallbackTier      `json:"tier"`
	Reason           FallbackReason    `json:"reason"`
	Personality      string            `json:"personality"`
	Strengths        []string          `json:"strengths"`
	Weaknesses       []string          `json:"weaknesses"`
	AudienceSegments []string          `json:"audience_segments"`
	Confidence       float64           `json:"confidence"`
	Caveats          []string          `json:"caveats"`
	DataAvailability map[string]string `json:"data_availability"`
	UserMessage      string            `json:"user_message"`
}

// DegradationSeverity maps the tier to a strictly increasing 1/2/3 scale.
func (r FallbackResponse) DegradationSeverity() int {
	switch r.Tier {
	case TierPartialData:
		return 1
	case TierMetadataOnly:
		return 2
	default:
		return 3
	}
}

// ToInsightResult converts a fallback response into the same shape as a
// successful run. Valid stays true: a degraded-but-present profile is still
// displayable, and the fallback pipeline version carries the distinction.
func (r FallbackResponse) ToInsightResult(citySlug string) InsightResult {
	return InsightResult{
		CitySlug:        citySlug,
		Personality:     r.Personality,
		Strengths:       r.Strengths,
		Weaknesses:      r.Weaknesses,
		BestSuitedFor:   r.AudienceSegments,
		PipelineVersion: PipelineVersionFallback,
		Valid:           true,
		ComputedAt:      clock.Now(),
	}
}

// HandleIncompleteData builds a tiered response for a bundle that failed the
// quality check or was blocked by the guard. Tier selection:
//
//	completeness ≥ 50%        TIER_1, reuse whatever scores exist
//	identity present          TIER_2, metadata-only statements
//	essentially nothing       TIER_3, safe defaults
func HandleIncompleteData(b FeatureBundle, quality QualityResult) FallbackResponse {
	switch {
	case quality.Completeness >= partialDataMinCompleteness:
		return partialDataResponse(b, quality)
	case strings.TrimSpace(b.City.Name) != "":
		return metadataOnlyResponse(b, quality)
	default:
		return safeDefaultResponse(b, ReasonIncompleteData)
	}
}

// partialDataResponse reuses the dimension scores that do exist, running the
// strength and weakness tables over them.
func partialDataResponse(b FeatureBundle, quality QualityResult) FallbackResponse {
	scores := b.PresentScores()
	name := displayName(b)

	caveats := []string{
		fmt.Sprintf("profile computed from %.1f%% of expected data", quality.Completeness),
	}
	caveats = append(caveats, quality.Issues...)
	caveats = append(caveats, quality.Warnings...)

	// Tier 1 guarantees confidence of at least 50: enough data exists to be
	// more than a guess.
	confidence := quality.Completeness
	if confidence < partialDataMinCompleteness {
		confidence = partialDataMinCompleteness
	}

	return FallbackResponse{
		Tier:   TierPartialData,
		Reason: ReasonIncompleteData,
		Personality: truncatePersonality(fmt.Sprintf(
			"%s shows a partially scored profile across %d of %d dimensions; the available signals are summarized below.",
			name, len(scores), len(Dimensions))),
		Strengths:        boundList(evalStrengths(scores), fillerStrengths(b)),
		Weaknesses:       evalWeaknesses(scores),
		AudienceSegments: boundList(evalAudiences(scores), fillerAudiences(b)),
		Confidence:       confidence,
		Caveats:          caveats,
		DataAvailability: availabilityMap(b, nil),
		UserMessage:      fmt.Sprintf("Some data for %s is incomplete; this profile uses everything currently available.", name),
	}
}

// metadataOnlyResponse makes only claims the identity fields can support.
// Weaknesses stay empty — there is no data to back a negative claim.
func metadataOnlyResponse(b FeatureBundle, quality QualityResult) FallbackResponse {
	name := displayName(b)

	personality := fmt.Sprintf("%s is an established city", name)
	if b.City.Country != "" {
		personality += " in " + b.City.Country
	}
	personality += "; detailed scoring is pending fuller data."

	return FallbackResponse{
		Tier:             TierMetadataOnly,
		Reason:           ReasonIncompleteData,
		Personality:      truncatePersonality(personality),
		Strengths:        boundList(nil, fillerStrengths(b)),
		Weaknesses:       []string{},
		AudienceSegments: boundList(nil, fillerAudiences(b)),
		Confidence:       quality.Completeness,
		Caveats: []string{
			fmt.Sprintf("only %.1f%% of expected data is available", quality.Completeness),
			"profile statements are limited to verifiable identity data",
		},
		DataAvailability: availabilityMap(b, nil),
		UserMessage:      fmt.Sprintf("Detailed metrics for %s are not available yet; showing basic profile information.", name),
	}
}

// safeDefaultResponse is the floor of the ladder: zero confidence, but the
// strengths list is still never empty.
func safeDefaultResponse(b FeatureBundle, reason FallbackReason) FallbackResponse {
	name := displayName(b)

	return FallbackResponse{
		Tier:             TierSafeDefault,
		Reason:           reason,
		Personality:      truncatePersonality(fmt.Sprintf("%s has a profile on record, but no supporting data is currently available.", name)),
		Strengths:        []string{"Every city has a story worth exploring"},
		Weaknesses:       []string{},
		AudienceSegments: []string{"General relocation explorers", "Curious city researchers"},
		Confidence:       0.0,
		Caveats:          []string{"no usable city data was available for this profile"},
		DataAvailability: availabilityMap(b, nil),
		UserMessage:      "City insights are temporarily limited. Please try again later.",
	}
}

// HandleLowConfidence passes the rule engine's output through unchanged but
// qualifies the personality as preliminary and attaches confidence caveats.
func HandleLowConfidence(b FeatureBundle, insights InferenceInsights, confidence ConfidenceResult) FallbackResponse {
	name := displayName(b)

	return FallbackResponse{
		Tier:             TierPartialData,
		Reason:           ReasonLowConfidence,
		Personality:      truncatePersonality("Preliminary assessment: " + insights.Personality),
		Strengths:        insights.Strengths,
		Weaknesses:       insights.Weaknesses,
		AudienceSegments: insights.AudienceSegments,
		Confidence:       confidence.Overall,
		Caveats: []string{
			fmt.Sprintf("confidence is %s (%.1f/100)", confidence.Level, confidence.Overall),
			confidence.Reasoning,
		},
		DataAvailability: availabilityMap(b, nil),
		UserMessage:      fmt.Sprintf("These insights for %s are preliminary and may change as more data arrives.", name),
	}
}

// HandleAPIUnavailable reports that named upstream sources failed before the
// bundle reached this pipeline. Whatever data did arrive is still summarized.
func HandleAPIUnavailable(b FeatureBundle, unavailableSources []string) FallbackResponse {
	scores := b.PresentScores()
	name := displayName(b)

	tier := TierMetadataOnly
	if len(scores) > 0 {
		tier = TierPartialData
	}

	return FallbackResponse{
		Tier:   tier,
		Reason: ReasonAPIUnavailable,
		Personality: truncatePersonality(fmt.Sprintf(
			"%s cannot be fully profiled right now because some data sources are unreachable.", name)),
		Strengths:        boundList(evalStrengths(scores), fillerStrengths(b)),
		Weaknesses:       []string{},
		AudienceSegments: boundList(evalAudiences(scores), fillerAudiences(b)),
		Confidence:       baselineConfidence(scores),
		Caveats: []string{
			"shown data may not reflect current conditions",
			fmt.Sprintf("%d upstream data source(s) unavailable", len(unavailableSources)),
		},
		DataAvailability: availabilityMap(b, unavailableSources),
		UserMessage:      fmt.Sprintf("Some data sources for %s are temporarily unavailable; showing the most recent information we have.", name),
	}
}

// HandleInferenceError is the outermost safety net for unexpected pipeline
// failures. The error's message never appears anywhere in the response — the
// caller logs it; the user just sees a retry suggestion.
func HandleInferenceError(b FeatureBundle, _ error) FallbackResponse {
	resp := safeDefaultResponse(b, ReasonInferenceError)
	resp.Caveats = []string{"profile generation encountered an internal problem"}
	resp.UserMessage = "We could not generate insights for this city right now. Please try again later."
	return resp
}

// availabilityMap reports per-source availability. Sources named as
// unavailable override the presence-derived status.
func availabilityMap(b FeatureBundle, unavailableSources []string) map[string]string {
	m := map[string]string{
		"economy":        presenceStatus(b.Economy != nil),
		"livability":     presenceStatus(b.Livability != nil),
		"sustainability": presenceStatus(b.Sustainability != nil),
		"growth":         presenceStatus(b.Growth != nil),
	}
	for _, source := range unavailableSources {
		m[source] = "unavailable"
	}
	return m
}

func presenceStatus(present bool) string {
	if present {
		return "available"
	}
	return "missing"
}

// baselineConfidence gives partial credit for however many dimensions are
// scored, capped below the medium-confidence threshold.
func baselineConfidence(scores map[Dimension]float64) float64 {
	return float64(len(scores)) / float64(len(Dimensions)) * 50
}

func displayName(b FeatureBundle) string {
	if name := strings.TrimSpace(b.City.Name); name != "" {
		return name
	}
	return "This city"
}
