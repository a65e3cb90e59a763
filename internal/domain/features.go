package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Normalization bounds for each raw metric. Values outside a range clamp to
// the nearest bound after scaling, so scores always land in [0, 100].
const (
	gdpLo = 15000.0
	gdpHi = 150000.0

	unemploymentLo = 2.0
	unemploymentHi = 15.0

	costOfLivingLo = 70.0
	costOfLivingHi = 180.0

	aqiLo = 0.0
	aqiHi = 200.0

	populationLo = 50000.0
	populationHi = 10000000.0

	popGrowthLo = -2.0
	popGrowthHi = 5.0

	gdpGrowthLo = -5.0
	gdpGrowthHi = 10.0
)

// overallWeights blends the four dimension scores into the overall score.
// The weights must sum to exactly 1.0; OverallWeightSum exposes the sum so
// tests can pin the invariant.
var overallWeights = map[Dimension]float64{
	DimensionEconomy:        0.30,
	DimensionLivability:     0.35,
	DimensionSustainability: 0.20,
	DimensionGrowth:         0.15,
}

// OverallWeightSum returns the sum of the overall-score weights.
func OverallWeightSum() float64 {
	var sum float64
	for _, w := range overallWeights {
		sum += w
	}
	return sum
}

// RawMetrics are the unscored inputs the feature computer normalizes.
// Every field is optional; a missing input nils out the scores it feeds.
type RawMetrics struct {
	GDPPerCapita         *float64
	UnemploymentRate     *float64
	CostOfLivingIndex    *float64
	AQI                  *float64
	Population           *int64
	PopulationGrowthRate *float64
	GDPGrowthRate        *float64
}

// ComputedScores holds the normalized dimension scores plus the weighted
// overall score. A nil score means its inputs were missing — nulls propagate,
// they are never defaulted. Each computed score has a one-sentence
// explanation naming its largest contributing inputs by literal value.
type ComputedScores struct {
	Economy        *float64
	Livability     *float64
	Sustainability *float64
	Growth         *float64
	Overall        *float64
	Explanations   map[Dimension]string
}

// component is one weighted input to a dimension score, kept for explanation
// generation: contribution = weight · score ranks inputs by influence.
type component struct {
	label  string
	value  string  // literal raw value, formatted for display
	weight float64 // share of the dimension score
	score  float64 // normalized 0-100
}

func (c component) contribution() float64 { return c.weight * c.score }

// ComputeScores normalizes raw metrics into the four dimension scores and the
// weighted overall score. Scores whose inputs are missing come back nil.
func ComputeScores(m RawMetrics) ComputedScores {
	scores := ComputedScores{Explanations: make(map[Dimension]string)}

	if m.GDPPerCapita != nil && m.UnemploymentRate != nil {
		components := []component{
			{"GDP per capita", formatDollars(*m.GDPPerCapita), 0.40, normalize(*m.GDPPerCapita, gdpLo, gdpHi)},
			{"unemployment", formatPercent(*m.UnemploymentRate), 0.60, invert(normalize(*m.UnemploymentRate, unemploymentLo, unemploymentHi))},
		}
		scores.Economy = blend(components)
		scores.Explanations[DimensionEconomy] = explainScore(DimensionEconomy, components)
	}

	if m.CostOfLivingIndex != nil && m.AQI != nil && m.Population != nil {
		components := []component{
			{"cost of living", fmt.Sprintf("index %.0f", *m.CostOfLivingIndex), 0.35, invert(normalize(*m.CostOfLivingIndex, costOfLivingLo, costOfLivingHi))},
			{"air quality", fmt.Sprintf("AQI %.0f", *m.AQI), 0.35, invert(normalize(*m.AQI, aqiLo, aqiHi))},
			{"population scale", formatPopulation(*m.Population), 0.30, invert(logNormalize(float64(*m.Population), populationLo, populationHi))},
		}
		scores.Livability = blend(components)
		scores.Explanations[DimensionLivability] = explainScore(DimensionLivability, components)
	}

	if m.AQI != nil {
		// Air quality carries the full weight today; emissions and green-space
		// inputs are a documented future extension.
		components := []component{
			{"air quality", fmt.Sprintf("AQI %.0f", *m.AQI), 1.00, invert(normalize(*m.AQI, aqiLo, aqiHi))},
		}
		scores.Sustainability = blend(components)
		scores.Explanations[DimensionSustainability] = explainScore(DimensionSustainability, components)
	}

	if m.PopulationGrowthRate != nil && m.GDPGrowthRate != nil {
		components := []component{
			{"population growth", formatPercent(*m.PopulationGrowthRate), 0.50, normalize(*m.PopulationGrowthRate, popGrowthLo, popGrowthHi)},
			{"GDP growth", formatPercent(*m.GDPGrowthRate), 0.50, normalize(*m.GDPGrowthRate, gdpGrowthLo, gdpGrowthHi)},
		}
		scores.Growth = blend(components)
		scores.Explanations[DimensionGrowth] = explainScore(DimensionGrowth, components)
	}

	scores.Overall = computeOverall(scores)
	return scores
}

// computeOverall blends the four dimension scores using overallWeights.
// Any missing dimension nils out the overall score rather than renormalizing
// the remaining weights, so validation sees exactly what was computable.
func computeOverall(s ComputedScores) *float64 {
	byDim := map[Dimension]*float64{
		DimensionEconomy:        s.Economy,
		DimensionLivability:     s.Livability,
		DimensionSustainability: s.Sustainability,
		DimensionGrowth:         s.Growth,
	}

	var overall float64
	for _, d := range Dimensions {
		score := byDim[d]
		if score == nil {
			return nil
		}
		overall += overallWeights[d] * *score
	}
	overall = round1(clamp(overall, 0, 100))
	return &overall
}

// blend combines weighted components into a single clamped score.
func blend(components []component) *float64 {
	var total float64
	for _, c := range components {
		total += c.contribution()
	}
	total = round1(clamp(total, 0, 100))
	return &total
}

// explainScore builds a one-sentence explanation from the two components with
// the largest contributions, quoting their literal input values.
func explainScore(dim Dimension, components []component) string {
	ranked := make([]component, len(components))
	copy(ranked, components)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].contribution() > ranked[j].contribution()
	})

	first := ranked[0]
	lead := fmt.Sprintf("%s %s (%s)", capitalize(scoreAdjective(first.score)), first.label, first.value)
	if len(ranked) == 1 {
		return fmt.Sprintf("%s determines the %s score.", lead, dim)
	}

	second := ranked[1]
	joiner := "supported by"
	if second.score < 50 {
		joiner = "offset by"
	}
	return fmt.Sprintf("%s %s %s %s (%s).", lead, joiner, scoreAdjective(second.score), second.label, second.value)
}

// scoreAdjective maps a normalized component score to a qualitative word.
func scoreAdjective(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "strong"
	case score >= 40:
		return "moderate"
	case score >= 20:
		return "weak"
	default:
		return "poor"
	}
}

// normalize min-max scales value into [0, 100], clamping outside the bounds.
func normalize(value, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return clamp((value-lo)/(hi-lo)*100, 0, 100)
}

// logNormalize scales value into [0, 100] on a logarithmic axis, for metrics
// like population whose useful range spans orders of magnitude.
func logNormalize(value, lo, hi float64) float64 {
	if value <= 0 || lo <= 0 || hi <= lo {
		return 0
	}
	scaled := (math.Log(value) - math.Log(lo)) / (math.Log(hi) - math.Log(lo)) * 100
	return clamp(scaled, 0, 100)
}

// invert flips a 0-100 score for metrics where lower raw values are better.
func invert(score float64) float64 {
	return 100 - score
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatDollars(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("$%.0fK", v/1000)
	}
	return fmt.Sprintf("$%.0f", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatPopulation(v int64) string {
	switch {
	case v >= 1000000:
		return fmt.Sprintf("%.1fM residents", float64(v)/1000000)
	case v >= 1000:
		return fmt.Sprintf("%.0fK residents", float64(v)/1000)
	default:
		return fmt.Sprintf("%d residents", v)
	}
}

// MetricsFromBundle extracts the raw inputs the feature computer needs,
// preferring the livability group's population over the identity one when
// both are present.
func MetricsFromBundle(b FeatureBundle) RawMetrics {
	var m RawMetrics

	if b.Economy != nil {
		m.GDPPerCapita = b.Economy.GDPPerCapita
		m.UnemploymentRate = b.Economy.UnemploymentRate
		m.CostOfLivingIndex = b.Economy.CostOfLivingIndex
	}
	if b.Livability != nil {
		if b.Livability.CostOfLivingIndex != nil {
			m.CostOfLivingIndex = b.Livability.CostOfLivingIndex
		}
		m.AQI = b.Livability.AQI
		m.Population = b.Livability.Population
	}
	if b.Sustainability != nil && b.Sustainability.AQI != nil {
		m.AQI = b.Sustainability.AQI
	}
	if m.Population == nil {
		m.Population = b.City.Population
	}
	if b.Growth != nil {
		m.PopulationGrowthRate = b.Growth.PopulationGrowthRate
		m.GDPGrowthRate = b.Growth.GDPGrowthRate
	}
	return m
}

// WithComputedScores fills in dimension scores and explanations that the
// bundle is missing. Scores already supplied upstream are left untouched; the
// bundle itself is never mutated.
func WithComputedScores(b FeatureBundle, s ComputedScores) FeatureBundle {
	if s.Economy != nil {
		if b.Economy == nil {
			b.Economy = &EconomyFeatures{}
		} else {
			cp := *b.Economy
			b.Economy = &cp
		}
		if b.Economy.EconomyScore == nil {
			b.Economy.EconomyScore = s.Economy
			if b.Economy.Explanation == "" {
				b.Economy.Explanation = s.Explanations[DimensionEconomy]
			}
		}
	}
	if s.Livability != nil {
		if b.Livability == nil {
			b.Livability = &LivabilityFeatures{}
		} else {
			cp := *b.Livability
			b.Livability = &cp
		}
		if b.Livability.LivabilityScore == nil {
			b.Livability.LivabilityScore = s.Livability
			if b.Livability.Explanation == "" {
				b.Livability.Explanation = s.Explanations[DimensionLivability]
			}
		}
	}
	if s.Sustainability != nil {
		if b.Sustainability == nil {
			b.Sustainability = &SustainabilityFeatures{}
		} else {
			cp := *b.Sustainability
			b.Sustainability = &cp
		}
		if b.Sustainability.SustainabilityScore == nil {
			b.Sustainability.SustainabilityScore = s.Sustainability
			if b.Sustainability.Explanation == "" {
				b.Sustainability.Explanation = s.Explanations[DimensionSustainability]
			}
		}
	}
	if s.Growth != nil {
		if b.Growth == nil {
			b.Growth = &GrowthFeatures{}
		} else {
			cp := *b.Growth
			b.Growth = &cp
		}
		if b.Growth.GrowthScore == nil {
			b.Growth.GrowthScore = s.Growth
			if b.Growth.Explanation == "" {
				b.Growth.Explanation = s.Explanations[DimensionGrowth]
			}
		}
	}
	return b
}
