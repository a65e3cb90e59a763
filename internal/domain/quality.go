package domain

import (
	"fmt"
	"strings"
)

// expectedLeafFields is the denominator of the completeness percentage:
// 6 identity + 6 economy + 6 livability + 5 sustainability + 4 growth.
// A bundle carrying only identity fields lands in the low-twenties percent,
// never zero.
const expectedLeafFields = 27

// ValidateBundle checks a bundle's structural and semantic integrity and
// computes its completeness percentage. Issues block inference; warnings are
// advisory. Pure function, no side effects.
func ValidateBundle(b FeatureBundle) QualityResult {
	issues := []string{}
	warnings := []string{}

	if strings.TrimSpace(b.City.Name) == "" {
		issues = append(issues, "missing city name")
	}

	if b.City.Population != nil && *b.City.Population < 0 {
		issues = append(issues, "invalid population")
	}

	for _, d := range Dimensions {
		score := b.Score(d)
		if score != nil && (*score < 0 || *score > 100) {
			issues = append(issues, fmt.Sprintf("score out of range: %s_score", d))
		}
	}

	// All-zero scores are structurally valid but degenerate. The guard owns
	// the identical-nonzero case; the checker only warns on all-zero.
	if scores := b.PresentScores(); len(scores) >= 2 && allZero(scores) {
		warnings = append(warnings, "all scores are zero")
	}

	if b.Economy != nil {
		missing := []string{}
		if b.Economy.GDPPerCapita == nil {
			missing = append(missing, "gdp_per_capita")
		}
		if b.Economy.UnemploymentRate == nil {
			missing = append(missing, "unemployment_rate")
		}
		if len(missing) > 0 {
			warnings = append(warnings, "missing economic fields: "+strings.Join(missing, ", "))
		}
	}

	return QualityResult{
		Sufficient:   len(issues) == 0,
		Completeness: completeness(b),
		Issues:       issues,
		Warnings:     warnings,
	}
}

func allZero(scores map[Dimension]float64) bool {
	for _, s := range scores {
		if s != 0 {
			return false
		}
	}
	return true
}

// completeness walks every sub-feature group and counts populated leaf fields
// against the expected total.
func completeness(b FeatureBundle) float64 {
	populated := countIdentity(b.City) +
		countEconomy(b.Economy) +
		countLivability(b.Livability) +
		countSustainability(b.Sustainability) +
		countGrowth(b.Growth)
	return round1(float64(populated) / expectedLeafFields * 100)
}

func countIdentity(c CityIdentifier) int {
	n := countStrings(c.Slug, c.Name, c.State, c.Country, c.SizeCategory)
	if c.Population != nil {
		n++
	}
	return n
}

func countEconomy(e *EconomyFeatures) int {
	if e == nil {
		return 0
	}
	return countFloats(e.GDPPerCapita, e.UnemploymentRate, e.CostOfLivingIndex, e.EconomyScore) +
		countStrings(e.Tier, e.Explanation)
}

func countLivability(l *LivabilityFeatures) int {
	if l == nil {
		return 0
	}
	n := countFloats(l.AQI, l.CostOfLivingIndex, l.LivabilityScore) +
		countStrings(l.Tier, l.Explanation)
	if l.Population != nil {
		n++
	}
	return n
}

func countSustainability(s *SustainabilityFeatures) int {
	if s == nil {
		return 0
	}
	return countFloats(s.AQI, s.SustainabilityScore) +
		countStrings(s.AQICategory, s.Tier, s.Explanation)
}

func countGrowth(g *GrowthFeatures) int {
	if g == nil {
		return 0
	}
	return countFloats(g.PopulationGrowthRate, g.GrowthScore) +
		countStrings(g.Tier, g.Explanation)
}

func countStrings(values ...string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func countFloats(values ...*float64) int {
	n := 0
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n
}
