package domain

import "fmt"

// Guard thresholds. These are the tested contract, not tuning suggestions.
const (
	smallPopulationThreshold = 50000
	lowGDPThreshold          = 5000.0
	perfectScoreMinCount     = 3
)

// ValidateForInference is the pre-inference gate, run after the checker has
// passed. Blockers refuse inference outright; recommendations are advisory
// caveats for interpretation. This is the only point where the pipeline can
// refuse before producing insights.
func ValidateForInference(b FeatureBundle) GuardResult {
	blockers := []string{}
	recommendations := []string{}

	// Four numerically identical dimension scores — any shared value,
	// including 50.0 — means some upstream stage filled every field with one
	// placeholder.
	scores := b.PresentScores()
	if len(scores) == len(Dimensions) && allIdentical(scores) {
		blockers = append(blockers, fmt.Sprintf(
			"identical scores across all dimensions (%.1f) — suspicious input", scores[DimensionEconomy]))
	}

	if n := countPerfect(scores); n >= perfectScoreMinCount {
		recommendations = append(recommendations, fmt.Sprintf(
			"multiple perfect scores (%d dimensions at 100) — verify upstream normalization", n))
	}

	switch {
	case b.City.Population == nil:
		recommendations = append(recommendations,
			"population data missing — tier/audience inference may be less precise")
	case *b.City.Population >= 0 && *b.City.Population < smallPopulationThreshold:
		recommendations = append(recommendations,
			"small population — economic signal may be noisy")
	}

	if b.Economy != nil && b.Economy.GDPPerCapita != nil && *b.Economy.GDPPerCapita < lowGDPThreshold {
		recommendations = append(recommendations,
			"low GDP per capita — interpret economic scores with caution")
	}

	return GuardResult{
		Proceed:         len(blockers) == 0,
		Blockers:        blockers,
		Recommendations: recommendations,
	}
}

func allIdentical(scores map[Dimension]float64) bool {
	first, ok := scores[DimensionEconomy]
	if !ok {
		for _, s := range scores {
			first = s
			break
		}
	}
	for _, s := range scores {
		if s != first {
			return false
		}
	}
	return true
}

func countPerfect(scores map[Dimension]float64) int {
	n := 0
	for _, s := range scores {
		if s == 100 {
			n++
		}
	}
	return n
}
