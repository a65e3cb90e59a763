package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Hard output bounds for inference insights.
const (
	maxPersonalityChars = 500
	minListEntries      = 2
	maxListEntries      = 6
)

// Strength and weakness thresholds on a 0-100 dimension score.
const (
	excellentMin = 80.0
	strongMin    = 60.0
	weaknessMax  = 40.0
)

// strengthRule is one row of the strength table. Rows are ordered by
// dimension priority, then by descending threshold; the first matching row
// per dimension wins and each dimension contributes at most one strength.
type strengthRule struct {
	dim      Dimension
	min      float64
	template string // fmt template receiving the score
}

var strengthRules = []strengthRule{
	{DimensionEconomy, excellentMin, "Excellent economy (%.0f/100)"},
	{DimensionEconomy, strongMin, "Strong economy (%.0f/100)"},
	{DimensionLivability, excellentMin, "Excellent livability (%.0f/100)"},
	{DimensionLivability, strongMin, "Strong livability (%.0f/100)"},
	{DimensionSustainability, excellentMin, "Excellent sustainability (%.0f/100)"},
	{DimensionSustainability, strongMin, "Strong sustainability (%.0f/100)"},
	{DimensionGrowth, excellentMin, "Excellent growth trajectory (%.0f/100)"},
	{DimensionGrowth, strongMin, "Strong growth trajectory (%.0f/100)"},
}

// weaknessRule is one row of the weakness table: a dimension score below max
// yields exactly one weakness naming the dimension and its score.
type weaknessRule struct {
	dim      Dimension
	max      float64
	template string
}

var weaknessRules = []weaknessRule{
	{DimensionEconomy, weaknessMax, "Weak economy (%.0f/100)"},
	{DimensionLivability, weaknessMax, "Weak livability (%.0f/100)"},
	{DimensionSustainability, weaknessMax, "Weak sustainability (%.0f/100)"},
	{DimensionGrowth, weaknessMax, "Weak growth (%.0f/100)"},
}

// scoreThreshold is one conjunct of an audience rule: the named dimension
// score must be present and at least min.
type scoreThreshold struct {
	dim Dimension
	min float64
}

// audienceRule maps a conjunction of score thresholds to one audience
// segment. Rules are ordered by priority; trimming drops from the end.
type audienceRule struct {
	segment    string
	conditions []scoreThreshold
}

var audienceRules = []audienceRule{
	{"Career-focused professionals", []scoreThreshold{
		{DimensionEconomy, strongMin},
	}},
	{"Remote workers", []scoreThreshold{
		{DimensionEconomy, strongMin},
		{DimensionLivability, strongMin},
	}},
	{"Families", []scoreThreshold{
		{DimensionLivability, 70},
		{DimensionSustainability, 50},
	}},
	{"Retirees", []scoreThreshold{
		{DimensionLivability, strongMin},
		{DimensionSustainability, strongMin},
	}},
	{"Students", []scoreThreshold{
		{DimensionGrowth, strongMin},
		{DimensionLivability, 50},
	}},
}

// RunInference derives a personality narrative, strengths, weaknesses, and
// audience segments from a bundle's dimension scores. It is purely a function
// of the bundle: no external calls, no randomness, no time dependency, so
// identical bundles yield byte-identical output.
func RunInference(b FeatureBundle) InferenceInsights {
	scores := b.PresentScores()

	return InferenceInsights{
		Personality:      buildPersonality(b, scores),
		Strengths:        boundList(evalStrengths(scores), fillerStrengths(b)),
		Weaknesses:       evalWeaknesses(scores),
		AudienceSegments: boundList(evalAudiences(scores), fillerAudiences(b)),
	}
}

// evalStrengths walks the strength table once; dimensions already matched are
// skipped so each contributes at most one entry.
func evalStrengths(scores map[Dimension]float64) []string {
	strengths := []string{}
	matched := map[Dimension]bool{}
	for _, rule := range strengthRules {
		if matched[rule.dim] {
			continue
		}
		score, ok := scores[rule.dim]
		if !ok || score < rule.min {
			continue
		}
		matched[rule.dim] = true
		strengths = append(strengths, fmt.Sprintf(rule.template, score))
	}
	return strengths
}

func evalWeaknesses(scores map[Dimension]float64) []string {
	weaknesses := []string{}
	for _, rule := range weaknessRules {
		score, ok := scores[rule.dim]
		if !ok || score >= rule.max {
			continue
		}
		weaknesses = append(weaknesses, fmt.Sprintf(rule.template, score))
	}
	return weaknesses
}

func evalAudiences(scores map[Dimension]float64) []string {
	segments := []string{}
	for _, rule := range audienceRules {
		if audienceRuleMatches(rule, scores) {
			segments = append(segments, rule.segment)
		}
	}
	return segments
}

func audienceRuleMatches(rule audienceRule, scores map[Dimension]float64) bool {
	for _, cond := range rule.conditions {
		score, ok := scores[cond.dim]
		if !ok || score < cond.min {
			return false
		}
	}
	return true
}

// boundList enforces the 2-6 entry invariant. Too few entries are topped up
// from fillers (skipping duplicates); too many are dropped from the end, which
// is the lowest-priority position by table order.
func boundList(list, fillers []string) []string {
	for _, filler := range fillers {
		if len(list) >= minListEntries {
			break
		}
		if !contains(list, filler) {
			list = append(list, filler)
		}
	}
	if len(list) > maxListEntries {
		list = list[:maxListEntries]
	}
	return list
}

// fillerStrengths builds generic, verifiable statements from identity data.
// Filler entries never fabricate numbers — they only restate what the bundle
// actually carries.
func fillerStrengths(b FeatureBundle) []string {
	fillers := []string{}
	if b.City.Population != nil && *b.City.Population > 0 {
		fillers = append(fillers, fmt.Sprintf("Established community of %s", formatPopulation(*b.City.Population)))
	}
	if b.City.Country != "" {
		fillers = append(fillers, fmt.Sprintf("Distinct regional identity within %s", b.City.Country))
	}
	fillers = append(fillers,
		"Recognized city profile with verified identity data",
		"Balanced profile across available indicators",
	)
	return fillers
}

func fillerAudiences(b FeatureBundle) []string {
	fillers := []string{}
	if b.City.Population != nil && *b.City.Population >= 1000000 {
		fillers = append(fillers, "Big-city experience seekers")
	} else if b.City.Population != nil && *b.City.Population > 0 {
		fillers = append(fillers, "Community-oriented residents")
	}
	fillers = append(fillers,
		"General relocation explorers",
		"Curious city researchers",
	)
	return fillers
}

// buildPersonality composes a short deterministic narrative from the overall
// band plus the best and worst dimensions, capped at maxPersonalityChars.
func buildPersonality(b FeatureBundle, scores map[Dimension]float64) string {
	name := strings.TrimSpace(b.City.Name)
	if name == "" {
		name = "This city"
	}

	if len(scores) == 0 {
		return truncatePersonality(fmt.Sprintf(
			"%s has a city profile on record, but no scored dimensions are available yet.", name))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s presents a %s profile", name, profileBand(meanScore(scores)))

	best, worst := extremeDimensions(scores)
	if scores[best] >= strongMin {
		fmt.Fprintf(&sb, ", led by %s at %.0f/100", best, scores[best])
	}
	if worst != best && scores[worst] < weaknessMax {
		fmt.Fprintf(&sb, ", while %s (%.0f/100) lags behind", worst, scores[worst])
	}
	sb.WriteString(".")

	if b.City.State != "" && b.City.Country != "" {
		fmt.Fprintf(&sb, " Situated in %s, %s, it offers a profile shaped by %d measured dimensions.",
			b.City.State, b.City.Country, len(scores))
	} else if b.City.Country != "" {
		fmt.Fprintf(&sb, " Located in %s, its profile reflects %d measured dimensions.",
			b.City.Country, len(scores))
	}

	return truncatePersonality(sb.String())
}

func profileBand(mean float64) string {
	switch {
	case mean >= 80:
		return "standout"
	case mean >= 65:
		return "strong"
	case mean >= 50:
		return "balanced"
	case mean >= 35:
		return "mixed"
	default:
		return "challenged"
	}
}

func meanScore(scores map[Dimension]float64) float64 {
	var total float64
	for _, s := range scores {
		total += s
	}
	return total / float64(len(scores))
}

// extremeDimensions returns the best and worst scored dimensions, breaking
// ties by the fixed dimension priority order.
func extremeDimensions(scores map[Dimension]float64) (best, worst Dimension) {
	present := []Dimension{}
	for _, d := range Dimensions {
		if _, ok := scores[d]; ok {
			present = append(present, d)
		}
	}
	sort.SliceStable(present, func(i, j int) bool {
		return scores[present[i]] > scores[present[j]]
	})
	return present[0], present[len(present)-1]
}

func truncatePersonality(s string) string {
	if len(s) <= maxPersonalityChars {
		return s
	}
	return s[:maxPersonalityChars]
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
