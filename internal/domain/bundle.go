package domain

import (
	"context"
	"time"
)

// Dimension names one of the four scored profile dimensions.
type Dimension string

const (
	DimensionEconomy        Dimension = "economy"
	DimensionLivability     Dimension = "livability"
	DimensionSustainability Dimension = "sustainability"
	DimensionGrowth         Dimension = "growth"
)

// Dimensions lists all dimensions in fixed priority order. Rule evaluation
// and list trimming walk this slice, which is what makes inference output
// deterministic and the drop order well defined.
var Dimensions = []Dimension{
	DimensionEconomy,
	DimensionLivability,
	DimensionSustainability,
	DimensionGrowth,
}

// CityIdentifier identifies the city a bundle describes. Population is a
// pointer because upstream sources may omit it entirely; a negative value is
// invalid input, not an absent one.
type CityIdentifier struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	State        string `json:"state,omitempty"`
	Country      string `json:"country,omitempty"`
	Population   *int64 `json:"population,omitempty"`
	SizeCategory string `json:"size_category,omitempty"`
}

// EconomyFeatures holds raw economic metrics and the derived economy score.
type EconomyFeatures struct {
	GDPPerCapita      *float64 `json:"gdp_per_capita,omitempty"`
	UnemploymentRate  *float64 `json:"unemployment_rate,omitempty"`
	CostOfLivingIndex *float64 `json:"cost_of_living_index,omitempty"`
	EconomyScore      *float64 `json:"economy_score,omitempty"`
	Tier              string   `json:"tier,omitempty"`
	Explanation       string   `json:"explanation,omitempty"`
	Components        []string `json:"components,omitempty"`
}

// LivabilityFeatures holds raw livability metrics and the derived score.
type LivabilityFeatures struct {
	AQI               *float64 `json:"aqi,omitempty"`
	CostOfLivingIndex *float64 `json:"cost_of_living_index,omitempty"`
	Population        *int64   `json:"population,omitempty"`
	LivabilityScore   *float64 `json:"livability_score,omitempty"`
	Tier              string   `json:"tier,omitempty"`
	Explanation       string   `json:"explanation,omitempty"`
	Components        []string `json:"components,omitempty"`
}

// SustainabilityFeatures holds air quality metrics and the derived score.
type SustainabilityFeatures struct {
	AQI                 *float64 `json:"aqi,omitempty"`
	AQICategory         string   `json:"aqi_category,omitempty"`
	SustainabilityScore *float64 `json:"sustainability_score,omitempty"`
	Tier                string   `json:"tier,omitempty"`
	Explanation         string   `json:"explanation,omitempty"`
	Components          []string `json:"components,omitempty"`
}

// GrowthFeatures holds growth-rate metrics and the derived score.
type GrowthFeatures struct {
	PopulationGrowthRate *float64 `json:"population_growth_rate,omitempty"`
	GDPGrowthRate        *float64 `json:"gdp_growth_rate,omitempty"`
	GrowthScore          *float64 `json:"growth_score,omitempty"`
	Tier                 string   `json:"tier,omitempty"`
	Explanation          string   `json:"explanation,omitempty"`
	Components           []string `json:"components,omitempty"`
}

// DataQualityMetadata is optional upstream bookkeeping about the bundle.
// UnavailableSources names external data sources that failed before the
// bundle was assembled; a non-empty list routes straight to the
// API-unavailable fallback.
type DataQualityMetadata struct {
	CompletenessPct    *float64 `json:"completeness_pct,omitempty"`
	MissingFields      []string `json:"missing_fields,omitempty"`
	Freshness          string   `json:"freshness,omitempty"`
	Confidence         *float64 `json:"confidence,omitempty"`
	UnavailableSources []string `json:"unavailable_sources,omitempty"`
}

// FeatureBundle is the immutable input record for one evaluation. Feature
// groups are pointers: a nil group means the upstream collaborator had no
// data for that dimension at all.
type FeatureBundle struct {
	City           CityIdentifier          `json:"city"`
	Economy        *EconomyFeatures        `json:"economy,omitempty"`
	Livability     *LivabilityFeatures     `json:"livability,omitempty"`
	Sustainability *SustainabilityFeatures `json:"sustainability,omitempty"`
	Growth         *GrowthFeatures         `json:"growth,omitempty"`
	DataQuality    *DataQualityMetadata    `json:"data_quality,omitempty"`
}

// Score returns the dimension score for d, or nil when the feature group or
// the score itself is missing.
func (b FeatureBundle) Score(d Dimension) *float64 {
	switch d {
	case DimensionEconomy:
		if b.Economy != nil {
			return b.Economy.EconomyScore
		}
	case DimensionLivability:
		if b.Livability != nil {
			return b.Livability.LivabilityScore
		}
	case DimensionSustainability:
		if b.Sustainability != nil {
			return b.Sustainability.SustainabilityScore
		}
	case DimensionGrowth:
		if b.Growth != nil {
			return b.Growth.GrowthScore
		}
	}
	return nil
}

// PresentScores returns the dimension scores that are actually populated,
// keyed by dimension.
func (b FeatureBundle) PresentScores() map[Dimension]float64 {
	scores := make(map[Dimension]float64, len(Dimensions))
	for _, d := range Dimensions {
		if s := b.Score(d); s != nil {
			scores[d] = *s
		}
	}
	return scores
}

// RawRequest represents an unprocessed message from the source topic.
type RawRequest struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputMessage is the serialized form destined for the sink topic.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
