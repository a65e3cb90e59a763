package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestComputeScores(t *testing.T) {
	t.Run("economy from gdp and unemployment", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{
			GDPPerCapita:     f64(85000),
			UnemploymentRate: f64(3.4),
		})

		require.NotNil(t, scores.Economy)
		// 0.40·norm(85000) + 0.60·inv(norm(3.4)) = 20.74 + 53.54
		assert.InDelta(t, 74.3, *scores.Economy, 0.05)
		assert.Nil(t, scores.Livability)
		assert.Nil(t, scores.Growth)
		assert.Nil(t, scores.Overall)
	})

	t.Run("livability blends cost, air, and population", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{
			CostOfLivingIndex: f64(103),
			AQI:               f64(52),
			Population:        i64(961855),
		})

		require.NotNil(t, scores.Livability)
		assert.InDelta(t, 63.7, *scores.Livability, 0.05)
	})

	t.Run("sustainability follows air quality alone", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{AQI: f64(52)})

		require.NotNil(t, scores.Sustainability)
		assert.InDelta(t, 74.0, *scores.Sustainability, 0.05)
	})

	t.Run("growth from both growth rates", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{
			PopulationGrowthRate: f64(2.1),
			GDPGrowthRate:        f64(4.3),
		})

		require.NotNil(t, scores.Growth)
		assert.InDelta(t, 60.3, *scores.Growth, 0.05)
	})

	t.Run("missing input nils the score instead of defaulting", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{GDPPerCapita: f64(85000)})

		assert.Nil(t, scores.Economy)
		assert.Nil(t, scores.Overall)
	})

	t.Run("overall requires all four dimensions", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{
			GDPPerCapita:      f64(85000),
			UnemploymentRate:  f64(3.4),
			CostOfLivingIndex: f64(103),
			AQI:               f64(52),
			Population:        i64(961855),
		})

		require.NotNil(t, scores.Economy)
		require.NotNil(t, scores.Livability)
		require.NotNil(t, scores.Sustainability)
		assert.Nil(t, scores.Growth)
		assert.Nil(t, scores.Overall)
	})

	t.Run("overall is the weighted blend", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{
			GDPPerCapita:         f64(85000),
			UnemploymentRate:     f64(3.4),
			CostOfLivingIndex:    f64(103),
			AQI:                  f64(52),
			Population:           i64(961855),
			PopulationGrowthRate: f64(2.1),
			GDPGrowthRate:        f64(4.3),
		})

		require.NotNil(t, scores.Overall)
		expected := 0.30**scores.Economy + 0.35**scores.Livability +
			0.20**scores.Sustainability + 0.15**scores.Growth
		assert.InDelta(t, expected, *scores.Overall, 0.1)
	})

	t.Run("extreme inputs clamp to bounds", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{
			GDPPerCapita:     f64(1e7),
			UnemploymentRate: f64(0),
		})

		require.NotNil(t, scores.Economy)
		assert.Equal(t, 100.0, *scores.Economy)

		low := ComputeScores(RawMetrics{
			GDPPerCapita:     f64(1000),
			UnemploymentRate: f64(40),
		})
		require.NotNil(t, low.Economy)
		assert.Equal(t, 0.0, *low.Economy)
	})

	t.Run("explanations quote literal input values", func(t *testing.T) {
		scores := ComputeScores(RawMetrics{
			GDPPerCapita:     f64(85000),
			UnemploymentRate: f64(3.4),
		})

		explanation := scores.Explanations[DimensionEconomy]
		assert.Contains(t, explanation, "$85K")
		assert.Contains(t, explanation, "3.4%")
	})
}

func TestScoreBounds(t *testing.T) {
	// Sweep a grid of inputs; every computed score must land in [0, 100].
	gdps := []float64{-5000, 0, 15000, 85000, 150000, 1e9}
	rates := []float64{-10, 0, 2, 7.5, 15, 100}

	for _, gdp := range gdps {
		for _, rate := range rates {
			scores := ComputeScores(RawMetrics{
				GDPPerCapita:         f64(gdp),
				UnemploymentRate:     f64(rate),
				CostOfLivingIndex:    f64(rate * 20),
				AQI:                  f64(rate * 30),
				Population:           i64(int64(gdp)),
				PopulationGrowthRate: f64(rate - 5),
				GDPGrowthRate:        f64(rate),
			})

			for _, s := range []*float64{scores.Economy, scores.Livability, scores.Sustainability, scores.Growth, scores.Overall} {
				if s == nil {
					continue
				}
				assert.GreaterOrEqual(t, *s, 0.0)
				assert.LessOrEqual(t, *s, 100.0)
			}
		}
	}
}

func TestOverallWeightSum(t *testing.T) {
	assert.InDelta(t, 1.0, OverallWeightSum(), 1e-9)
}

func TestLogNormalize(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected float64
	}{
		{"at lower bound", 50000, 0},
		{"at upper bound", 10000000, 100},
		{"below lower bound", 10000, 0},
		{"above upper bound", 50000000, 100},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, logNormalize(tt.value, populationLo, populationHi), 0.01)
		})
	}
}

func TestWithComputedScores(t *testing.T) {
	t.Run("fills missing scores", func(t *testing.T) {
		bundle := FeatureBundle{
			City: CityIdentifier{Name: "Austin"},
			Economy: &EconomyFeatures{
				GDPPerCapita:     f64(85000),
				UnemploymentRate: f64(3.4),
			},
		}

		filled := WithComputedScores(bundle, ComputeScores(MetricsFromBundle(bundle)))

		require.NotNil(t, filled.Economy.EconomyScore)
		assert.InDelta(t, 74.3, *filled.Economy.EconomyScore, 0.05)
		assert.NotEmpty(t, filled.Economy.Explanation)
	})

	t.Run("never overwrites upstream scores", func(t *testing.T) {
		bundle := FeatureBundle{
			City: CityIdentifier{Name: "Austin"},
			Economy: &EconomyFeatures{
				GDPPerCapita:     f64(85000),
				UnemploymentRate: f64(3.4),
				EconomyScore:     f64(91),
				Explanation:      "precomputed upstream",
			},
		}

		filled := WithComputedScores(bundle, ComputeScores(MetricsFromBundle(bundle)))

		assert.Equal(t, 91.0, *filled.Economy.EconomyScore)
		assert.Equal(t, "precomputed upstream", filled.Economy.Explanation)
	})

	t.Run("does not mutate the input bundle", func(t *testing.T) {
		bundle := FeatureBundle{
			City: CityIdentifier{Name: "Austin"},
			Economy: &EconomyFeatures{
				GDPPerCapita:     f64(85000),
				UnemploymentRate: f64(3.4),
			},
		}

		_ = WithComputedScores(bundle, ComputeScores(MetricsFromBundle(bundle)))

		assert.Nil(t, bundle.Economy.EconomyScore)
	})
}

func TestMetricsFromBundle(t *testing.T) {
	bundle := FeatureBundle{
		City: CityIdentifier{Name: "Austin", Population: i64(961855)},
		Economy: &EconomyFeatures{
			GDPPerCapita:      f64(85000),
			UnemploymentRate:  f64(3.4),
			CostOfLivingIndex: f64(99),
		},
		Livability: &LivabilityFeatures{
			CostOfLivingIndex: f64(103),
			AQI:               f64(60),
		},
		Sustainability: &SustainabilityFeatures{AQI: f64(52)},
	}

	m := MetricsFromBundle(bundle)

	assert.Equal(t, 85000.0, *m.GDPPerCapita)
	// Livability's cost of living wins over the economy group's copy.
	assert.Equal(t, 103.0, *m.CostOfLivingIndex)
	// Sustainability's AQI wins over livability's.
	assert.Equal(t, 52.0, *m.AQI)
	// Identity population backfills when livability has none.
	assert.Equal(t, int64(961855), *m.Population)
}
