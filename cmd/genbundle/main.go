// Command genbundle writes a set of feature bundle fixtures covering the
// pipeline's main paths: a fully populated city, a partially populated one, a
// metadata-only one, a placeholder-scored one that the guard blocks, and one
// with unavailable upstream sources. The fixtures feed cmd/evaluate and
// manual testing of the HTTP endpoint.
//
// Usage:
//
//	go run ./cmd/genbundle -out data/fixtures
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/city-insight-service/internal/domain"
)

func main() {
	outDir := flag.String("out", "data/fixtures", "directory to write bundle fixtures into")
	flag.Parse()

	if err := run(*outDir); err != nil {
		fmt.Fprintf(os.Stderr, "genbundle: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for name, bundle := range fixtures() {
		path := filepath.Join(outDir, name+".json")
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func fixtures() map[string]domain.FeatureBundle {
	return map[string]domain.FeatureBundle{
		"full-profile": {
			City: domain.CityIdentifier{
				Slug: "austin-tx", Name: "Austin", State: "TX", Country: "USA",
				Population: i64(961855), SizeCategory: "large",
			},
			Economy: &domain.EconomyFeatures{
				GDPPerCapita:      f64(85000),
				UnemploymentRate:  f64(3.4),
				CostOfLivingIndex: f64(103),
			},
			Livability: &domain.LivabilityFeatures{
				AQI:               f64(52),
				CostOfLivingIndex: f64(103),
				Population:        i64(961855),
			},
			Sustainability: &domain.SustainabilityFeatures{
				AQI:         f64(52),
				AQICategory: "moderate",
			},
			Growth: &domain.GrowthFeatures{
				PopulationGrowthRate: f64(2.1),
				GDPGrowthRate:        f64(4.3),
			},
		},
		"partial-profile": {
			City: domain.CityIdentifier{
				Slug: "boise-id", Name: "Boise", State: "ID", Country: "USA",
				Population: i64(235684), SizeCategory: "medium",
			},
			Economy: &domain.EconomyFeatures{
				GDPPerCapita:     f64(62000),
				UnemploymentRate: f64(2.9),
			},
			Sustainability: &domain.SustainabilityFeatures{
				AQI:         f64(41),
				AQICategory: "good",
			},
		},
		"metadata-only": {
			City: domain.CityIdentifier{
				Slug: "marfa-tx", Name: "Marfa", State: "TX", Country: "USA",
				Population: i64(1772),
			},
		},
		"placeholder-scores": {
			City: domain.CityIdentifier{
				Slug: "nulltown", Name: "Nulltown", Country: "USA",
			},
			Economy:        &domain.EconomyFeatures{EconomyScore: f64(50)},
			Livability:     &domain.LivabilityFeatures{LivabilityScore: f64(50)},
			Sustainability: &domain.SustainabilityFeatures{SustainabilityScore: f64(50)},
			Growth:         &domain.GrowthFeatures{GrowthScore: f64(50)},
		},
		"sources-down": {
			City: domain.CityIdentifier{
				Slug: "portland-or", Name: "Portland", State: "OR", Country: "USA",
				Population: i64(652503),
			},
			DataQuality: &domain.DataQualityMetadata{
				UnavailableSources: []string{"economy", "sustainability"},
			},
		},
	}
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
