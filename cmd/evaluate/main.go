// Command evaluate runs the insight pipeline once over a feature bundle
// fixture and prints the result as JSON. Useful for inspecting how a given
// bundle scores and which pipeline path it takes without standing up the
// service.
//
// Usage:
//
//	go run ./cmd/evaluate -bundle testdata/austin.json
//	go run ./cmd/evaluate -bundle testdata/austin.json -verbose
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/city-insight-service/internal/domain"
	"github.com/couchcryptid/city-insight-service/internal/observability"
	"github.com/couchcryptid/city-insight-service/internal/pipeline"
)

func main() {
	bundlePath := flag.String("bundle", "", "path to a feature bundle JSON file")
	verbose := flag.Bool("verbose", false, "also print quality, guard, and confidence details")
	flag.Parse()

	if *bundlePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*bundlePath, *verbose); code != 0 {
		os.Exit(code)
	}
}

func run(bundlePath string, verbose bool) int {
	data, err := os.ReadFile(bundlePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read bundle: %v\n", err)
		return 1
	}

	var bundle domain.FeatureBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		fmt.Fprintf(os.Stderr, "parse bundle: %v\n", err)
		return 1
	}

	// Quiet logger: diagnostics go to stderr, the result alone to stdout.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	evaluator := pipeline.NewEvaluator(logger, observability.NewMetricsForTesting())
	result := evaluator.Evaluate(context.Background(), bundle)

	if verbose {
		printDiagnostics(bundle)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal result: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

// printDiagnostics dumps the intermediate pipeline stages to stderr.
func printDiagnostics(bundle domain.FeatureBundle) {
	bundle = domain.WithComputedScores(bundle, domain.ComputeScores(domain.MetricsFromBundle(bundle)))

	quality := domain.ValidateBundle(bundle)
	fmt.Fprintf(os.Stderr, "quality: sufficient=%v completeness=%.1f%%\n", quality.Sufficient, quality.Completeness)
	for _, issue := range quality.Issues {
		fmt.Fprintf(os.Stderr, "  issue: %s\n", issue)
	}
	for _, warning := range quality.Warnings {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", warning)
	}

	guard := domain.ValidateForInference(bundle)
	fmt.Fprintf(os.Stderr, "guard: proceed=%v\n", guard.Proceed)
	for _, b := range guard.Blockers {
		fmt.Fprintf(os.Stderr, "  blocker: %s\n", b)
	}
	for _, r := range guard.Recommendations {
		fmt.Fprintf(os.Stderr, "  recommendation: %s\n", r)
	}

	confidence := domain.ComputeConfidence(quality, bundle)
	fmt.Fprintf(os.Stderr, "confidence: %.1f (%s) — %s\n", confidence.Overall, confidence.Level, confidence.Reasoning)

	for _, d := range domain.Dimensions {
		if score := bundle.Score(d); score != nil {
			fmt.Fprintf(os.Stderr, "score %s: %.1f\n", d, *score)
		} else {
			fmt.Fprintf(os.Stderr, "score %s: (not computed)\n", d)
		}
	}
}
