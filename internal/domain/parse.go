package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseRawRequest deserializes a raw message's value into a FeatureBundle.
// It expects the bundle JSON produced by the upstream assembler service.
// A bundle without a slug gets one derived from its name and state, so every
// downstream result has a stable key.
func ParseRawRequest(raw RawRequest) (FeatureBundle, error) {
	var bundle FeatureBundle
	if err := json.Unmarshal(raw.Value, &bundle); err != nil {
		return FeatureBundle{}, fmt.Errorf("parse feature bundle: %w", err)
	}

	if bundle.City.Slug == "" {
		bundle.City.Slug = Slugify(bundle.City.Name, bundle.City.State)
	}

	return bundle, nil
}

// Slugify builds a URL-safe slug from a city name and optional state,
// e.g. ("San Saba", "TX") -> "san-saba-tx". Empty inputs contribute nothing.
func Slugify(name, state string) string {
	parts := []string{}
	for _, s := range []string{name, state} {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		var sb strings.Builder
		lastDash := true
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				sb.WriteRune(r)
				lastDash = false
			default:
				if !lastDash {
					sb.WriteByte('-')
					lastDash = true
				}
			}
		}
		part := strings.Trim(sb.String(), "-")
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "-")
}
