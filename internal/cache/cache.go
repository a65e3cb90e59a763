// Package cache decorates the evaluator with a bounded in-memory result
// cache. Caching lives here, at the collaborator boundary — the scoring core
// itself stays pure and holds no state between calls.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/couchcryptid/city-insight-service/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

// InsightEvaluator turns one feature bundle into an insight result.
type InsightEvaluator interface {
	Evaluate(ctx context.Context, bundle domain.FeatureBundle) domain.InsightResult
}

// CachedEvaluator wraps an evaluator with an LRU cache keyed by city slug
// plus a hash of the full bundle, so two different bundles for the same city
// never collide.
type CachedEvaluator struct {
	inner InsightEvaluator
	cache *lru.Cache[string, domain.InsightResult]
}

// NewCachedEvaluator creates a cache decorator holding at most size results.
func NewCachedEvaluator(inner InsightEvaluator, size int) (*CachedEvaluator, error) {
	c, err := lru.New[string, domain.InsightResult](size)
	if err != nil {
		return nil, err
	}
	return &CachedEvaluator{inner: inner, cache: c}, nil
}

// Evaluate returns a cached result when the identical bundle was evaluated
// before. Only normal-path results are cached: a degraded result may recover
// on retry once upstream data improves, so it is recomputed every time.
func (c *CachedEvaluator) Evaluate(ctx context.Context, bundle domain.FeatureBundle) domain.InsightResult {
	key, ok := cacheKey(bundle)
	if !ok {
		return c.inner.Evaluate(ctx, bundle)
	}

	if result, hit := c.cache.Get(key); hit {
		return result
	}

	result := c.inner.Evaluate(ctx, bundle)
	if result.PipelineVersion == domain.PipelineVersionRule {
		c.cache.Add(key, result)
	}
	return result
}

// Len reports the number of cached results.
func (c *CachedEvaluator) Len() int {
	return c.cache.Len()
}

func cacheKey(bundle domain.FeatureBundle) (string, bool) {
	data, err := json.Marshal(bundle)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return bundle.City.Slug + ":" + hex.EncodeToString(sum[:8]), true
}
