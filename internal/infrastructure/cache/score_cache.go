// Package cache memoizes single-description scores.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/vulntriage/internal/application/usecase"
	"github.com/bibbank/vulntriage/internal/domain/model"
)

// Compile-time interface check.
var _ usecase.TextScorer = (*ScoreCache)(nil)

type verdicts struct {
	risk    model.RiskVerdict
	anomaly model.AnomalyVerdict
}

// ScoreCache wraps a TextScorer with a fixed-size LRU keyed by the SHA-256 of
// the text. Artifacts never change after startup, so an entry stays valid for
// the life of the process. Failed scores are not cached.
type ScoreCache struct {
	next    usecase.TextScorer
	entries *lru.Cache[string, verdicts]
	lookups metric.Int64Counter
}

// NewScoreCache creates a cache holding up to size entries. meter may be nil.
func NewScoreCache(next usecase.TextScorer, size int, meter metric.Meter) (*ScoreCache, error) {
	entries, err := lru.New[string, verdicts](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create score cache: %w", err)
	}

	c := &ScoreCache{next: next, entries: entries}
	if meter != nil {
		c.lookups, err = meter.Int64Counter("vulntriage_score_cache_lookups_total",
			metric.WithDescription("Single-description score cache lookups by result."))
		if err != nil {
			return nil, fmt.Errorf("failed to create cache counter: %w", err)
		}
	}
	return c, nil
}

// ScoreText returns the cached verdicts for text, scoring it on a miss.
func (c *ScoreCache) ScoreText(text string) (model.RiskVerdict, model.AnomalyVerdict, error) {
	key := keyFor(text)
	if v, ok := c.entries.Get(key); ok {
		c.count("hit")
		return v.risk, v.anomaly, nil
	}
	c.count("miss")

	risk, anomaly, err := c.next.ScoreText(text)
	if err != nil {
		return model.RiskVerdict{}, model.AnomalyVerdict{}, err
	}
	c.entries.Add(key, verdicts{risk: risk, anomaly: anomaly})
	return risk, anomaly, nil
}

// Len reports the number of cached entries.
func (c *ScoreCache) Len() int {
	return c.entries.Len()
}

func (c *ScoreCache) count(result string) {
	if c.lookups == nil {
		return
	}
	c.lookups.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
}

func keyFor(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
