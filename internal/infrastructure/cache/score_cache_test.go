package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/bibbank/vulntriage/internal/domain/model"
)

type countingScorer struct {
	calls int
	err   error
}

func (s *countingScorer) ScoreText(text string) (model.RiskVerdict, model.AnomalyVerdict, error) {
	s.calls++
	if s.err != nil {
		return model.RiskVerdict{}, model.AnomalyVerdict{}, s.err
	}
	risk, _ := model.NewRiskVerdict(float64(len(text)%10) / 10)
	anomaly, _ := model.NewAnomalyVerdict(1, 0.2)
	return risk, anomaly, nil
}

func TestScoreCache_HitSkipsScorer(t *testing.T) {
	next := &countingScorer{}
	c, err := NewScoreCache(next, 8, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	risk1, anomaly1, err := c.ScoreText("Heap overflow in the TLS handshake parser")
	require.NoError(t, err)
	risk2, anomaly2, err := c.ScoreText("Heap overflow in the TLS handshake parser")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, risk1, risk2)
	assert.Equal(t, anomaly1, anomaly2)
	assert.Equal(t, 1, c.Len())
}

func TestScoreCache_DistinctTexts(t *testing.T) {
	next := &countingScorer{}
	c, err := NewScoreCache(next, 8, nil)
	require.NoError(t, err)

	_, _, _ = c.ScoreText("first description")
	_, _, _ = c.ScoreText("second description")
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 2, c.Len())
}

func TestScoreCache_EvictsOldest(t *testing.T) {
	next := &countingScorer{}
	c, err := NewScoreCache(next, 1, nil)
	require.NoError(t, err)

	_, _, _ = c.ScoreText("a")
	_, _, _ = c.ScoreText("b")
	_, _, _ = c.ScoreText("a")
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, 1, c.Len())
}

func TestScoreCache_ErrorsNotCached(t *testing.T) {
	next := &countingScorer{err: errors.New("dimension mismatch")}
	c, err := NewScoreCache(next, 8, nil)
	require.NoError(t, err)

	_, _, err = c.ScoreText("text")
	require.Error(t, err)
	_, _, err = c.ScoreText("text")
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
	assert.Zero(t, c.Len())
}

func TestNewScoreCache_InvalidSize(t *testing.T) {
	_, err := NewScoreCache(&countingScorer{}, 0, nil)
	assert.ErrorContains(t, err, "failed to create score cache")
}
