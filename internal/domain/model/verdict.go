package model

import (
	"fmt"
	"math"

	"github.com/bibbank/vulntriage/internal/domain/valueobject"
)

// RiskVerdict is the result of risk scoring one feature vector.
type RiskVerdict struct {
	Tier        valueobject.RiskTier
	Confidence  float64
	Probability float64
}

// NewRiskVerdict derives the tier and tier confidence from the positive-class probability.
func NewRiskVerdict(p float64) (RiskVerdict, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return RiskVerdict{}, fmt.Errorf("probability is not finite: %v", p)
	}
	p = math.Min(1, math.Max(0, p))
	tier := valueobject.RiskTierFromProbability(p)
	return RiskVerdict{
		Tier:        tier,
		Confidence:  tier.Confidence(p),
		Probability: p,
	}, nil
}

// AnomalyVerdict is the result of novelty scoring one feature vector.
// Anomalous and Score are independent read-outs of the same model.
type AnomalyVerdict struct {
	Status    string
	Score     float64
	Anomalous bool
}

// NewAnomalyVerdict builds a verdict from the model's raw label and decision score.
func NewAnomalyVerdict(label int, score float64) (AnomalyVerdict, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return AnomalyVerdict{}, fmt.Errorf("anomaly score is not finite: %v", score)
	}
	anomalous := label == valueobject.OutlierLabel
	return AnomalyVerdict{
		Anomalous: anomalous,
		Score:     score,
		Status:    valueobject.AnomalyStatusFor(anomalous).String(),
	}, nil
}
