package service

import (
	"fmt"

	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/port"
)

// AnomalyDetector reads the novelty model's label and decision score.
type AnomalyDetector struct {
	novelty port.NoveltyModel
}

// NewAnomalyDetector creates an AnomalyDetector.
func NewAnomalyDetector(novelty port.NoveltyModel) (*AnomalyDetector, error) {
	if novelty == nil {
		return nil, fmt.Errorf("novelty model: %w", errs.ErrArtifactUnavailable)
	}
	return &AnomalyDetector{novelty: novelty}, nil
}

// DetectAnomaly flags a vector as anomalous iff the model labels it an outlier.
// The decision score is passed through unmodified.
func (d *AnomalyDetector) DetectAnomaly(vector model.FeatureVector) (model.AnomalyVerdict, error) {
	label, err := d.novelty.Predict(vector)
	if err != nil {
		return model.AnomalyVerdict{}, fmt.Errorf("failed to predict novelty label: %w", err)
	}
	score, err := d.novelty.DecisionFunction(vector)
	if err != nil {
		return model.AnomalyVerdict{}, fmt.Errorf("failed to compute decision score: %w", err)
	}
	return model.NewAnomalyVerdict(label, score)
}
