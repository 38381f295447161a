package service

import (
	"fmt"

	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/port"
)

// RiskScorer maps the classifier's positive-class probability onto a three-tier verdict.
type RiskScorer struct {
	classifier port.RiskClassifier
}

// NewRiskScorer creates a RiskScorer. A nil classifier means the artifact
// never loaded, which is a startup failure.
func NewRiskScorer(classifier port.RiskClassifier) (*RiskScorer, error) {
	if classifier == nil {
		return nil, fmt.Errorf("risk classifier: %w", errs.ErrArtifactUnavailable)
	}
	return &RiskScorer{classifier: classifier}, nil
}

// ScoreRisk returns the tier, tier confidence and raw probability for a vector.
func (s *RiskScorer) ScoreRisk(vector model.FeatureVector) (model.RiskVerdict, error) {
	p, err := s.classifier.PositiveProbability(vector)
	if err != nil {
		return model.RiskVerdict{}, fmt.Errorf("failed to classify vector: %w", err)
	}
	return model.NewRiskVerdict(p)
}
