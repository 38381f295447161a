package service

import (
	"fmt"
	"time"

	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/port"
)

// Scorer runs one description through transform, risk and anomaly scoring.
// It holds only immutable references and is safe for concurrent use.
type Scorer struct {
	transformer port.FeatureTransformer
	risk        *RiskScorer
	anomaly     *AnomalyDetector
	now         func() time.Time
}

// NewScorer creates a Scorer from the three pretrained handles.
func NewScorer(transformer port.FeatureTransformer, classifier port.RiskClassifier, novelty port.NoveltyModel) (*Scorer, error) {
	if transformer == nil {
		return nil, fmt.Errorf("feature transformer: %w", errs.ErrArtifactUnavailable)
	}
	risk, err := NewRiskScorer(classifier)
	if err != nil {
		return nil, err
	}
	anomaly, err := NewAnomalyDetector(novelty)
	if err != nil {
		return nil, err
	}
	return &Scorer{
		transformer: transformer,
		risk:        risk,
		anomaly:     anomaly,
		now:         time.Now,
	}, nil
}

// Score produces a ScoredRecord for one record. Errors are *errs.ScoringFailure
// tagged with the failing stage.
func (s *Scorer) Score(record model.VulnerabilityRecord) (*model.ScoredRecord, error) {
	vector, err := s.transformer.Transform(record.Description)
	if err != nil {
		return nil, errs.NewScoringFailure(record.ID, errs.StageTransform, err)
	}

	riskVerdict, err := s.risk.ScoreRisk(vector)
	if err != nil {
		return nil, errs.NewScoringFailure(record.ID, errs.StageRisk, err)
	}

	anomalyVerdict, err := s.anomaly.DetectAnomaly(vector)
	if err != nil {
		return nil, errs.NewScoringFailure(record.ID, errs.StageAnomaly, err)
	}

	scored, err := model.NewScoredRecord(record, riskVerdict, anomalyVerdict, s.now())
	if err != nil {
		return nil, errs.NewScoringFailure(record.ID, errs.StageNormalize, err)
	}
	return scored, nil
}

// ScoreText scores a free-text description that has no feed identifier.
// The returned verdicts are independent; neither overrides the other.
func (s *Scorer) ScoreText(text string) (model.RiskVerdict, model.AnomalyVerdict, error) {
	vector, err := s.transformer.Transform(text)
	if err != nil {
		return model.RiskVerdict{}, model.AnomalyVerdict{}, errs.NewScoringFailure("", errs.StageTransform, err)
	}
	riskVerdict, err := s.risk.ScoreRisk(vector)
	if err != nil {
		return model.RiskVerdict{}, model.AnomalyVerdict{}, errs.NewScoringFailure("", errs.StageRisk, err)
	}
	anomalyVerdict, err := s.anomaly.DetectAnomaly(vector)
	if err != nil {
		return model.RiskVerdict{}, model.AnomalyVerdict{}, errs.NewScoringFailure("", errs.StageAnomaly, err)
	}
	return riskVerdict, anomalyVerdict, nil
}
