package dto

import (
	"math"
	"time"

	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
)

// Request bounds.
const (
	MinDaysBack          = 1
	MaxDaysBack          = 30
	MinMaxResults        = 1
	MaxMaxResults        = 100
	DefaultDaysBack      = 3
	DefaultMaxResults    = 10
	MinDescriptionLength = 20
)

// ScoreRequest is the input DTO for scoring a single free-text description.
type ScoreRequest struct {
	Description string `json:"description" validate:"required,min=20"`
}

// BatchRequest is the input DTO for scoring recently published records.
type BatchRequest struct {
	APIKey     string `json:"-"`
	DaysBack   int    `json:"days_back" validate:"min=1,max=30"`
	MaxResults int    `json:"max_results" validate:"min=1,max=100"`
}

// ScoreResponse is the output DTO for a single description.
type ScoreResponse struct {
	Risk         string  `json:"risk"`
	Confidence   float64 `json:"confidence"`
	AnomalyScore float64 `json:"anomaly_score"`
	Anomalous    bool    `json:"anomalous"`
}

// RecordPrediction is one entry of a batch response.
type RecordPrediction struct {
	CVEID      string  `json:"cve_id"`
	Risk       string  `json:"risk"`
	Confidence float64 `json:"confidence"`
	Anomalous  bool    `json:"anomalous"`
}

// FailedRecord identifies a record skipped during batch scoring.
type FailedRecord struct {
	ID     string `json:"cve_id"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// BatchResult is the output of the batch pipeline. Predictions are in feed order.
// Fetched counts the items the feed returned, including those dropped for
// lacking an English description.
type BatchResult struct {
	Predictions []RecordPrediction `json:"predictions"`
	Failed      []FailedRecord     `json:"failed"`
	Fetched     int                `json:"fetched"`
}

// ScoredRecordResponse is the stored view of a scored record.
type ScoredRecordResponse struct {
	ScoredAt      time.Time  `json:"scored_at"`
	Published     *time.Time `json:"published,omitempty"`
	CVEID         string     `json:"cve_id"`
	Risk          string     `json:"risk"`
	AnomalyStatus string     `json:"anomaly_status"`
	Confidence    float64    `json:"confidence"`
	AnomalyScore  float64    `json:"anomaly_score"`
	Anomalous     bool       `json:"anomalous"`
}

// TierInfo describes one risk tier.
type TierInfo struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
}

// ArtifactVersion names one loaded model artifact.
type ArtifactVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MetaResponse describes the scoring models and their tiers.
type MetaResponse struct {
	ModelName  string            `json:"model_name"`
	Version    string            `json:"version"`
	RiskLevels []string          `json:"risk_levels"`
	Tiers      []TierInfo        `json:"tiers"`
	Artifacts  []ArtifactVersion `json:"artifacts"`
	Features   []string          `json:"features"`
}

// NewScoreResponse converts the two verdicts into the wire shape.
func NewScoreResponse(risk model.RiskVerdict, anomaly model.AnomalyVerdict) (ScoreResponse, error) {
	if err := finite(risk.Confidence, anomaly.Score); err != nil {
		return ScoreResponse{}, err
	}
	return ScoreResponse{
		Risk:         risk.Tier.String(),
		Confidence:   risk.Confidence,
		Anomalous:    anomaly.Anomalous,
		AnomalyScore: anomaly.Score,
	}, nil
}

// NewRecordPrediction converts a scored record into a batch entry.
func NewRecordPrediction(r *model.ScoredRecord) (RecordPrediction, error) {
	if err := finite(r.Confidence(), r.AnomalyScore()); err != nil {
		return RecordPrediction{}, errs.NewScoringFailure(r.ID(), errs.StageNormalize, err)
	}
	return RecordPrediction{
		CVEID:      r.ID(),
		Risk:       r.Tier().String(),
		Confidence: r.Confidence(),
		Anomalous:  r.Anomalous(),
	}, nil
}

// FromModel maps a stored scored record to its response DTO.
func FromModel(r *model.ScoredRecord) ScoredRecordResponse {
	resp := ScoredRecordResponse{
		CVEID:         r.ID(),
		Risk:          r.Tier().String(),
		Confidence:    r.Confidence(),
		Anomalous:     r.Anomalous(),
		AnomalyScore:  r.AnomalyScore(),
		AnomalyStatus: r.AnomalyStatus(),
		ScoredAt:      r.ScoredAt(),
	}
	if published := r.Published(); !published.IsZero() {
		resp.Published = &published
	}
	return resp
}

func finite(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.NewScoringFailure("", errs.StageNormalize, errNotFinite)
		}
	}
	return nil
}
