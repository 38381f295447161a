package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bibbank/vulntriage/internal/domain/event"
	"github.com/bibbank/vulntriage/internal/domain/valueobject"
	"github.com/bibbank/vulntriage/pkg/events"
)

// ScoredRecord is the aggregate root for one scored vulnerability description.
type ScoredRecord struct {
	scoredAt     time.Time
	published    time.Time
	id           string
	description  string
	tier         valueobject.RiskTier
	pending      events.EventCollector
	confidence   float64
	probability  float64
	anomalyScore float64
	anomalous    bool
}

// NewScoredRecord combines a record with its two verdicts. Conflicting
// verdicts are kept side by side; neither overrides the other.
func NewScoredRecord(record VulnerabilityRecord, risk RiskVerdict, anomaly AnomalyVerdict, scoredAt time.Time) (*ScoredRecord, error) {
	if strings.TrimSpace(record.ID) == "" {
		return nil, fmt.Errorf("record ID is required")
	}
	if risk.Tier.IsZero() {
		return nil, fmt.Errorf("risk tier is required")
	}
	if math.IsNaN(risk.Confidence) || risk.Confidence < 0 || risk.Confidence > 1 {
		return nil, fmt.Errorf("confidence must be between 0 and 1, got %v", risk.Confidence)
	}
	if math.IsNaN(anomaly.Score) || math.IsInf(anomaly.Score, 0) {
		return nil, fmt.Errorf("anomaly score is not finite: %v", anomaly.Score)
	}
	if scoredAt.IsZero() {
		scoredAt = time.Now()
	}
	scoredAt = scoredAt.UTC()

	r := &ScoredRecord{
		id:           record.ID,
		description:  record.Description,
		published:    record.Published,
		tier:         risk.Tier,
		confidence:   risk.Confidence,
		probability:  risk.Probability,
		anomalous:    anomaly.Anomalous,
		anomalyScore: anomaly.Score,
		scoredAt:     scoredAt,
	}

	r.pending.Record(event.NewVulnerabilityScored(
		r.id, r.tier.String(), r.confidence, r.anomalous, r.anomalyScore, r.scoredAt,
	))
	if r.tier.Equal(valueobject.RiskTierHigh) {
		r.pending.Record(event.NewHighRiskDetected(
			r.id, r.confidence, r.anomalous, r.scoredAt,
		))
	}

	return r, nil
}

// ReconstructScoredRecord rebuilds a ScoredRecord from persisted data (no validation, no events).
func ReconstructScoredRecord(
	id, description string,
	published time.Time,
	tier valueobject.RiskTier,
	confidence, probability float64,
	anomalous bool,
	anomalyScore float64,
	scoredAt time.Time,
) *ScoredRecord {
	return &ScoredRecord{
		id:           id,
		description:  description,
		published:    published,
		tier:         tier,
		confidence:   confidence,
		probability:  probability,
		anomalous:    anomalous,
		anomalyScore: anomalyScore,
		scoredAt:     scoredAt,
	}
}

// --- Accessors ---

func (r *ScoredRecord) ID() string                 { return r.id }
func (r *ScoredRecord) Description() string        { return r.description }
func (r *ScoredRecord) Published() time.Time       { return r.published }
func (r *ScoredRecord) Tier() valueobject.RiskTier { return r.tier }
func (r *ScoredRecord) Confidence() float64        { return r.confidence }
func (r *ScoredRecord) Probability() float64       { return r.probability }
func (r *ScoredRecord) Anomalous() bool            { return r.anomalous }
func (r *ScoredRecord) AnomalyScore() float64      { return r.anomalyScore }
func (r *ScoredRecord) ScoredAt() time.Time        { return r.scoredAt }

// AnomalyStatus returns the human-readable anomaly status.
func (r *ScoredRecord) AnomalyStatus() string {
	return valueobject.AnomalyStatusFor(r.anomalous).String()
}

// DomainEvents returns all accumulated domain events and clears them.
func (r *ScoredRecord) DomainEvents() []events.DomainEvent {
	return r.pending.ClearEvents()
}
