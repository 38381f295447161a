package event

import (
	"time"

	"github.com/bibbank/vulntriage/pkg/events"
)

const (
	// EventTypeVulnerabilityScored is emitted for every successfully scored record.
	EventTypeVulnerabilityScored = "vuln.scored"

	// EventTypeHighRiskDetected is emitted when a record is scored HIGH.
	EventTypeHighRiskDetected = "vuln.high_risk.detected"

	aggregateType = "ScoredRecord"
)

// VulnerabilityScored is published when a description has been scored.
type VulnerabilityScored struct {
	events.BaseEvent `json:"-"`
	ScoredAt         time.Time `json:"scored_at"`
	CVEID            string    `json:"cve_id"`
	Risk             string    `json:"risk"`
	Confidence       float64   `json:"confidence"`
	AnomalyScore     float64   `json:"anomaly_score"`
	Anomalous        bool      `json:"anomalous"`
}

// NewVulnerabilityScored creates a VulnerabilityScored event.
func NewVulnerabilityScored(cveID, risk string, confidence float64, anomalous bool, anomalyScore float64, scoredAt time.Time) VulnerabilityScored {
	return VulnerabilityScored{
		BaseEvent:    events.NewBaseEvent(EventTypeVulnerabilityScored, cveID, aggregateType, scoredAt),
		CVEID:        cveID,
		Risk:         risk,
		Confidence:   confidence,
		Anomalous:    anomalous,
		AnomalyScore: anomalyScore,
		ScoredAt:     scoredAt,
	}
}

// HighRiskDetected is published when a record lands in the HIGH tier, so
// downstream alerting can react without re-reading every score.
type HighRiskDetected struct {
	events.BaseEvent `json:"-"`
	DetectedAt       time.Time `json:"detected_at"`
	CVEID            string    `json:"cve_id"`
	Confidence       float64   `json:"confidence"`
	Anomalous        bool      `json:"anomalous"`
}

// NewHighRiskDetected creates a HighRiskDetected event.
func NewHighRiskDetected(cveID string, confidence float64, anomalous bool, detectedAt time.Time) HighRiskDetected {
	return HighRiskDetected{
		BaseEvent:  events.NewBaseEvent(EventTypeHighRiskDetected, cveID, aggregateType, detectedAt),
		CVEID:      cveID,
		Confidence: confidence,
		Anomalous:  anomalous,
		DetectedAt: detectedAt,
	}
}
