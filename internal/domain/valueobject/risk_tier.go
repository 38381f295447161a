package valueobject

import "fmt"

// Probability thresholds for the positive (high-severity) class. Both bounds are inclusive.
const (
	HighThreshold   = 0.70
	MediumThreshold = 0.40
)

// RiskTier is an immutable value object representing the discretized risk classification.
type RiskTier struct {
	value string
}

var (
	RiskTierLow    = RiskTier{value: "LOW"}
	RiskTierMedium = RiskTier{value: "MEDIUM"}
	RiskTierHigh   = RiskTier{value: "HIGH"}
)

// RiskTiers lists every tier from most to least severe.
func RiskTiers() []RiskTier {
	return []RiskTier{RiskTierHigh, RiskTierMedium, RiskTierLow}
}

// RiskTierFromString reconstructs a RiskTier from its string representation.
func RiskTierFromString(s string) (RiskTier, error) {
	switch s {
	case "LOW":
		return RiskTierLow, nil
	case "MEDIUM":
		return RiskTierMedium, nil
	case "HIGH":
		return RiskTierHigh, nil
	default:
		return RiskTier{}, fmt.Errorf("invalid risk tier: %s", s)
	}
}

// RiskTierFromProbability maps the classifier's positive-class probability to a tier.
// MEDIUM is the uncertainty band between confident HIGH and confident LOW.
func RiskTierFromProbability(p float64) RiskTier {
	switch {
	case p >= HighThreshold:
		return RiskTierHigh
	case p >= MediumThreshold:
		return RiskTierMedium
	default:
		return RiskTierLow
	}
}

// Confidence returns the confidence in this tier for probability p.
// LOW inverts the probability since it is a statement about the negative class.
func (r RiskTier) Confidence(p float64) float64 {
	if r.value == "LOW" {
		return 1 - p
	}
	return p
}

// Threshold returns a human-readable description of the probability band for this tier.
func (r RiskTier) Threshold() string {
	switch r.value {
	case "HIGH":
		return fmt.Sprintf(">= %.2f probability", HighThreshold)
	case "MEDIUM":
		return fmt.Sprintf("%.2f - %.2f probability", MediumThreshold, HighThreshold-0.01)
	case "LOW":
		return fmt.Sprintf("< %.2f probability", MediumThreshold)
	default:
		return ""
	}
}

// String returns the string representation.
func (r RiskTier) String() string {
	return r.value
}

// IsZero returns true if the RiskTier has not been set.
func (r RiskTier) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskTier.
func (r RiskTier) Equal(other RiskTier) bool {
	return r.value == other.value
}
