// Package errs defines the error taxonomy shared by the scoring pipeline.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactUnavailable means a pretrained artifact failed to load. It is
	// only ever returned while constructing services at startup.
	ErrArtifactUnavailable = errors.New("artifact unavailable")

	// ErrUpstreamUnavailable means the vulnerability feed call failed or timed out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidInput means caller-supplied parameters are outside documented ranges.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned by lookups of scored records that do not exist.
	ErrNotFound = errors.New("not found")
)

// Scoring stages reported by ScoringFailure.
const (
	StageTransform = "transform"
	StageRisk      = "risk"
	StageAnomaly   = "anomaly"
	StageNormalize = "normalize"
	StagePanic     = "panic"
	StageCanceled  = "canceled"
	StageUnknown   = "unknown"
)

// ScoringFailure is a per-record, recoverable failure to transform or score a description.
type ScoringFailure struct {
	Err      error
	RecordID string
	Stage    string
}

// NewScoringFailure wraps err as a failure of the given stage for recordID.
func NewScoringFailure(recordID, stage string, err error) *ScoringFailure {
	return &ScoringFailure{RecordID: recordID, Stage: stage, Err: err}
}

func (f *ScoringFailure) Error() string {
	if f.RecordID == "" {
		return fmt.Sprintf("scoring failed at %s: %v", f.Stage, f.Err)
	}
	return fmt.Sprintf("scoring %s failed at %s: %v", f.RecordID, f.Stage, f.Err)
}

func (f *ScoringFailure) Unwrap() error {
	return f.Err
}

// InvalidInput returns an error wrapping ErrInvalidInput with a field-specific message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Upstream returns an error wrapping ErrUpstreamUnavailable.
func Upstream(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, fmt.Sprintf(format, args...))
}
