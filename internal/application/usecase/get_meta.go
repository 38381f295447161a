package usecase

import (
	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/domain/valueobject"
)

const (
	modelName  = "RandomForest CVE Risk Classifier"
	apiVersion = "1.0.0"
)

var features = []string{
	"TF-IDF text vectorization",
	"Binary classification with probability mapping",
	"Isolation Forest anomaly detection",
	"Real-time NVD CVE ingestion",
}

// GetMeta is the use case describing the loaded models and tier bands.
type GetMeta struct {
	artifacts []dto.ArtifactVersion
}

// NewGetMeta creates a new GetMeta use case.
func NewGetMeta(artifacts []dto.ArtifactVersion) *GetMeta {
	return &GetMeta{artifacts: artifacts}
}

// Execute returns the model metadata.
func (uc *GetMeta) Execute() dto.MetaResponse {
	tiers := valueobject.RiskTiers()
	resp := dto.MetaResponse{
		ModelName:  modelName,
		Version:    apiVersion,
		RiskLevels: make([]string, 0, len(tiers)),
		Tiers:      make([]dto.TierInfo, 0, len(tiers)),
		Artifacts:  append([]dto.ArtifactVersion{}, uc.artifacts...),
		Features:   append([]string{}, features...),
	}
	for _, t := range tiers {
		resp.RiskLevels = append(resp.RiskLevels, t.String())
		resp.Tiers = append(resp.Tiers, dto.TierInfo{Name: t.String(), Threshold: t.Threshold()})
	}
	return resp
}
