package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/domain/model"
)

// TextScorer scores a free-text description.
type TextScorer interface {
	ScoreText(text string) (model.RiskVerdict, model.AnomalyVerdict, error)
}

// ScoreDescription is the use case for scoring one free-text description
// synchronously, without touching the feed.
type ScoreDescription struct {
	scorer TextScorer
	logger *slog.Logger
}

// NewScoreDescription creates a new ScoreDescription use case.
func NewScoreDescription(scorer TextScorer, logger *slog.Logger) *ScoreDescription {
	return &ScoreDescription{scorer: scorer, logger: logger}
}

// Execute returns the risk tier, confidence and anomaly read-outs for text.
// Any failure is a single failure of the call.
func (uc *ScoreDescription) Execute(ctx context.Context, text string) (dto.ScoreResponse, error) {
	if err := ctx.Err(); err != nil {
		return dto.ScoreResponse{}, err
	}

	risk, anomaly, err := uc.scorer.ScoreText(text)
	if err != nil {
		return dto.ScoreResponse{}, fmt.Errorf("failed to score description: %w", err)
	}

	resp, err := dto.NewScoreResponse(risk, anomaly)
	if err != nil {
		return dto.ScoreResponse{}, fmt.Errorf("failed to normalize score: %w", err)
	}

	uc.logger.Debug("scored description",
		"risk", resp.Risk,
		"confidence", resp.Confidence,
		"anomalous", resp.Anomalous,
	)
	return resp, nil
}
