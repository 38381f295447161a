package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/application/pipeline"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/port"
)

// BatchProcessor runs the fetch-then-score pipeline.
type BatchProcessor interface {
	Process(ctx context.Context, req dto.BatchRequest) (*pipeline.Batch, error)
}

// ScoreLatest is the use case for scoring recently published records.
// Survivors are handed to the optional repository and publisher afterwards;
// neither can change the returned result.
type ScoreLatest struct {
	pipeline  BatchProcessor
	repo      port.ScoredRecordRepository
	publisher port.EventPublisher
	logger    *slog.Logger
	apiKey    string
}

// NewScoreLatest creates a new ScoreLatest use case. repo and publisher may be nil.
// apiKey is used when a request does not carry its own.
func NewScoreLatest(
	processor BatchProcessor,
	repo port.ScoredRecordRepository,
	publisher port.EventPublisher,
	apiKey string,
	logger *slog.Logger,
) *ScoreLatest {
	return &ScoreLatest{
		pipeline:  processor,
		repo:      repo,
		publisher: publisher,
		apiKey:    apiKey,
		logger:    logger,
	}
}

// Execute fetches, scores and records the latest records.
func (uc *ScoreLatest) Execute(ctx context.Context, req dto.BatchRequest) (dto.BatchResult, error) {
	if req.APIKey == "" {
		req.APIKey = uc.apiKey
	}
	if req.APIKey == "" {
		uc.logger.Warn("NVD_API_KEY not set, feed requests are rate limited")
	}

	batch, err := uc.pipeline.Process(ctx, req)
	if err != nil {
		return dto.BatchResult{}, fmt.Errorf("failed to score latest records: %w", err)
	}

	uc.record(ctx, batch.Records)
	return batch.Result, nil
}

// record persists survivors and publishes their events. Failures are logged only.
func (uc *ScoreLatest) record(ctx context.Context, records []*model.ScoredRecord) {
	var saveFailures, publishFailures int
	for _, r := range records {
		if uc.repo != nil {
			if err := uc.repo.Save(ctx, r); err != nil {
				saveFailures++
				uc.logger.Warn("failed to persist scored record", "cve_id", r.ID(), "error", err)
			}
		}

		events := r.DomainEvents()
		if uc.publisher == nil || len(events) == 0 {
			continue
		}
		payload := make([]interface{}, len(events))
		for i, e := range events {
			payload[i] = e
		}
		if err := uc.publisher.Publish(ctx, payload...); err != nil {
			publishFailures++
			uc.logger.Warn("failed to publish events", "cve_id", r.ID(), "error", err)
		}
	}

	if saveFailures > 0 || publishFailures > 0 {
		uc.logger.Error("batch sinks degraded",
			"records", len(records),
			"save_failures", saveFailures,
			"publish_failures", publishFailures,
		)
	}
}
