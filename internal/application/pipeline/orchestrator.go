// Package pipeline runs the fetch-then-score batch flow with per-record
// failure isolation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/port"
)

// DefaultWorkers is the scoring pool size when none is configured.
const DefaultWorkers = 4

// Batch states, reported in logs.
const (
	StateFetching = "FETCHING"
	StateScoring  = "SCORING"
	StateDone     = "DONE"
	StateFailed   = "FAILED"
)

// RecordScorer scores one record. Implementations must be safe for concurrent use.
type RecordScorer interface {
	Score(record model.VulnerabilityRecord) (*model.ScoredRecord, error)
}

// Batch is the outcome of one pipeline run.
type Batch struct {
	// Records are the successfully scored aggregates, in feed order.
	Records []*model.ScoredRecord
	Result  dto.BatchResult
}

// Orchestrator fetches records once and scores them on a bounded worker pool.
type Orchestrator struct {
	feed    port.FeedClient
	scorer  RecordScorer
	metrics *Metrics
	logger  *slog.Logger
	workers int
}

// NewOrchestrator creates an Orchestrator. metrics may be nil.
func NewOrchestrator(feed port.FeedClient, scorer RecordScorer, workers int, metrics *Metrics, logger *slog.Logger) *Orchestrator {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Orchestrator{
		feed:    feed,
		scorer:  scorer,
		workers: workers,
		metrics: metrics,
		logger:  logger,
	}
}

// slot holds the outcome for the record at the same index. Each slot is
// written by exactly one goroutine.
type slot struct {
	scored     *model.ScoredRecord
	failure    *errs.ScoringFailure
	prediction dto.RecordPrediction
}

// Process validates the request, fetches once, and scores every record.
// A failed fetch fails the whole call; a failed record is logged and skipped.
func (o *Orchestrator) Process(ctx context.Context, req dto.BatchRequest) (*Batch, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	start := time.Now()
	logger := o.logger.With("days_back", req.DaysBack, "max_results", req.MaxResults)
	logger.Info("batch state", "state", StateFetching)

	page, err := o.feed.Fetch(ctx, port.FeedQuery{
		DaysBack:   req.DaysBack,
		MaxResults: req.MaxResults,
		APIKey:     req.APIKey,
	})
	if err != nil {
		logger.Error("batch state", "state", StateFailed, "error", err)
		o.metrics.recordDuration(ctx, start, "failed")
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	records := page.Records
	o.metrics.recordFetched(ctx, len(records))

	if len(records) == 0 {
		logger.Warn("no records fetched, returning empty result", "returned", page.Returned)
		o.metrics.recordDuration(ctx, start, "empty")
		return &Batch{Result: dto.BatchResult{
			Predictions: []dto.RecordPrediction{},
			Failed:      []dto.FailedRecord{},
			Fetched:     page.Returned,
		}}, nil
	}

	logger.Info("batch state", "state", StateScoring, "count", len(records))

	slots := make([]slot, len(records))
	var g errgroup.Group
	g.SetLimit(o.workers)

	for i := range records {
		g.Go(func() error {
			slots[i] = o.scoreOne(ctx, i, len(records), records[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Error("batch state", "state", StateFailed, "error", err)
		o.metrics.recordDuration(ctx, start, "canceled")
		return nil, fmt.Errorf("batch scoring interrupted: %w", err)
	}

	batch := assemble(records, slots, page.Returned)
	logger.Info("batch state", "state", StateDone,
		"scored", len(batch.Result.Predictions),
		"failed", len(batch.Result.Failed),
	)
	o.metrics.recordDuration(ctx, start, "done")
	return batch, nil
}

// scoreOne scores a single record and converts any error or panic into a failure.
func (o *Orchestrator) scoreOne(ctx context.Context, idx, total int, record model.VulnerabilityRecord) (out slot) {
	defer func() {
		if r := recover(); r != nil {
			out = slot{failure: errs.NewScoringFailure(record.ID, errs.StagePanic, fmt.Errorf("recovered: %v", r))}
			o.logFailure(ctx, out.failure)
		}
	}()

	if err := ctx.Err(); err != nil {
		return slot{failure: errs.NewScoringFailure(record.ID, errs.StageCanceled, err)}
	}

	o.logger.Debug("scoring record", "cve_id", record.ID, "index", idx+1, "total", total)

	scored, err := o.scorer.Score(record)
	if err == nil {
		var prediction dto.RecordPrediction
		prediction, err = dto.NewRecordPrediction(scored)
		if err == nil {
			o.metrics.recordScored(ctx, prediction.Risk)
			return slot{scored: scored, prediction: prediction}
		}
	}

	var failure *errs.ScoringFailure
	if !errors.As(err, &failure) {
		failure = errs.NewScoringFailure(record.ID, errs.StageUnknown, err)
	}
	if failure.RecordID == "" {
		failure.RecordID = record.ID
	}
	o.logFailure(ctx, failure)
	return slot{failure: failure}
}

func (o *Orchestrator) logFailure(ctx context.Context, f *errs.ScoringFailure) {
	o.metrics.recordFailed(ctx, f.Stage)
	o.logger.Error("skipping record", "cve_id", f.RecordID, "stage", f.Stage, "error", f.Err)
}

// assemble folds slots into a batch in feed order. fetched is the feed's item
// count before filtering.
func assemble(records []model.VulnerabilityRecord, slots []slot, fetched int) *Batch {
	batch := &Batch{
		Records: make([]*model.ScoredRecord, 0, len(slots)),
		Result: dto.BatchResult{
			Predictions: make([]dto.RecordPrediction, 0, len(slots)),
			Failed:      []dto.FailedRecord{},
			Fetched:     fetched,
		},
	}
	for i, s := range slots {
		if s.failure != nil {
			batch.Result.Failed = append(batch.Result.Failed, dto.FailedRecord{
				ID:     records[i].ID,
				Stage:  s.failure.Stage,
				Reason: s.failure.Err.Error(),
			})
			continue
		}
		batch.Records = append(batch.Records, s.scored)
		batch.Result.Predictions = append(batch.Result.Predictions, s.prediction)
	}
	return batch
}
