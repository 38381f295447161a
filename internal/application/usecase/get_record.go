package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/port"
)

// History listing bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// GetRecord is the use case for reading stored scores.
type GetRecord struct {
	repo port.ScoredRecordRepository
}

// NewGetRecord creates a new GetRecord use case. A nil repo means persistence
// is disabled and every lookup reports not found.
func NewGetRecord(repo port.ScoredRecordRepository) *GetRecord {
	return &GetRecord{repo: repo}
}

// Execute retrieves the latest stored score for a record identifier.
func (uc *GetRecord) Execute(ctx context.Context, id string) (dto.ScoredRecordResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dto.ScoredRecordResponse{}, errs.InvalidInput("record id is required")
	}
	if uc.repo == nil {
		return dto.ScoredRecordResponse{}, fmt.Errorf("%w: persistence disabled", errs.ErrNotFound)
	}

	record, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return dto.ScoredRecordResponse{}, fmt.Errorf("failed to find scored record: %w", err)
	}
	return dto.FromModel(record), nil
}

// List returns the most recently scored records, newest first.
// A non-positive limit uses DefaultListLimit.
func (uc *GetRecord) List(ctx context.Context, limit int) ([]dto.ScoredRecordResponse, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		return nil, errs.InvalidInput("limit must be <= %d, got %d", MaxListLimit, limit)
	}
	if uc.repo == nil {
		return []dto.ScoredRecordResponse{}, nil
	}

	records, err := uc.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scored records: %w", err)
	}

	out := make([]dto.ScoredRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.FromModel(r))
	}
	return out, nil
}
