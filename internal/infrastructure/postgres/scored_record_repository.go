package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/valueobject"
	"github.com/bibbank/vulntriage/pkg/postgres"
)

const selectColumns = `
	SELECT cve_id, description, published_at,
		risk_tier, confidence, probability,
		anomalous, anomaly_score, scored_at
	FROM scored_records
`

// ScoredRecordRepository implements port.ScoredRecordRepository using PostgreSQL.
type ScoredRecordRepository struct {
	pool *pgxpool.Pool
}

// NewScoredRecordRepository creates a new PostgreSQL-backed scored record repository.
func NewScoredRecordRepository(pool *pgxpool.Pool) *ScoredRecordRepository {
	return &ScoredRecordRepository{pool: pool}
}

// Save upserts the latest score for a record and appends it to the record's
// history. Both writes commit together.
func (r *ScoredRecordRepository) Save(ctx context.Context, record *model.ScoredRecord) error {
	return saveScored(ctx, r.pool, record)
}

func saveScored(ctx context.Context, db postgres.TxBeginner, record *model.ScoredRecord) error {
	err := postgres.WithTransaction(ctx, db, func(q postgres.Querier) error {
		if err := upsertLatest(ctx, q, record); err != nil {
			return err
		}
		return appendHistory(ctx, q, record)
	}, postgres.WithIsolation(pgx.ReadCommitted))
	if err != nil {
		return fmt.Errorf("failed to save scored record %s: %w", record.ID(), err)
	}
	return nil
}

func upsertLatest(ctx context.Context, q postgres.Querier, record *model.ScoredRecord) error {
	var published *time.Time
	if p := record.Published(); !p.IsZero() {
		published = &p
	}

	_, err := q.Exec(ctx, `
		INSERT INTO scored_records (
			cve_id, description, published_at,
			risk_tier, confidence, probability,
			anomalous, anomaly_score, scored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (cve_id) DO UPDATE SET
			description = EXCLUDED.description,
			published_at = EXCLUDED.published_at,
			risk_tier = EXCLUDED.risk_tier,
			confidence = EXCLUDED.confidence,
			probability = EXCLUDED.probability,
			anomalous = EXCLUDED.anomalous,
			anomaly_score = EXCLUDED.anomaly_score,
			scored_at = EXCLUDED.scored_at,
			updated_at = NOW()
	`,
		record.ID(),
		record.Description(),
		published,
		record.Tier().String(),
		record.Confidence(),
		record.Probability(),
		record.Anomalous(),
		record.AnomalyScore(),
		record.ScoredAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert latest score: %w", err)
	}
	return nil
}

func appendHistory(ctx context.Context, q postgres.Querier, record *model.ScoredRecord) error {
	_, err := q.Exec(ctx, `
		INSERT INTO score_history (cve_id, risk_tier, confidence, anomalous, anomaly_score, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		record.ID(),
		record.Tier().String(),
		record.Confidence(),
		record.Anomalous(),
		record.AnomalyScore(),
		record.ScoredAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to append score history: %w", err)
	}
	return nil
}

// FindByID retrieves the latest score for a record identifier.
func (r *ScoredRecordRepository) FindByID(ctx context.Context, id string) (*model.ScoredRecord, error) {
	record, err := scanScoredRecord(r.pool.QueryRow(ctx, selectColumns+` WHERE cve_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scored record %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecent returns up to limit records ordered by scoring time, newest first.
func (r *ScoredRecordRepository) ListRecent(ctx context.Context, limit int) ([]*model.ScoredRecord, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` ORDER BY scored_at DESC, cve_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scored records: %w", err)
	}
	defer rows.Close()

	records := make([]*model.ScoredRecord, 0, limit)
	for rows.Next() {
		record, err := scanScoredRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scored records: %w", err)
	}

	return records, nil
}

// scanScoredRecord reads one row in selectColumns order. pgx.ErrNoRows is returned unwrapped.
func scanScoredRecord(row pgx.Row) (*model.ScoredRecord, error) {
	var (
		id           string
		description  string
		publishedAt  *time.Time
		tierStr      string
		confidence   float64
		probability  float64
		anomalous    bool
		anomalyScore float64
		scoredAt     time.Time
	)

	err := row.Scan(
		&id, &description, &publishedAt,
		&tierStr, &confidence, &probability,
		&anomalous, &anomalyScore, &scoredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan scored record: %w", err)
	}

	tier, err := valueobject.RiskTierFromString(tierStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse risk tier: %w", err)
	}

	var published time.Time
	if publishedAt != nil {
		published = publishedAt.UTC()
	}

	return model.ReconstructScoredRecord(
		id, description, published,
		tier, confidence, probability,
		anomalous, anomalyScore, scoredAt.UTC(),
	), nil
}
