package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/application/pipeline"
	"github.com/bibbank/vulntriage/internal/application/usecase"
	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/valueobject"
)

// --- Mock implementations ---

type mockTextScorer struct {
	err error
}

func (m *mockTextScorer) ScoreText(string) (model.RiskVerdict, model.AnomalyVerdict, error) {
	if m.err != nil {
		return model.RiskVerdict{}, model.AnomalyVerdict{}, m.err
	}
	risk, _ := model.NewRiskVerdict(0.82)
	anomaly, _ := model.NewAnomalyVerdict(1, 0.11)
	return risk, anomaly, nil
}

type mockProcessor struct {
	lastReq dto.BatchRequest
	batch   *pipeline.Batch
	err     error
}

func (m *mockProcessor) Process(_ context.Context, req dto.BatchRequest) (*pipeline.Batch, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.batch, nil
}

type mockRepo struct {
	records map[string]*model.ScoredRecord
}

func (m *mockRepo) Save(_ context.Context, r *model.ScoredRecord) error {
	m.records[r.ID()] = r
	return nil
}

func (m *mockRepo) FindByID(_ context.Context, id string) (*model.ScoredRecord, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("scored record %s: %w", id, errs.ErrNotFound)
}

func (m *mockRepo) ListRecent(_ context.Context, limit int) ([]*model.ScoredRecord, error) {
	out := make([]*model.ScoredRecord, 0, limit)
	for _, r := range m.records {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	scorer    *mockTextScorer
	processor *mockProcessor
	repo      *mockRepo
	handler   *TriageServiceHandler
}

func newFixture() *fixture {
	f := &fixture{
		scorer: &mockTextScorer{},
		processor: &mockProcessor{batch: &pipeline.Batch{Result: dto.BatchResult{
			Predictions: []dto.RecordPrediction{{CVEID: "CVE-2024-0001", Risk: "HIGH", Confidence: 0.9}},
			Failed:      []dto.FailedRecord{{ID: "CVE-2024-0002", Stage: errs.StageTransform, Reason: "empty"}},
			Fetched:     2,
		}}},
		repo: &mockRepo{records: map[string]*model.ScoredRecord{
			"CVE-2024-0100": model.ReconstructScoredRecord("CVE-2024-0100", "desc",
				time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), valueobject.RiskTierMedium,
				0.5, 0.5, true, -0.01, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)),
		}},
	}
	logger := testLogger()
	f.handler = NewTriageServiceHandler(
		usecase.NewScoreDescription(f.scorer, logger),
		usecase.NewScoreLatest(f.processor, f.repo, nil, "", logger),
		usecase.NewGetRecord(f.repo),
		usecase.NewGetMeta([]dto.ArtifactVersion{{Name: "vectorizer", Version: "v3"}}),
		logger,
	)
	return f
}

func requireGRPCCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %v", err)
	assert.Equal(t, code, st.Code())
}

// --- Tests ---

func TestScoreDescription(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		_, err := newFixture().handler.ScoreDescription(context.Background(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("short description returns InvalidArgument", func(t *testing.T) {
		_, err := newFixture().handler.ScoreDescription(context.Background(), &ScoreDescriptionRequest{Description: "too short"})
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "description must be at least 20 characters")
	})

	t.Run("scores description", func(t *testing.T) {
		resp, err := newFixture().handler.ScoreDescription(context.Background(), &ScoreDescriptionRequest{
			Description: "SQL injection in the login form allows authentication bypass",
		})
		require.NoError(t, err)
		assert.Equal(t, "HIGH", resp.Risk)
		assert.Equal(t, 0.82, resp.Confidence)
		assert.False(t, resp.Anomalous)
		assert.Equal(t, 0.11, resp.AnomalyScore)
	})

	t.Run("scoring failure returns Internal with stage", func(t *testing.T) {
		f := newFixture()
		f.scorer.err = errs.NewScoringFailure("", errs.StageAnomaly, errors.New("bad tree"))
		_, err := f.handler.ScoreDescription(context.Background(), &ScoreDescriptionRequest{
			Description: "SQL injection in the login form allows authentication bypass",
		})
		requireGRPCCode(t, err, codes.Internal)
		assert.Contains(t, err.Error(), "scoring failed at anomaly")
		assert.NotContains(t, err.Error(), "bad tree")
	})
}

func TestScoreLatest(t *testing.T) {
	t.Run("zero values take defaults", func(t *testing.T) {
		f := newFixture()
		resp, err := f.handler.ScoreLatest(context.Background(), &ScoreLatestRequest{})
		require.NoError(t, err)
		assert.Equal(t, dto.DefaultDaysBack, f.processor.lastReq.DaysBack)
		assert.Equal(t, dto.DefaultMaxResults, f.processor.lastReq.MaxResults)

		assert.Equal(t, int32(2), resp.Fetched)
		require.Len(t, resp.Predictions, 1)
		assert.Equal(t, "CVE-2024-0001", resp.Predictions[0].CVEID)
		require.Len(t, resp.Failed, 1)
		assert.Equal(t, errs.StageTransform, resp.Failed[0].Stage)
	})

	t.Run("explicit values pass through", func(t *testing.T) {
		f := newFixture()
		_, err := f.handler.ScoreLatest(context.Background(), &ScoreLatestRequest{DaysBack: 7, MaxResults: 50})
		require.NoError(t, err)
		assert.Equal(t, 7, f.processor.lastReq.DaysBack)
		assert.Equal(t, 50, f.processor.lastReq.MaxResults)
	})

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"invalid input", errs.InvalidInput("days_back must be <= 30, got 31"), codes.InvalidArgument},
		{"upstream", errs.Upstream("NVD returned 503"), codes.Unavailable},
		{"canceled", context.Canceled, codes.Canceled},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"unknown", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.processor.err = tt.err
			_, err := f.handler.ScoreLatest(context.Background(), &ScoreLatestRequest{DaysBack: 3, MaxResults: 10})
			requireGRPCCode(t, err, tt.code)
		})
	}
}

func TestGetRecord(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		resp, err := newFixture().handler.GetRecord(context.Background(), &GetRecordRequest{CVEID: "CVE-2024-0100"})
		require.NoError(t, err)
		assert.Equal(t, "MEDIUM", resp.Record.Risk)
		assert.Equal(t, valueobject.AnomalyStatusAnomalous.String(), resp.Record.AnomalyStatus)
		assert.Equal(t, "2024-05-01T00:00:00Z", resp.Record.Published)
		assert.Equal(t, "2024-05-02T09:00:00Z", resp.Record.ScoredAt)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := newFixture().handler.GetRecord(context.Background(), &GetRecordRequest{CVEID: "CVE-1999-0001"})
		requireGRPCCode(t, err, codes.NotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := newFixture().handler.GetRecord(context.Background(), &GetRecordRequest{})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})
}

func TestListRecords(t *testing.T) {
	resp, err := newFixture().handler.ListRecords(context.Background(), &ListRecordsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)

	_, err = newFixture().handler.ListRecords(context.Background(), &ListRecordsRequest{Limit: 1000})
	requireGRPCCode(t, err, codes.InvalidArgument)
}

func TestGetMeta(t *testing.T) {
	resp, err := newFixture().handler.GetMeta(context.Background(), &GetMetaRequest{})
	require.NoError(t, err)
	assert.Equal(t, "RandomForest CVE Risk Classifier", resp.ModelName)
	assert.Equal(t, []string{"HIGH", "MEDIUM", "LOW"}, resp.RiskLevels)
	require.Len(t, resp.Tiers, 3)
	require.Len(t, resp.Artifacts, 1)
	assert.Equal(t, "v3", resp.Artifacts[0].Version)
}
