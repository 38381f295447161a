package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/vulntriage/internal/domain/errs"
	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/service"
)

// --- Mocks ---

type mockTransformer struct {
	transformFunc func(text string) (model.FeatureVector, error)
}

func (m *mockTransformer) Transform(text string) (model.FeatureVector, error) {
	if m.transformFunc != nil {
		return m.transformFunc(text)
	}
	return model.NewFeatureVector([]float64{0.1, 0.2}), nil
}

type mockClassifier struct {
	probabilityFunc func(v model.FeatureVector) (float64, error)
}

func (m *mockClassifier) PositiveProbability(v model.FeatureVector) (float64, error) {
	if m.probabilityFunc != nil {
		return m.probabilityFunc(v)
	}
	return 0.5, nil
}

type mockNovelty struct {
	predictFunc  func(v model.FeatureVector) (int, error)
	decisionFunc func(v model.FeatureVector) (float64, error)
}

func (m *mockNovelty) Predict(v model.FeatureVector) (int, error) {
	if m.predictFunc != nil {
		return m.predictFunc(v)
	}
	return 1, nil
}

func (m *mockNovelty) DecisionFunction(v model.FeatureVector) (float64, error) {
	if m.decisionFunc != nil {
		return m.decisionFunc(v)
	}
	return 0.05, nil
}

func record(id string) model.VulnerabilityRecord {
	return model.VulnerabilityRecord{ID: id, Description: "buffer overflow in parser", Published: time.Now().UTC()}
}

// --- Tests ---

func TestConstructors_NilHandles(t *testing.T) {
	_, err := service.NewRiskScorer(nil)
	assert.ErrorIs(t, err, errs.ErrArtifactUnavailable)

	_, err = service.NewAnomalyDetector(nil)
	assert.ErrorIs(t, err, errs.ErrArtifactUnavailable)

	_, err = service.NewScorer(nil, &mockClassifier{}, &mockNovelty{})
	assert.ErrorIs(t, err, errs.ErrArtifactUnavailable)
	_, err = service.NewScorer(&mockTransformer{}, nil, &mockNovelty{})
	assert.ErrorIs(t, err, errs.ErrArtifactUnavailable)
	_, err = service.NewScorer(&mockTransformer{}, &mockClassifier{}, nil)
	assert.ErrorIs(t, err, errs.ErrArtifactUnavailable)
}

func TestRiskScorer_Tiers(t *testing.T) {
	tests := []struct {
		name           string
		p              float64
		wantTier       string
		wantConfidence float64
	}{
		{"exactly high threshold", 0.70, "HIGH", 0.70},
		{"just below high", 0.6999, "MEDIUM", 0.6999},
		{"exactly medium threshold", 0.40, "MEDIUM", 0.40},
		{"just below medium", 0.3999, "LOW", 0.6001},
		{"zero", 0, "LOW", 1},
		{"one", 1, "HIGH", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			scorer, err := service.NewRiskScorer(&mockClassifier{
				probabilityFunc: func(model.FeatureVector) (float64, error) { return p, nil },
			})
			require.NoError(t, err)

			v, err := scorer.ScoreRisk(model.NewFeatureVector([]float64{1}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, v.Tier.String())
			assert.InDelta(t, tt.wantConfidence, v.Confidence, 1e-9)
		})
	}
}

func TestRiskScorer_ClassifierError(t *testing.T) {
	scorer, err := service.NewRiskScorer(&mockClassifier{
		probabilityFunc: func(model.FeatureVector) (float64, error) { return 0, errors.New("dimension mismatch") },
	})
	require.NoError(t, err)

	_, err = scorer.ScoreRisk(model.NewFeatureVector(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestAnomalyDetector_FlagFollowsLabel(t *testing.T) {
	tests := []struct {
		name          string
		label         int
		score         float64
		wantAnomalous bool
	}{
		{"outlier", -1, -0.12, true},
		{"inlier", 1, 0.08, false},
		{"inlier with negative score", 1, -0.01, false},
		{"outlier with positive score", -1, 0.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, score := tt.label, tt.score
			detector, err := service.NewAnomalyDetector(&mockNovelty{
				predictFunc:  func(model.FeatureVector) (int, error) { return label, nil },
				decisionFunc: func(model.FeatureVector) (float64, error) { return score, nil },
			})
			require.NoError(t, err)

			v, err := detector.DetectAnomaly(model.NewFeatureVector([]float64{1}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnomalous, v.Anomalous)
			assert.Equal(t, score, v.Score, "score must be passed through unmodified")
		})
	}
}

func TestScorer_Score(t *testing.T) {
	scorer, err := service.NewScorer(
		&mockTransformer{},
		&mockClassifier{probabilityFunc: func(model.FeatureVector) (float64, error) { return 0.82, nil }},
		&mockNovelty{
			predictFunc:  func(model.FeatureVector) (int, error) { return -1, nil },
			decisionFunc: func(model.FeatureVector) (float64, error) { return -0.03, nil },
		},
	)
	require.NoError(t, err)

	scored, err := scorer.Score(record("CVE-2024-1111"))
	require.NoError(t, err)
	assert.Equal(t, "CVE-2024-1111", scored.ID())
	assert.Equal(t, "HIGH", scored.Tier().String())
	assert.InDelta(t, 0.82, scored.Confidence(), 1e-9)
	assert.True(t, scored.Anomalous())
	assert.Equal(t, -0.03, scored.AnomalyScore())
	assert.False(t, scored.ScoredAt().IsZero())
}

func TestScorer_FailureStages(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name        string
		transformer *mockTransformer
		classifier  *mockClassifier
		novelty     *mockNovelty
		wantStage   string
	}{
		{
			name: "transform",
			transformer: &mockTransformer{transformFunc: func(string) (model.FeatureVector, error) {
				return model.FeatureVector{}, boom
			}},
			classifier: &mockClassifier{},
			novelty:    &mockNovelty{},
			wantStage:  errs.StageTransform,
		},
		{
			name:        "risk",
			transformer: &mockTransformer{},
			classifier: &mockClassifier{probabilityFunc: func(model.FeatureVector) (float64, error) {
				return 0, boom
			}},
			novelty:   &mockNovelty{},
			wantStage: errs.StageRisk,
		},
		{
			name:        "anomaly predict",
			transformer: &mockTransformer{},
			classifier:  &mockClassifier{},
			novelty: &mockNovelty{predictFunc: func(model.FeatureVector) (int, error) {
				return 0, boom
			}},
			wantStage: errs.StageAnomaly,
		},
		{
			name:        "anomaly decision",
			transformer: &mockTransformer{},
			classifier:  &mockClassifier{},
			novelty: &mockNovelty{decisionFunc: func(model.FeatureVector) (float64, error) {
				return 0, boom
			}},
			wantStage: errs.StageAnomaly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer, err := service.NewScorer(tt.transformer, tt.classifier, tt.novelty)
			require.NoError(t, err)

			_, err = scorer.Score(record("CVE-2024-2222"))
			require.Error(t, err)

			var failure *errs.ScoringFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, "CVE-2024-2222", failure.RecordID)
			assert.Equal(t, tt.wantStage, failure.Stage)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestScorer_ScoreTextDeterministic(t *testing.T) {
	scorer, err := service.NewScorer(&mockTransformer{}, &mockClassifier{}, &mockNovelty{})
	require.NoError(t, err)

	r1, a1, err := scorer.ScoreText("SQL injection in login form")
	require.NoError(t, err)
	r2, a2, err := scorer.ScoreText("SQL injection in login form")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, a1, a2)
}
