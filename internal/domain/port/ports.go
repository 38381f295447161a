package port

import (
	"context"

	"github.com/bibbank/vulntriage/internal/domain/model"
)

// FeatureTransformer maps free text to the fixed-dimension vector the
// scoring models were trained on.
type FeatureTransformer interface {
	Transform(text string) (model.FeatureVector, error)
}

// RiskClassifier is a pretrained binary classifier.
type RiskClassifier interface {
	// PositiveProbability returns P(high risk | vector).
	PositiveProbability(vector model.FeatureVector) (float64, error)
}

// NoveltyModel is a pretrained novelty detector.
type NoveltyModel interface {
	// Predict returns the raw label; -1 marks an outlier.
	Predict(vector model.FeatureVector) (int, error)

	// DecisionFunction returns the continuous score; lower is more anomalous.
	DecisionFunction(vector model.FeatureVector) (float64, error)
}

// FeedQuery bounds a single request to the vulnerability feed.
type FeedQuery struct {
	APIKey     string
	DaysBack   int
	MaxResults int
}

// FeedPage is one page of the feed. Returned counts every item the feed sent,
// including those dropped before scoring, so it can exceed len(Records).
type FeedPage struct {
	Records  []model.VulnerabilityRecord
	Returned int
}

// FeedClient fetches recently published vulnerability records.
type FeedClient interface {
	// Fetch returns records published within the query window, in feed order.
	// Records without an English description are already excluded.
	Fetch(ctx context.Context, query FeedQuery) (FeedPage, error)
}

// ScoredRecordRepository defines the persistence port for scored records.
type ScoredRecordRepository interface {
	// Save upserts a scored record by its identifier.
	Save(ctx context.Context, record *model.ScoredRecord) error

	// FindByID retrieves the latest score for a record identifier.
	FindByID(ctx context.Context, id string) (*model.ScoredRecord, error)

	// ListRecent returns the most recently scored records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*model.ScoredRecord, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, events ...interface{}) error
}
