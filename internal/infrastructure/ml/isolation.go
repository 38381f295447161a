package ml

import (
	"fmt"
	"math"

	"github.com/bibbank/vulntriage/internal/domain/model"
	"github.com/bibbank/vulntriage/internal/domain/valueobject"
)

const eulerGamma = 0.5772156649015329

type isolationTree struct {
	decisionTree
	NNodeSamples []int `json:"n_node_samples"`
	// Features maps tree feature indices into the full vector when the tree
	// was fitted on a feature subset.
	Features []int `json:"features,omitempty"`
}

// IsolationForest is a fitted isolation forest exported as JSON.
// It implements port.NoveltyModel.
type IsolationForest struct {
	Version    string          `json:"version"`
	Trees      []isolationTree `json:"trees"`
	NFeatures  int             `json:"n_features"`
	MaxSamples int             `json:"max_samples"`
	Offset     float64         `json:"offset"`

	normalizer float64
}

func (f *IsolationForest) init() error {
	if f.NFeatures <= 0 {
		return fmt.Errorf("n_features must be positive")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if f.MaxSamples < 2 {
		return fmt.Errorf("max_samples must be at least 2, got %d", f.MaxSamples)
	}
	for i := range f.Trees {
		t := &f.Trees[i]
		treeFeatures := f.NFeatures
		if t.Features != nil {
			treeFeatures = len(t.Features)
			for _, idx := range t.Features {
				if idx < 0 || idx >= f.NFeatures {
					return fmt.Errorf("tree %d: feature index %d outside [0,%d)", i, idx, f.NFeatures)
				}
			}
		}
		if err := t.validate(treeFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
		if len(t.NNodeSamples) != t.nodeCount() {
			return fmt.Errorf("tree %d: n_node_samples has %d entries for %d nodes", i, len(t.NNodeSamples), t.nodeCount())
		}
	}
	f.normalizer = averagePathLength(f.MaxSamples)
	return nil
}

// ScoreSamples returns the raw anomaly score in [-1, 0); lower is more abnormal.
func (f *IsolationForest) ScoreSamples(vector model.FeatureVector) (float64, error) {
	if vector.Dim() != f.NFeatures {
		return 0, fmt.Errorf("vector has dimension %d, novelty model expects %d", vector.Dim(), f.NFeatures)
	}

	var depths float64
	for i := range f.Trees {
		t := &f.Trees[i]
		leaf, depth := t.apply(vector, t.Features)
		depths += float64(depth) + averagePathLength(t.NNodeSamples[leaf])
	}
	mean := depths / float64(len(f.Trees))
	return -math.Pow(2, -mean/f.normalizer), nil
}

// DecisionFunction returns the score shifted by the fitted offset; negative means outlier.
func (f *IsolationForest) DecisionFunction(vector model.FeatureVector) (float64, error) {
	score, err := f.ScoreSamples(vector)
	if err != nil {
		return 0, err
	}
	return score - f.Offset, nil
}

// Predict returns -1 for outliers and 1 for inliers.
func (f *IsolationForest) Predict(vector model.FeatureVector) (int, error) {
	decision, err := f.DecisionFunction(vector)
	if err != nil {
		return 0, err
	}
	if decision < 0 {
		return valueobject.OutlierLabel, nil
	}
	return 1, nil
}

// averagePathLength is the expected path length of an unsuccessful search in a
// binary search tree built from n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}
