package ml

import (
	"fmt"

	"github.com/bibbank/vulntriage/internal/domain/model"
)

type classifierTree struct {
	decisionTree
	// Value holds the per-class weight of each node.
	Value [][]float64 `json:"value"`
}

// RandomForest is a fitted random-forest binary classifier exported as JSON.
// It implements port.RiskClassifier.
type RandomForest struct {
	Version       string           `json:"version"`
	Classes       []int            `json:"classes"`
	Trees         []classifierTree `json:"trees"`
	NFeatures     int              `json:"n_features"`
	PositiveClass int              `json:"positive_class"`

	positiveIndex int
}

func (f *RandomForest) init() error {
	if f.NFeatures <= 0 {
		return fmt.Errorf("n_features must be positive")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	f.positiveIndex = -1
	for i, c := range f.Classes {
		if c == f.PositiveClass {
			f.positiveIndex = i
		}
	}
	if f.positiveIndex < 0 {
		return fmt.Errorf("positive class %d not in classes %v", f.PositiveClass, f.Classes)
	}
	for i := range f.Trees {
		t := &f.Trees[i]
		if err := t.validate(f.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
		if len(t.Value) != t.nodeCount() {
			return fmt.Errorf("tree %d: value has %d rows for %d nodes", i, len(t.Value), t.nodeCount())
		}
		for n, row := range t.Value {
			if len(row) != len(f.Classes) {
				return fmt.Errorf("tree %d: node %d has %d class weights, want %d", i, n, len(row), len(f.Classes))
			}
		}
	}
	return nil
}

// PositiveProbability averages the leaf class distribution of every tree.
func (f *RandomForest) PositiveProbability(vector model.FeatureVector) (float64, error) {
	if vector.Dim() != f.NFeatures {
		return 0, fmt.Errorf("vector has dimension %d, classifier expects %d", vector.Dim(), f.NFeatures)
	}

	var sum float64
	for i := range f.Trees {
		t := &f.Trees[i]
		leaf, _ := t.apply(vector, nil)
		weights := t.Value[leaf]

		var total float64
		for _, w := range weights {
			total += w
		}
		if total > 0 {
			sum += weights[f.positiveIndex] / total
		}
	}
	return sum / float64(len(f.Trees)), nil
}
