package ml

import (
	"fmt"

	"github.com/bibbank/vulntriage/internal/domain/model"
)

const leafNode = -1

// decisionTree is the flat array layout of a fitted binary tree. Node 0 is the root;
// a node whose left child is -1 is a leaf.
type decisionTree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
}

func (t *decisionTree) nodeCount() int {
	return len(t.ChildrenLeft)
}

func (t *decisionTree) validate(nFeatures int) error {
	n := t.nodeCount()
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n {
		return fmt.Errorf("tree arrays have inconsistent lengths")
	}
	for i := 0; i < n; i++ {
		if t.ChildrenLeft[i] == leafNode {
			continue
		}
		if t.ChildrenLeft[i] <= i || t.ChildrenLeft[i] >= n || t.ChildrenRight[i] <= i || t.ChildrenRight[i] >= n {
			return fmt.Errorf("node %d has out-of-range children", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d outside [0,%d)", i, t.Feature[i], nFeatures)
		}
	}
	return nil
}

// apply walks the tree for x and returns the reached leaf and its depth in edges.
// featureMap, when non-nil, translates tree feature indices into vector indices.
// Split comparisons are done in float32 to match how the trees were fitted.
func (t *decisionTree) apply(x model.FeatureVector, featureMap []int) (leaf, depth int) {
	node := 0
	for t.ChildrenLeft[node] != leafNode {
		f := t.Feature[node]
		if featureMap != nil {
			f = featureMap[f]
		}
		if float64(float32(x.At(f))) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
		depth++
	}
	return node, depth
}
