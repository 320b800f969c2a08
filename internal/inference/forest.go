package inference

import (
	"fmt"
)

// Classifier produces per-class probabilities for a numeric feature vector.
// The production implementation is Forest; tests substitute stubs.
type Classifier interface {
	PredictProba(features []float64) ([]float64, error)
	Predict(features []float64) (int, error)
	NumFeatures() int
	Classes() []string
}

// Tree is a single decision tree in scikit-learn's flat-array layout. Nodes
// are addressed by index; a node with LeftChild < 0 is a leaf whose Value row
// holds per-class training sample counts.
type Tree struct {
	Feature    []int       `json:"feature"`
	Threshold  []float64   `json:"threshold"`
	LeftChild  []int       `json:"children_left"`
	RightChild []int       `json:"children_right"`
	Value      [][]float64 `json:"value"`
}

// Forest is a random forest classifier reconstructed from a serialized
// artifact. Prediction averages the per-tree class distributions, matching
// scikit-learn's soft voting.
type Forest struct {
	Trees        []Tree   `json:"trees"`
	FeatureCount int      `json:"n_features"`
	ClassLabels  []string `json:"classes"`
	Version      string   `json:"version"`
}

func (f *Forest) NumFeatures() int {
	return f.FeatureCount
}

func (f *Forest) Classes() []string {
	return f.ClassLabels
}

// PredictProba returns the mean of the normalized leaf distributions across
// all trees. The result has one entry per class, in ClassLabels order.
func (f *Forest) PredictProba(features []float64) ([]float64, error) {
	if len(features) != f.FeatureCount {
		return nil, fmt.Errorf("feature vector has %d values, model expects %d", len(features), f.FeatureCount)
	}
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}

	proba := make([]float64, len(f.ClassLabels))
	for ti := range f.Trees {
		leaf, err := f.Trees[ti].traverse(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
		total := 0.0
		for _, v := range leaf {
			total += v
		}
		if total <= 0 {
			return nil, fmt.Errorf("tree %d: empty leaf distribution", ti)
		}
		for ci, v := range leaf {
			proba[ci] += v / total
		}
	}
	n := float64(len(f.Trees))
	for ci := range proba {
		proba[ci] /= n
	}
	return proba, nil
}

// Predict returns the index of the most probable class.
func (f *Forest) Predict(features []float64) (int, error) {
	proba, err := f.PredictProba(features)
	if err != nil {
		return 0, err
	}
	best := 0
	for ci := 1; ci < len(proba); ci++ {
		if proba[ci] > proba[best] {
			best = ci
		}
	}
	return best, nil
}

// validate checks the structural integrity of a loaded forest before it is
// put into service.
func (f *Forest) validate() error {
	if f.FeatureCount <= 0 {
		return fmt.Errorf("invalid feature count %d", f.FeatureCount)
	}
	if len(f.ClassLabels) < 2 {
		return fmt.Errorf("forest declares %d classes, need at least 2", len(f.ClassLabels))
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for ti, t := range f.Trees {
		n := len(t.Feature)
		if len(t.Threshold) != n || len(t.LeftChild) != n || len(t.RightChild) != n || len(t.Value) != n {
			return fmt.Errorf("tree %d: node arrays have mismatched lengths", ti)
		}
		for ni := 0; ni < n; ni++ {
			if t.LeftChild[ni] >= n || t.RightChild[ni] >= n {
				return fmt.Errorf("tree %d: node %d child out of range", ti, ni)
			}
			if t.LeftChild[ni] < 0 && len(t.Value[ni]) != len(f.ClassLabels) {
				return fmt.Errorf("tree %d: leaf %d has %d class counts, want %d", ti, ni, len(t.Value[ni]), len(f.ClassLabels))
			}
			if t.LeftChild[ni] >= 0 && (t.Feature[ni] < 0 || t.Feature[ni] >= f.FeatureCount) {
				return fmt.Errorf("tree %d: node %d splits on feature %d, model has %d", ti, ni, t.Feature[ni], f.FeatureCount)
			}
		}
	}
	return nil
}

func (t *Tree) traverse(features []float64) ([]float64, error) {
	node := 0
	for steps := 0; steps <= len(t.Feature); steps++ {
		if t.LeftChild[node] < 0 {
			return t.Value[node], nil
		}
		if features[t.Feature[node]] <= t.Threshold[node] {
			node = t.LeftChild[node]
		} else {
			node = t.RightChild[node]
		}
	}
	return nil, fmt.Errorf("traversal exceeded node count, tree is cyclic")
}

var _ Classifier = (*Forest)(nil)
