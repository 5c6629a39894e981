package model

import (
	"fmt"
	"math"
)

// Node is one node of a regression tree, stored in a flat array. Children are
// addressed by index; child indices are always greater than the parent's, so
// a walk terminates by construction.
type Node struct {
	SplitIndex int     `json:"split_index"`
	Threshold  float64 `json:"threshold"`
	Yes        int     `json:"yes"`
	No         int     `json:"no"`
	Missing    int     `json:"missing"`
	Leaf       float64 `json:"leaf"`
	Cover      float64 `json:"cover"`
	IsLeaf     bool    `json:"is_leaf"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`

	// values[i] is the cover-weighted expected leaf value of the subtree
	// rooted at node i. Computed once at load; used by the explainer.
	values []float64
}

// leaf walks the tree for one vector and returns the leaf node index.
// NaN routes to the Missing branch, matching the trained split directions.
func (t *Tree) leaf(vec []float64) int {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.IsLeaf {
			return i
		}
		v := vec[n.SplitIndex]
		switch {
		case math.IsNaN(v):
			i = n.Missing
		case v < n.Threshold:
			i = n.Yes
		default:
			i = n.No
		}
	}
}

// Score returns the leaf value for one vector.
func (t *Tree) Score(vec []float64) float64 {
	return t.Nodes[t.leaf(vec)].Leaf
}

// DimensionMismatchError means the reconciled vector width disagrees with the
// booster's training width. Given a correct schema this never fires; when it
// does it indicates model/schema version skew and is a server-side fault.
type DimensionMismatchError struct {
	Label string
	Got   int
	Want  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("model %q: vector has %d features, model expects %d", e.Label, e.Got, e.Want)
}

// Booster is one trained gradient-boosted ensemble, scoring a single binary
// target. Immutable after load; safe for concurrent use.
type Booster struct {
	Label       string  `json:"label"`
	BaseScore   float64 `json:"base_score"`
	NumFeatures int     `json:"num_features"`
	Trees       []Tree  `json:"trees"`
}

// Margin returns the raw additive score (before the link function).
func (b *Booster) Margin(vec []float64) (float64, error) {
	if len(vec) != b.NumFeatures {
		return 0, &DimensionMismatchError{Label: b.Label, Got: len(vec), Want: b.NumFeatures}
	}
	m := b.BaseScore
	for i := range b.Trees {
		m += b.Trees[i].Score(vec)
	}
	return m, nil
}

// Predict maps the margin through the logistic link and thresholds at 0.5.
func (b *Booster) Predict(vec []float64) (class int, prob float64, err error) {
	m, err := b.Margin(vec)
	if err != nil {
		return 0, 0, err
	}
	prob = sigmoid(m)
	if prob >= 0.5 {
		class = 1
	}
	return class, prob, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
