package model

import (
	"math"
	"sort"
)

// subtreeValues computes, for every node, the cover-weighted expected leaf
// value of its subtree. Children always have higher indices than their
// parent, so one reverse pass suffices.
func subtreeValues(t *Tree) []float64 {
	vals := make([]float64, len(t.Nodes))
	for i := len(t.Nodes) - 1; i >= 0; i-- {
		n := &t.Nodes[i]
		if n.IsLeaf {
			vals[i] = n.Leaf
			continue
		}
		yc, nc := t.Nodes[n.Yes].Cover, t.Nodes[n.No].Cover
		if total := yc + nc; total > 0 {
			vals[i] = (vals[n.Yes]*yc + vals[n.No]*nc) / total
		} else {
			vals[i] = (vals[n.Yes] + vals[n.No]) / 2
		}
	}
	return vals
}

// Contributions decomposes the margin for one vector into per-feature
// impacts: at every split taken, the change in expected value between parent
// and chosen child is credited to the split feature. Summed over all trees
// the impacts plus the bias reproduce the margin.
func (b *Booster) Contributions(vec []float64) ([]float64, error) {
	if len(vec) != b.NumFeatures {
		return nil, &DimensionMismatchError{Label: b.Label, Got: len(vec), Want: b.NumFeatures}
	}
	out := make([]float64, b.NumFeatures)
	for ti := range b.Trees {
		t := &b.Trees[ti]
		vals := t.values
		if vals == nil {
			vals = subtreeValues(t)
		}
		i := 0
		for {
			n := &t.Nodes[i]
			if n.IsLeaf {
				break
			}
			v := vec[n.SplitIndex]
			var next int
			switch {
			case math.IsNaN(v):
				next = n.Missing
			case v < n.Threshold:
				next = n.Yes
			default:
				next = n.No
			}
			out[n.SplitIndex] += vals[next] - vals[i]
			i = next
		}
	}
	return out, nil
}

// FeatureImpact is one entry of a ranked explanation.
type FeatureImpact struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
}

// TopImpacts ranks contributions by absolute impact and returns the first k,
// named through the given feature list.
func TopImpacts(contrib []float64, names []string, k int) []FeatureImpact {
	out := make([]FeatureImpact, 0, len(contrib))
	for i, c := range contrib {
		if c == 0 {
			continue
		}
		name := ""
		if i < len(names) {
			name = names[i]
		}
		out = append(out, FeatureImpact{Feature: name, Impact: c})
	}
	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i].Impact) > math.Abs(out[j].Impact)
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
