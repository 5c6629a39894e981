package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtreeValues(t *testing.T) {
	tr := stump()
	vals := subtreeValues(&tr)

	// Root value is the cover-weighted mean of the leaves:
	// (-1*10 + 2*5) / 15 = 0.
	assert.InDelta(t, 0.0, vals[0], 1e-12)
	assert.Equal(t, -1.0, vals[1])
	assert.Equal(t, 2.0, vals[2])
}

func TestContributionsCreditSplitFeature(t *testing.T) {
	b := testBooster()

	contrib, err := b.Contributions([]float64{1.0, 0})
	require.NoError(t, err)
	require.Len(t, contrib, 2)

	// Going right moves the expected value from 0 to 2; feature 0 gets the
	// full credit, feature 1 none.
	assert.InDelta(t, 2.0, contrib[0], 1e-12)
	assert.Zero(t, contrib[1])

	contrib, err = b.Contributions([]float64{0.0, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, contrib[0], 1e-12)
}

func TestContributionsSumToMarginDelta(t *testing.T) {
	// Depth-2 tree: f0 then f1 on the right branch.
	tr := Tree{Nodes: []Node{
		{SplitIndex: 0, Threshold: 0.5, Yes: 1, No: 2, Missing: 1, Cover: 20},
		{IsLeaf: true, Leaf: -0.5, Cover: 8},
		{SplitIndex: 1, Threshold: 1.5, Yes: 3, No: 4, Missing: 3, Cover: 12},
		{IsLeaf: true, Leaf: 0.25, Cover: 7},
		{IsLeaf: true, Leaf: 1.75, Cover: 5},
	}}
	b := &Booster{Label: "m", NumFeatures: 2, Trees: []Tree{tr}}

	vals := subtreeValues(&tr)
	vec := []float64{1.0, 2.0}

	contrib, err := b.Contributions(vec)
	require.NoError(t, err)

	var sum float64
	for _, c := range contrib {
		sum += c
	}
	// Contributions decompose the path from the root expectation to the leaf.
	assert.InDelta(t, tr.Score(vec)-vals[0], sum, 1e-12)
}

func TestContributionsDimensionMismatch(t *testing.T) {
	b := testBooster()
	_, err := b.Contributions([]float64{1.0})
	var dimErr *DimensionMismatchError
	assert.ErrorAs(t, err, &dimErr)
}

func TestTopImpacts(t *testing.T) {
	contrib := []float64{0.1, -2.0, 0, 0.5}
	names := []string{"a", "b", "c", "d"}

	top := TopImpacts(contrib, names, 2)
	require.Len(t, top, 2)
	assert.Equal(t, FeatureImpact{Feature: "b", Impact: -2.0}, top[0])
	assert.Equal(t, FeatureImpact{Feature: "d", Impact: 0.5}, top[1])

	// Zero impacts never appear, even with a generous k.
	all := TopImpacts(contrib, names, 10)
	assert.Len(t, all, 3)
}
