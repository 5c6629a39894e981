package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stump splits on feature 0 at 0.5: left leaf -1.0, right leaf 2.0.
// NaN routes left.
func stump() Tree {
	return Tree{Nodes: []Node{
		{SplitIndex: 0, Threshold: 0.5, Yes: 1, No: 2, Missing: 1, Cover: 15},
		{IsLeaf: true, Leaf: -1.0, Cover: 10},
		{IsLeaf: true, Leaf: 2.0, Cover: 5},
	}}
}

func testBooster() *Booster {
	return &Booster{
		Label:       "Ciprofloxacin",
		BaseScore:   0,
		NumFeatures: 2,
		Trees:       []Tree{stump()},
	}
}

func TestTreeScore(t *testing.T) {
	tr := stump()
	assert.Equal(t, -1.0, tr.Score([]float64{0.0, 9.9}))
	assert.Equal(t, 2.0, tr.Score([]float64{1.0, 9.9}))
	assert.Equal(t, -1.0, tr.Score([]float64{math.NaN(), 9.9}), "NaN takes the missing branch")
	assert.Equal(t, 2.0, tr.Score([]float64{0.5, 0}), "threshold boundary goes right")
}

func TestBoosterPredict(t *testing.T) {
	b := testBooster()

	class, prob, err := b.Predict([]float64{1.0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	assert.InDelta(t, 0.8808, prob, 1e-3)

	class, prob, err = b.Predict([]float64{0.0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
	assert.InDelta(t, 0.2689, prob, 1e-3)
}

func TestBoosterMarginSumsTrees(t *testing.T) {
	b := &Booster{
		Label:       "m",
		BaseScore:   0.5,
		NumFeatures: 2,
		Trees:       []Tree{stump(), stump()},
	}
	m, err := b.Margin([]float64{1.0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5+2.0+2.0, m, 1e-12)
}

func TestBoosterDimensionMismatch(t *testing.T) {
	b := testBooster()

	_, _, err := b.Predict([]float64{1.0})
	var dimErr *DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, "Ciprofloxacin", dimErr.Label)
	assert.Equal(t, 1, dimErr.Got)
	assert.Equal(t, 2, dimErr.Want)

	_, _, err = b.Predict([]float64{1.0, 2.0, 3.0})
	assert.ErrorAs(t, err, &dimErr)
}

func TestPredictIsDeterministic(t *testing.T) {
	b := testBooster()
	vec := []float64{0.3, 1.0}

	c1, p1, err := b.Predict(vec)
	require.NoError(t, err)
	c2, p2, err := b.Predict(vec)
	require.NoError(t, err)

	assert.Equal(t, c1, c2)
	assert.Equal(t, p1, p2)
}
