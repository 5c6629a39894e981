package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New([]Feature{
		{Name: "f1", Type: TypeNumeric},
		{Name: "f2", Type: TypeNumeric, Default: -1},
		{Name: "f3", Type: TypeBoolean},
		{Name: "f4", Type: TypeCategorical},
	}, SourceArtifact)
	require.NoError(t, err)
	return s
}

func TestReconcileOrderAndLength(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name   string
		record map[string]any
	}{
		{name: "full record", record: map[string]any{"f1": 1.0, "f2": 2.0, "f3": true, "f4": 3.0}},
		{name: "empty record", record: map[string]any{}},
		{name: "partial record", record: map[string]any{"f3": false}},
		{name: "extra keys", record: map[string]any{"f1": 1.0, "extra": 99.0, "another": "noise"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := s.Reconcile(tc.record, FillDefault)
			require.NoError(t, err)
			assert.Len(t, res.Vector, s.Len())
		})
	}
}

func TestReconcileAlignsToSchemaOrder(t *testing.T) {
	s, err := FromNames([]string{"feature_a", "feature_b"}, SourceBaseline)
	require.NoError(t, err)

	res, err := s.Reconcile(map[string]any{"feature_b": 2.0, "feature_a": 1.0}, FillDefault)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 2.0}, res.Vector)
	assert.Empty(t, res.Filled)
}

func TestReconcileIgnoresExtraKeys(t *testing.T) {
	s, err := FromNames([]string{"f1", "f2"}, SourceArtifact)
	require.NoError(t, err)

	res, err := s.Reconcile(map[string]any{"f1": 1.0, "f2": 2.0, "extra": 99.0}, FillDefault)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 2.0}, res.Vector)
}

func TestReconcileFillsMissing(t *testing.T) {
	s := testSchema(t)

	res, err := s.Reconcile(map[string]any{"f1": 5.0}, FillDefault)
	require.NoError(t, err)

	pos, ok := s.Position("f2")
	require.True(t, ok)
	assert.Equal(t, -1.0, res.Vector[pos], "missing feature takes its declared default")
	assert.Equal(t, []string{"f2", "f3", "f4"}, res.Filled)
}

func TestReconcileNullIsMissing(t *testing.T) {
	s, err := FromNames([]string{"f1"}, SourceArtifact)
	require.NoError(t, err)

	res, err := s.Reconcile(map[string]any{"f1": nil}, FillDefault)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, res.Vector)
	assert.Equal(t, []string{"f1"}, res.Filled)
}

func TestReconcileRejectPolicy(t *testing.T) {
	s := testSchema(t)

	_, err := s.Reconcile(map[string]any{"f1": 1.0, "f2": 2.0, "f3": true}, FillReject)
	var missErr *MissingFeatureError
	require.ErrorAs(t, err, &missErr)
	assert.Equal(t, "f4", missErr.Feature)
}

func TestReconcileFeatureTypeError(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name    string
		record  map[string]any
		feature string
	}{
		{name: "non-numeric string", record: map[string]any{"f1": "bad"}, feature: "f1"},
		{name: "boolean out of range", record: map[string]any{"f3": 2.0}, feature: "f3"},
		{name: "fractional category code", record: map[string]any{"f4": 1.5}, feature: "f4"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Reconcile(tc.record, FillDefault)
			var typeErr *FeatureTypeError
			require.ErrorAs(t, err, &typeErr)
			assert.Equal(t, tc.feature, typeErr.Feature, "error must name the offending feature")
		})
	}
}

func TestCoercion(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name   string
		record map[string]any
		want   []float64
	}{
		{
			name:   "numeric string coerces",
			record: map[string]any{"f1": " 3.5 ", "f2": "2", "f3": true, "f4": 1.0},
			want:   []float64{3.5, 2, 1, 1},
		},
		{
			name:   "bool words coerce for boolean features",
			record: map[string]any{"f1": 0.0, "f2": 0.0, "f3": "yes", "f4": 0.0},
			want:   []float64{0, 0, 1, 0},
		},
		{
			name:   "bool as numeric",
			record: map[string]any{"f1": true, "f2": false, "f3": false, "f4": 2.0},
			want:   []float64{1, 0, 0, 2},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := s.Reconcile(tc.record, FillDefault)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Vector)
		})
	}
}

func TestParseFillPolicy(t *testing.T) {
	p, err := ParseFillPolicy("fill")
	require.NoError(t, err)
	assert.Equal(t, FillDefault, p)

	p, err = ParseFillPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, FillReject, p)

	_, err = ParseFillPolicy("lenient")
	assert.Error(t, err)
}
