package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "features.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNameList(t *testing.T) {
	path := writeArtifact(t, `["age", "catheter", "prior_resistance"]`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SourceArtifact, s.Source())
	assert.Equal(t, []string{"age", "catheter", "prior_resistance"}, s.Names())
	for _, f := range s.Features() {
		assert.Equal(t, TypeNumeric, f.Type)
		assert.Zero(t, f.Default)
	}
}

func TestLoadFeatureObjects(t *testing.T) {
	path := writeArtifact(t, `[
		{"name": "age", "type": "numeric"},
		{"name": "catheter", "type": "boolean"},
		{"name": "ward", "type": "categorical", "default": 2}
	]`)

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	feats := s.Features()
	assert.Equal(t, TypeBoolean, feats[1].Type)
	assert.Equal(t, 2.0, feats[2].Default)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty list", content: `[]`},
		{name: "not json", content: `age,catheter`},
		{name: "duplicate names", content: `["age", "age"]`},
		{name: "unknown type", content: `[{"name": "age", "type": "text"}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeArtifact(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Feature{{Name: "a"}, {Name: "a"}}, SourceArtifact)
	assert.Error(t, err)
}

func TestNewDoesNotAliasCallerSlice(t *testing.T) {
	input := []Feature{{Name: "a"}, {Name: "b", Type: TypeBoolean}}

	s, err := New(input, SourceArtifact)
	require.NoError(t, err)

	// The untyped input stays untouched; the schema applied the default.
	assert.Equal(t, FeatureType(""), input[0].Type)
	assert.Equal(t, TypeNumeric, s.Features()[0].Type)

	// Mutating the caller's slice after construction changes nothing.
	input[1].Name = "mutated"
	assert.Equal(t, "b", s.Features()[1].Name)
	pos, ok := s.Position("b")
	require.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestPositionsFollowInsertionOrder(t *testing.T) {
	s, err := FromNames([]string{"x", "y", "z"}, SourceArtifact)
	require.NoError(t, err)

	for i, name := range []string{"x", "y", "z"} {
		pos, ok := s.Position(name)
		require.True(t, ok)
		assert.Equal(t, i, pos)
	}
	_, ok := s.Position("w")
	assert.False(t, ok)
}

func TestBaseline(t *testing.T) {
	s := Baseline()
	assert.Equal(t, SourceBaseline, s.Source())
	assert.Greater(t, s.Len(), 0)

	// The baseline contract accepts an empty record under the fill policy.
	res, err := s.Reconcile(map[string]any{}, FillDefault)
	require.NoError(t, err)
	assert.Len(t, res.Vector, s.Len())
	assert.Len(t, res.Filled, s.Len())
}
