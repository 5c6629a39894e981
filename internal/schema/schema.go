package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// FeatureType is the declared type of a schema feature. All types coerce to
// float64 positions in the reconciled vector; the type only constrains which
// raw values are accepted.
type FeatureType string

const (
	TypeNumeric     FeatureType = "numeric"
	TypeBoolean     FeatureType = "boolean"
	TypeCategorical FeatureType = "categorical"
)

// Source records where the active schema came from.
type Source string

const (
	// SourceArtifact: loaded from an explicit schema artifact file.
	SourceArtifact Source = "artifact"
	// SourceEmbedded: taken from the feature list inside the model artifact.
	SourceEmbedded Source = "embedded"
	// SourceBaseline: the hardcoded contract of the original single-model deployment.
	SourceBaseline Source = "baseline"
)

type Feature struct {
	Name string      `json:"name"`
	Type FeatureType `json:"type"`
	// Default is substituted when a request omits the feature and the fill
	// policy allows it.
	Default float64 `json:"default"`
}

// Schema is the ordered, named feature contract a model was trained on.
// Insertion order defines vector positions. Immutable after construction.
type Schema struct {
	features []Feature
	index    map[string]int
	source   Source
}

func New(features []Feature, source Source) (*Schema, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("schema: empty feature list")
	}
	// Copy so the schema never aliases (or mutates) the caller's slice.
	features = append([]Feature(nil), features...)
	idx := make(map[string]int, len(features))
	for i, f := range features {
		if f.Name == "" {
			return nil, fmt.Errorf("schema: feature %d has empty name", i)
		}
		if _, dup := idx[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate feature %q", f.Name)
		}
		switch f.Type {
		case TypeNumeric, TypeBoolean, TypeCategorical:
		case "":
			features[i].Type = TypeNumeric
		default:
			return nil, fmt.Errorf("schema: feature %q has unknown type %q", f.Name, f.Type)
		}
		idx[f.Name] = i
	}
	return &Schema{features: features, index: idx, source: source}, nil
}

// FromNames builds an all-numeric, zero-default schema from an ordered name
// list (the shape of the original expected-features artifact).
func FromNames(names []string, source Source) (*Schema, error) {
	features := make([]Feature, len(names))
	for i, n := range names {
		features[i] = Feature{Name: n, Type: TypeNumeric}
	}
	return New(features, source)
}

// Load reads a schema artifact. Two shapes are accepted: a bare JSON array of
// feature names, or an array of {name, type, default} objects.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		s, err := FromNames(names, SourceArtifact)
		if err != nil {
			return nil, fmt.Errorf("schema: %s: %w", path, err)
		}
		return s, nil
	}

	var features []Feature
	if err := json.Unmarshal(raw, &features); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}
	s, err := New(features, SourceArtifact)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", path, err)
	}
	return s, nil
}

func (s *Schema) Len() int { return len(s.features) }

func (s *Schema) Source() Source { return s.source }

// Position returns the vector index of a feature name.
func (s *Schema) Position(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *Schema) Names() []string {
	out := make([]string, len(s.features))
	for i, f := range s.features {
		out[i] = f.Name
	}
	return out
}

// Features returns a copy; callers cannot mutate the schema through it.
func (s *Schema) Features() []Feature {
	return append([]Feature(nil), s.features...)
}
