package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FillPolicy decides what happens when a request omits a schema feature.
type FillPolicy string

const (
	// FillDefault substitutes the feature's declared default value.
	FillDefault FillPolicy = "fill"
	// FillReject fails the request on the first missing feature.
	FillReject FillPolicy = "reject"
)

func ParseFillPolicy(s string) (FillPolicy, error) {
	switch FillPolicy(s) {
	case FillDefault, FillReject:
		return FillPolicy(s), nil
	}
	return "", fmt.Errorf("schema: unknown fill policy %q (want %q or %q)", s, FillDefault, FillReject)
}

// FeatureTypeError reports a supplied value that cannot be coerced to the
// feature's declared type.
type FeatureTypeError struct {
	Feature string
	Value   any
}

func (e *FeatureTypeError) Error() string {
	return fmt.Sprintf("feature %q: cannot coerce %v (%T) to its declared type", e.Feature, e.Value, e.Value)
}

// MissingFeatureError reports an omitted feature under the reject policy.
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("feature %q missing from request", e.Feature)
}

// Result is a reconciled, model-ready vector. Vector order and length always
// match the schema; Filled lists the features substituted by the fill policy.
type Result struct {
	Vector []float64
	Filled []string
}

// Reconcile maps an arbitrary request record onto the schema order. Keys not
// in the schema are ignored. Missing keys follow the fill policy. A nil value
// is treated as missing (the JSON null / NaN cell case).
func (s *Schema) Reconcile(record map[string]any, policy FillPolicy) (Result, error) {
	res := Result{Vector: make([]float64, len(s.features))}
	for i, f := range s.features {
		raw, ok := record[f.Name]
		if !ok || raw == nil {
			if policy == FillReject {
				return Result{}, &MissingFeatureError{Feature: f.Name}
			}
			res.Vector[i] = f.Default
			res.Filled = append(res.Filled, f.Name)
			continue
		}
		v, err := coerce(f, raw)
		if err != nil {
			return Result{}, err
		}
		res.Vector[i] = v
	}
	return res, nil
}

func coerce(f Feature, raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case bool:
		if x {
			v = 1
		}
	case string:
		var err error
		v, err = coerceString(f, x)
		if err != nil {
			return 0, &FeatureTypeError{Feature: f.Name, Value: raw}
		}
	default:
		return 0, &FeatureTypeError{Feature: f.Name, Value: raw}
	}

	switch f.Type {
	case TypeBoolean:
		if v != 0 && v != 1 {
			return 0, &FeatureTypeError{Feature: f.Name, Value: raw}
		}
	case TypeCategorical:
		// Category codes are integers by construction.
		if v != math.Trunc(v) || math.IsNaN(v) {
			return 0, &FeatureTypeError{Feature: f.Name, Value: raw}
		}
	default:
		if math.IsNaN(v) {
			return 0, &FeatureTypeError{Feature: f.Name, Value: raw}
		}
	}
	return v, nil
}

func coerceString(f Feature, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if f.Type == TypeBoolean {
		switch strings.ToLower(s) {
		case "true", "yes":
			return 1, nil
		case "false", "no":
			return 0, nil
		}
	}
	return strconv.ParseFloat(s, 64)
}
