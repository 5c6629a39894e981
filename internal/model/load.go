package model

import (
	"encoding/json"
	"fmt"
	"os"
)

const objectiveBinaryLogistic = "binary:logistic"

// artifact is the on-disk bundle document: one or more named boosters trained
// on a shared feature contract, exported as flat node arrays.
type artifact struct {
	Version   string     `json:"version"`
	Objective string     `json:"objective"`
	Features  []string   `json:"features,omitempty"`
	Models    []*Booster `json:"models"`
}

// Store holds every booster of one loaded artifact. Loaded once at startup,
// immutable afterwards, shared across requests without locking.
type Store struct {
	version  string
	features []string
	boosters []*Booster
}

// Load reads and validates a model bundle. Any error here is fatal to the
// process: an instance must not come up serving a broken model.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}
	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("model: parse %s: %w", path, err)
	}
	if a.Objective != "" && a.Objective != objectiveBinaryLogistic {
		return nil, fmt.Errorf("model: %s: unsupported objective %q", path, a.Objective)
	}
	s, err := NewStore(a.Version, a.Features, a.Models)
	if err != nil {
		return nil, fmt.Errorf("model: %s: %w", path, err)
	}
	return s, nil
}

// NewStore validates a bundle and precomputes the explainer's subtree values.
func NewStore(version string, features []string, boosters []*Booster) (*Store, error) {
	if len(boosters) == 0 {
		return nil, fmt.Errorf("bundle contains no models")
	}
	seen := map[string]bool{}
	for _, b := range boosters {
		if b.Label == "" {
			return nil, fmt.Errorf("booster with empty label")
		}
		if seen[b.Label] {
			return nil, fmt.Errorf("duplicate label %q", b.Label)
		}
		seen[b.Label] = true
		if err := validateBooster(b); err != nil {
			return nil, fmt.Errorf("%q: %w", b.Label, err)
		}
		if len(features) > 0 && len(features) != b.NumFeatures {
			return nil, fmt.Errorf("%q expects %d features, artifact lists %d",
				b.Label, b.NumFeatures, len(features))
		}
		if b.NumFeatures != boosters[0].NumFeatures {
			return nil, fmt.Errorf("%q expects %d features, %q expects %d",
				b.Label, b.NumFeatures, boosters[0].Label, boosters[0].NumFeatures)
		}
		for i := range b.Trees {
			b.Trees[i].values = subtreeValues(&b.Trees[i])
		}
	}
	return &Store{version: version, features: features, boosters: boosters}, nil
}

func validateBooster(b *Booster) error {
	if b.NumFeatures <= 0 {
		return fmt.Errorf("num_features must be positive, got %d", b.NumFeatures)
	}
	if len(b.Trees) == 0 {
		return fmt.Errorf("booster has no trees")
	}
	for ti := range b.Trees {
		t := &b.Trees[ti]
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf {
				continue
			}
			if n.SplitIndex < 0 || n.SplitIndex >= b.NumFeatures {
				return fmt.Errorf("tree %d node %d: split index %d out of range", ti, ni, n.SplitIndex)
			}
			for _, child := range []int{n.Yes, n.No, n.Missing} {
				if child <= ni || child >= len(t.Nodes) {
					return fmt.Errorf("tree %d node %d: child index %d invalid", ti, ni, child)
				}
			}
		}
	}
	return nil
}

func (s *Store) Version() string { return s.version }

// Features returns the feature list embedded in the artifact, if any.
func (s *Store) Features() []string {
	return append([]string(nil), s.features...)
}

// Boosters returns the bundle in artifact order.
func (s *Store) Boosters() []*Booster { return s.boosters }

// NumFeatures is the shared training width of the bundle.
func (s *Store) NumFeatures() int { return s.boosters[0].NumFeatures }
