package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"phishguard/internal/models"
)

const (
	TypeRandomForest       = "random_forest"
	TypeGradientBoosting   = "gradient_boosting"
	TypeLogisticRegression = "logistic_regression"
)

// Artifact is the on-disk JSON form of an exported classifier.
type Artifact struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	NFeatures int            `json:"n_features"`
	Features  []string       `json:"features,omitempty"`
	Labels    []models.Label `json:"labels,omitempty"`

	Trees     []Tree  `json:"trees,omitempty"`
	BaseScore float64 `json:"base_score,omitempty"`

	Coef      []float64 `json:"coef,omitempty"`
	Intercept float64   `json:"intercept,omitempty"`
}

// Tree uses sklearn's flat layout; a node with ChildrenLeft == -1 is a leaf.
// Random forests carry class distributions in Value, boosted trees carry
// margins in LeafValue.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value,omitempty"`
	LeafValue     []float64   `json:"leaf_value,omitempty"`
}

var defaultLabels = []models.Label{models.LabelPhishing, models.LabelLegitimate}

// LoadModel reads and validates the artifact at path. When expected is
// non-empty the artifact must have been trained on exactly that column order.
func LoadModel(path string, expected []string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, path, err)
	}
	m, err := a.Build(expected)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Build validates a and returns the matching Model.
func (a Artifact) Build(expected []string) (Model, error) {
	if a.NFeatures <= 0 {
		return nil, fmt.Errorf("%w: n_features must be positive", ErrModelLoad)
	}
	if len(a.Features) > 0 && len(a.Features) != a.NFeatures {
		return nil, fmt.Errorf("%w: %d feature names for n_features=%d", ErrModelLoad, len(a.Features), a.NFeatures)
	}
	if len(expected) > 0 {
		if a.NFeatures != len(expected) {
			return nil, fmt.Errorf("%w: model expects %d features, extractor produces %d", ErrModelLoad, a.NFeatures, len(expected))
		}
		if len(a.Features) > 0 && !slices.Equal(a.Features, expected) {
			return nil, fmt.Errorf("%w: feature order differs from the extractor", ErrModelLoad)
		}
	}

	labels := a.Labels
	if len(labels) == 0 {
		labels = defaultLabels
	}
	if len(labels) != 2 || !labels[0].Valid() || !labels[1].Valid() || labels[0] == labels[1] {
		return nil, fmt.Errorf("%w: labels must be phishing and legitimate, got %v", ErrModelLoad, labels)
	}
	b := base{name: a.Name, nFeatures: a.NFeatures, labels: [2]models.Label{labels[0], labels[1]}}
	if b.name == "" {
		b.name = a.Type
	}

	switch a.Type {
	case TypeRandomForest:
		if len(a.Trees) == 0 {
			return nil, fmt.Errorf("%w: forest has no trees", ErrModelLoad)
		}
		for i, t := range a.Trees {
			if err := t.validate(a.NFeatures, true); err != nil {
				return nil, fmt.Errorf("%w: tree %d: %v", ErrModelLoad, i, err)
			}
		}
		return &RandomForest{base: b, trees: a.Trees}, nil
	case TypeGradientBoosting:
		if len(a.Trees) == 0 {
			return nil, fmt.Errorf("%w: booster has no trees", ErrModelLoad)
		}
		if a.BaseScore <= 0 || a.BaseScore >= 1 {
			return nil, fmt.Errorf("%w: base_score must be in (0,1), got %v", ErrModelLoad, a.BaseScore)
		}
		for i, t := range a.Trees {
			if err := t.validate(a.NFeatures, false); err != nil {
				return nil, fmt.Errorf("%w: tree %d: %v", ErrModelLoad, i, err)
			}
		}
		return &GradientBoosting{base: b, trees: a.Trees, baseMargin: logit(a.BaseScore)}, nil
	case TypeLogisticRegression:
		if len(a.Coef) != a.NFeatures {
			return nil, fmt.Errorf("%w: %d coefficients for n_features=%d", ErrModelLoad, len(a.Coef), a.NFeatures)
		}
		return &LogisticRegression{base: b, coef: a.Coef, intercept: a.Intercept}, nil
	}
	return nil, fmt.Errorf("%w: unknown model type %q", ErrModelLoad, a.Type)
}

// validate checks every index a traversal can touch, so prediction never
// goes out of range and always terminates.
func (t Tree) validate(nFeatures int, classValues bool) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n {
		return fmt.Errorf("node arrays differ in length")
	}
	if classValues && len(t.Value) != n {
		return fmt.Errorf("value has %d rows for %d nodes", len(t.Value), n)
	}
	if !classValues && len(t.LeafValue) != n {
		return fmt.Errorf("leaf_value has %d entries for %d nodes", len(t.LeafValue), n)
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == -1 {
			if classValues && len(t.Value[i]) != 2 {
				return fmt.Errorf("leaf %d: want 2 class values, got %d", i, len(t.Value[i]))
			}
			continue
		}
		// children must point forward, which rules out cycles
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("node %d: bad children %d/%d", i, l, r)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, f)
		}
	}
	return nil
}
