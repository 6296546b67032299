package classifier

import (
	"fmt"
	"math"

	"phishguard/internal/models"
)

// Model is a loaded, immutable classifier. Implementations are safe for
// concurrent use.
type Model interface {
	Name() string
	NumFeatures() int
	// PositiveProbability returns P(labels[1] | x). len(x) is already checked.
	PositiveProbability(x []float64) float64
	Labels() [2]models.Label
}

// Predict runs m on vec.
func Predict(m Model, vec models.FeatureVector) (models.Prediction, error) {
	if vec.Len() != m.NumFeatures() {
		return models.Prediction{}, fmt.Errorf("%w: %s expects %d features, got %d", ErrPrediction, m.Name(), m.NumFeatures(), vec.Len())
	}
	p := m.PositiveProbability(vec.Floats())
	if math.IsNaN(p) {
		return models.Prediction{}, fmt.Errorf("%w: %s produced NaN", ErrPrediction, m.Name())
	}
	labels := m.Labels()
	if p >= 0.5 {
		return models.Prediction{Model: m.Name(), Label: labels[1], Confidence: p}, nil
	}
	return models.Prediction{Model: m.Name(), Label: labels[0], Confidence: 1 - p}, nil
}

type base struct {
	name      string
	nFeatures int
	labels    [2]models.Label
}

func (b base) Name() string            { return b.name }
func (b base) NumFeatures() int        { return b.nFeatures }
func (b base) Labels() [2]models.Label { return b.labels }

type RandomForest struct {
	base
	trees []Tree
}

func (m *RandomForest) PositiveProbability(x []float64) float64 {
	var sum float64
	for _, t := range m.trees {
		v := t.Value[t.leaf(x, false)]
		if total := v[0] + v[1]; total > 0 {
			sum += v[1] / total
		}
	}
	return sum / float64(len(m.trees))
}

// GradientBoosting is a binary:logistic booster in XGBoost's split convention.
type GradientBoosting struct {
	base
	trees      []Tree
	baseMargin float64
}

func (m *GradientBoosting) PositiveProbability(x []float64) float64 {
	margin := m.baseMargin
	for _, t := range m.trees {
		margin += t.LeafValue[t.leaf(x, true)]
	}
	return sigmoid(margin)
}

type LogisticRegression struct {
	base
	coef      []float64
	intercept float64
}

func (m *LogisticRegression) PositiveProbability(x []float64) float64 {
	z := m.intercept
	for i, w := range m.coef {
		z += w * x[i]
	}
	return sigmoid(z)
}

// leaf walks to a leaf. sklearn sends x <= threshold left, XGBoost x < threshold.
func (t Tree) leaf(x []float64, strict bool) int {
	i := 0
	for t.ChildrenLeft[i] != -1 {
		v, th := x[t.Feature[i]], t.Threshold[i]
		if (strict && v < th) || (!strict && v <= th) {
			i = t.ChildrenLeft[i]
		} else {
			i = t.ChildrenRight[i]
		}
	}
	return i
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }
