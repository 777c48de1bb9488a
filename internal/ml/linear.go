package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

type linearParams struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

type linear struct {
	coef      []float64
	intercept float64
}

func decodeLinear(raw json.RawMessage, nFeatures int) (linear, error) {
	var p linearParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return linear{}, fmt.Errorf("decode params: %w", err)
	}
	if len(p.Coef) == 0 {
		return linear{}, fmt.Errorf("coef is empty")
	}
	if nFeatures > 0 && len(p.Coef) != nFeatures {
		return linear{}, fmt.Errorf("coef has %d entries, n_features is %d", len(p.Coef), nFeatures)
	}
	for i, c := range p.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return linear{}, fmt.Errorf("coef %d is not finite", i)
		}
	}
	return linear{coef: p.Coef, intercept: p.Intercept}, nil
}

func (l linear) decision(row []float64) float64 {
	z := l.intercept
	for i, c := range l.coef {
		z += c * row[i]
	}
	return z
}

// LogisticRegression is a binary logistic model; it supports probabilities.
type LogisticRegression struct {
	linear
}

func newLogisticRegression(raw json.RawMessage, nFeatures int) (*LogisticRegression, error) {
	l, err := decodeLinear(raw, nFeatures)
	if err != nil {
		return nil, err
	}
	return &LogisticRegression{l}, nil
}

func (m *LogisticRegression) Predict(ctx context.Context, X [][]float64) ([]int, error) {
	proba, err := m.PredictProba(ctx, X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, p := range proba {
		if p[1] >= 0.5 {
			labels[i] = 1
		}
	}
	return labels, nil
}

func (m *LogisticRegression) PredictProba(_ context.Context, X [][]float64) ([][]float64, error) {
	if err := checkWidth(X, len(m.coef)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		p := sigmoid(m.decision(row))
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

// LinearSVM is a linear max-margin classifier. It has no calibrated
// probabilities, so it is a point model only.
type LinearSVM struct {
	linear
}

func newLinearSVM(raw json.RawMessage, nFeatures int) (*LinearSVM, error) {
	l, err := decodeLinear(raw, nFeatures)
	if err != nil {
		return nil, err
	}
	return &LinearSVM{l}, nil
}

func (m *LinearSVM) Predict(_ context.Context, X [][]float64) ([]int, error) {
	if err := checkWidth(X, len(m.coef)); err != nil {
		return nil, err
	}
	labels := make([]int, len(X))
	for i, row := range X {
		if m.decision(row) > 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// sigmoid converts a score to a probability
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
