// Package ml provides the model side of the SHDP backend: the capability
// interfaces a loaded model exposes, loaders for the supported artifact kinds,
// the registry that resolves a disease type to a model, symptom validation and
// the predictor that turns model output into a risk assessment.
package ml

import "context"

// Model is the minimum capability of a loaded artifact: class prediction.
// X is a matrix of samples, one row per sample; the service always sends a
// single row.
type Model interface {
	// Predict returns one class label per row, 0 for negative and 1 for positive.
	Predict(ctx context.Context, X [][]float64) ([]int, error)
}

// ProbabilisticModel is a Model that also estimates class probabilities.
// The capability is decided once at load time by the concrete type the loader
// returns.
type ProbabilisticModel interface {
	Model

	// PredictProba returns one probability distribution per row, indexed by class.
	PredictProba(ctx context.Context, X [][]float64) ([][]float64, error)
}

// JointModel is a ProbabilisticModel that can return labels and probabilities
// from a single evaluation. Remote models implement it so that one prediction
// costs one round trip and both outputs come from the same response.
type JointModel interface {
	ProbabilisticModel

	PredictWithProba(ctx context.Context, X [][]float64) ([]int, [][]float64, error)
}

// MetricsInterface defines metrics methods needed by the registry and predictor
type MetricsInterface interface {
	MLPredictionsInc(disease, risk string)
	MLFailuresInc(disease string)
	MLLatencyObserve(float64)
	MLConfidenceObserve(float64)
	MLFallbackUseInc()
	ModelLoadsInc(disease string)
	ModelLoadFailuresInc(disease string)
	ModelCacheHitsInc()
	ModelAgeSet(disease string, seconds float64)
}
