package ml

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"shdp-backend/internal/disease"
)

// RiskLevel is the coarse risk bucket reported to callers.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Risk thresholds on the positive-class probability. Each band includes its
// lower bound.
const (
	MediumRiskThreshold = 0.30
	HighRiskThreshold   = 0.60
)

// FallbackConfidence is reported for models without probability estimates.
// It is a fixed placeholder, not an estimate. With the thresholds above it
// always maps to High risk.
const FallbackConfidence = 85.0

const (
	positiveSuffix = " - Positive Indication"
	negativeSuffix = " - Negative Indication"
)

// PredictionResult is the response payload of a prediction.
type PredictionResult struct {
	PredictedDisease string    `json:"predicted_disease"`
	RiskLevel        RiskLevel `json:"risk_level"`
	Confidence       string    `json:"confidence"`
}

// Predictor runs inference on a resolved model and shapes the result.
type Predictor struct {
	metrics MetricsInterface
}

func NewPredictor(metrics MetricsInterface) *Predictor {
	return &Predictor{metrics: metrics}
}

// RiskLevelFor buckets a probability in [0, 1].
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability < MediumRiskThreshold:
		return RiskLow
	case probability < HighRiskThreshold:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// FormatConfidence renders a percentage the way the API reports it, e.g. "80.0%".
func FormatConfidence(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// Infer runs model on features and derives the risk assessment for diseaseType.
func (p *Predictor) Infer(ctx context.Context, model Model, diseaseType disease.Type, features SymptomVector) (*PredictionResult, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	result, err := p.infer(ctx, model, diseaseType, features)
	if err != nil {
		if p.metrics != nil {
			p.metrics.MLFailuresInc(string(diseaseType))
		}
		log.Error().
			Err(err).
			Str("disease", string(diseaseType)).
			Interface("features", features).
			Msg("inference failed")
		return nil, err
	}
	return result, nil
}

func (p *Predictor) infer(ctx context.Context, model Model, diseaseType disease.Type, features SymptomVector) (*PredictionResult, error) {
	if model == nil {
		return nil, newError(ErrInference, "model is nil", nil)
	}
	X := features.Matrix()

	var (
		labels []int
		proba  [][]float64
		err    error
	)
	jm, joint := model.(JointModel)
	if joint {
		labels, proba, err = jm.PredictWithProba(ctx, X)
	} else {
		labels, err = model.Predict(ctx, X)
	}
	if err != nil {
		return nil, newError(ErrInference, "model prediction failed", err)
	}
	if len(labels) == 0 {
		return nil, newError(ErrInference, "model prediction failed", fmt.Errorf("empty prediction result"))
	}
	label := labels[0]

	var probability, confidence float64
	if pm, ok := model.(ProbabilisticModel); ok {
		if !joint {
			proba, err = pm.PredictProba(ctx, X)
			if err != nil {
				return nil, newError(ErrInference, "model probability estimation failed", err)
			}
		}
		probability, err = positiveProbability(proba)
		if err != nil {
			return nil, err
		}
		confidence = math.Round(probability*1000) / 10
	} else {
		confidence = FallbackConfidence
		probability = confidence / 100
		if p.metrics != nil {
			p.metrics.MLFallbackUseInc()
		}
	}

	risk := RiskLevelFor(probability)
	name := disease.DisplayName(diseaseType)
	if label == 1 {
		name += positiveSuffix
	} else {
		name += negativeSuffix
	}

	if p.metrics != nil {
		p.metrics.MLPredictionsInc(string(diseaseType), string(risk))
		p.metrics.MLConfidenceObserve(confidence)
	}

	log.Debug().
		Str("disease", string(diseaseType)).
		Int("label", label).
		Float64("probability", probability).
		Str("risk_level", string(risk)).
		Msg("prediction successful")

	return &PredictionResult{
		PredictedDisease: name,
		RiskLevel:        risk,
		Confidence:       FormatConfidence(confidence),
	}, nil
}

// positiveProbability takes the positive-class probability of the first row,
// or the only entry when the distribution has a single class.
func positiveProbability(proba [][]float64) (float64, error) {
	if len(proba) == 0 || len(proba[0]) == 0 {
		return 0, newError(ErrInference, "model probability estimation failed", fmt.Errorf("empty probability result"))
	}

	row := proba[0]
	prob := row[0]
	if len(row) > 1 {
		prob = row[1]
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return 0, newError(ErrInference, "model probability estimation failed", fmt.Errorf("invalid probability %f", prob))
	}
	return prob, nil
}
