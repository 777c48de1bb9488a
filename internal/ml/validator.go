package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"shdp-backend/internal/disease"
)

// SymptomVector is a validated feature vector whose length matches the
// descriptor of its disease type.
type SymptomVector []float64

// Matrix shapes the vector as the single-row matrix models consume.
func (v SymptomVector) Matrix() [][]float64 {
	row := make([]float64, len(v))
	copy(row, v)
	return [][]float64{row}
}

// Validate checks raw against the feature schema of diseaseType and coerces
// every element to float64.
func Validate(diseaseType string, raw []any) (SymptomVector, error) {
	d, ok := disease.Lookup(disease.Type(diseaseType))
	if !ok {
		return nil, newError(ErrInvalidArgument, fmt.Sprintf("Unknown disease type: %s", diseaseType), nil)
	}

	if len(raw) != d.FeatureCount {
		return nil, newError(ErrValidation, fmt.Sprintf(
			"Expected %d features for %s, but received %d", d.FeatureCount, diseaseType, len(raw)), nil)
	}

	v := make(SymptomVector, len(raw))
	for i, x := range raw {
		f, err := toFloat(x)
		if err != nil {
			return nil, newError(ErrValidation, "All symptoms must be numeric values",
				fmt.Errorf("element %d: %w", i, err))
		}
		v[i] = f
	}
	return v, nil
}

func toFloat(x any) (float64, error) {
	var f float64
	switch t := x.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("could not convert %q to float", t.String())
		}
		f = parsed
	case bool:
		if t {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: %q", t)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unsupported value of type %T", x)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not finite", f)
	}
	return f, nil
}
