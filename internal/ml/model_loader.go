package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Artifact kinds understood by LoadModel.
const (
	KindLogisticRegression = "logistic_regression"
	KindLinearSVM          = "linear_svm"
	KindDecisionTree       = "decision_tree"
	KindRemote             = "remote"
)

// Artifact is the on-disk envelope of a serialized model.
type Artifact struct {
	Kind      string          `json:"kind"`
	Version   string          `json:"version,omitempty"`
	NFeatures int             `json:"n_features,omitempty"`
	Params    json.RawMessage `json:"params"`
}

// LoadOptions carries the settings some artifact kinds need at load time.
type LoadOptions struct {
	RemoteTimeout   time.Duration
	BreakerFailures uint32
}

// LoadModel reads and decodes the artifact at path. The returned model
// implements ProbabilisticModel only when the artifact supports it.
func LoadModel(path string, opts LoadOptions) (Model, *Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(art.Params) == 0 {
		return nil, nil, fmt.Errorf("artifact has no params")
	}

	var model Model
	switch art.Kind {
	case KindLogisticRegression:
		model, err = newLogisticRegression(art.Params, art.NFeatures)
	case KindLinearSVM:
		model, err = newLinearSVM(art.Params, art.NFeatures)
	case KindDecisionTree:
		model, err = newDecisionTree(art.Params, art.NFeatures)
	case KindRemote:
		model, err = newRemoteModel(art.Params, art.NFeatures, opts)
	case "":
		return nil, nil, fmt.Errorf("artifact kind is missing")
	default:
		return nil, nil, fmt.Errorf("unsupported model kind %q", art.Kind)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", art.Kind, err)
	}

	return model, &art, nil
}

// checkWidth verifies every row of X has n columns.
func checkWidth(X [][]float64, n int) error {
	if len(X) == 0 {
		return fmt.Errorf("empty input")
	}
	for i, row := range X {
		if len(row) != n {
			return fmt.Errorf("row %d has %d features, model expects %d", i, len(row), n)
		}
	}
	return nil
}
