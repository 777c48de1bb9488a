package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shdp-backend/internal/disease"
)

func writeModel(t *testing.T, art map[string]any) string {
	t.Helper()
	path, err := WriteArtifact(t.TempDir(), "model.json", art)
	require.NoError(t, err)
	return path
}

func TestLoadModel_LogisticRegression(t *testing.T) {
	path := writeModel(t, map[string]any{
		"kind":       KindLogisticRegression,
		"version":    "1.0.0",
		"n_features": 2,
		"params":     map[string]any{"coef": []float64{1, -1}, "intercept": 0},
	})

	model, art, err := LoadModel(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", art.Version)

	pm, ok := model.(ProbabilisticModel)
	require.True(t, ok, "logistic regression should expose probabilities")

	ctx := context.Background()
	proba, err := pm.PredictProba(ctx, [][]float64{{0, 0}, {5, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, proba[0][1], 1e-9)
	assert.InDelta(t, 1.0, proba[0][0]+proba[0][1], 1e-9)
	assert.Greater(t, proba[1][1], 0.99)

	labels, err := pm.Predict(ctx, [][]float64{{0, 5}, {5, 0}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, labels)

	_, err = pm.Predict(ctx, [][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestLoadModel_LinearSVMIsPointModel(t *testing.T) {
	path := writeModel(t, map[string]any{
		"kind":   KindLinearSVM,
		"params": map[string]any{"coef": []float64{2, 0, 0}, "intercept": -1},
	})

	model, _, err := LoadModel(path, LoadOptions{})
	require.NoError(t, err)

	_, ok := model.(ProbabilisticModel)
	assert.False(t, ok, "linear svm must not expose probabilities")

	labels, err := model.Predict(context.Background(), [][]float64{{1, 0, 0}, {0.25, 9, 9}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, labels)
}

func treeArtifact(withProba bool) map[string]any {
	leafLow := map[string]any{"is_leaf": true, "class_label": 0}
	leafHigh := map[string]any{"is_leaf": true, "class_label": 1}
	if withProba {
		leafLow["probabilities"] = []float64{0.9, 0.1}
		leafHigh["probabilities"] = []float64{0.25, 0.75}
	}
	return map[string]any{
		"kind":       KindDecisionTree,
		"n_features": 2,
		"params": map[string]any{
			"nodes": []any{
				map[string]any{"feature_idx": 1, "threshold": 100.0, "left_child": 1, "right_child": 2},
				leafLow,
				leafHigh,
			},
		},
	}
}

func TestLoadModel_DecisionTreeCapability(t *testing.T) {
	ctx := context.Background()

	withProba, _, err := LoadModel(writeModel(t, treeArtifact(true)), LoadOptions{})
	require.NoError(t, err)
	pm, ok := withProba.(ProbabilisticModel)
	require.True(t, ok)

	proba, err := pm.PredictProba(ctx, [][]float64{{0, 150}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, proba[0])

	labels, err := pm.Predict(ctx, [][]float64{{0, 100}, {0, 101}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, labels)

	pointOnly, _, err := LoadModel(writeModel(t, treeArtifact(false)), LoadOptions{})
	require.NoError(t, err)
	_, ok = pointOnly.(ProbabilisticModel)
	assert.False(t, ok, "tree without leaf distributions is a point model")
}

func TestLoadModel_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		art  map[string]any
	}{
		{"missing kind", map[string]any{"params": map[string]any{"coef": []float64{1}}}},
		{"unknown kind", map[string]any{"kind": "random_forest", "params": map[string]any{}}},
		{"missing params", map[string]any{"kind": KindLinearSVM}},
		{"empty coef", map[string]any{"kind": KindLogisticRegression, "params": map[string]any{"coef": []float64{}}}},
		{"coef width mismatch", map[string]any{"kind": KindLogisticRegression, "n_features": 3, "params": map[string]any{"coef": []float64{1, 2}}}},
		{"tree cycle", map[string]any{"kind": KindDecisionTree, "params": map[string]any{"nodes": []any{
			map[string]any{"feature_idx": 0, "threshold": 1.0, "left_child": 0, "right_child": 0},
		}}}},
		{"remote bad url", map[string]any{"kind": KindRemote, "params": map[string]any{"url": "ftp://x"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := LoadModel(writeModel(t, tc.art), LoadOptions{})
			assert.Error(t, err)
		})
	}
}

func TestLoadModel_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := LoadModel(path, LoadOptions{})
	assert.Error(t, err)

	_, _, err = LoadModel(filepath.Join(t.TempDir(), "missing.json"), LoadOptions{})
	assert.Error(t, err)
}

func TestRemoteModel(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req remoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(remoteResponse{
			Predictions:   []int{1},
			Probabilities: [][]float64{{0.3, 0.7}},
		})
	}))
	defer server.Close()

	path := writeModel(t, map[string]any{
		"kind":       KindRemote,
		"n_features": 2,
		"params":     map[string]any{"url": server.URL + "/", "probabilistic": true},
	})

	model, _, err := LoadModel(path, LoadOptions{RemoteTimeout: 2 * time.Second})
	require.NoError(t, err)
	pm, ok := model.(ProbabilisticModel)
	require.True(t, ok)

	ctx := context.Background()
	labels, err := pm.Predict(ctx, [][]float64{{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, labels)

	proba, err := pm.PredictProba(ctx, [][]float64{{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.3, 0.7}}, proba)
	assert.Equal(t, int32(2), calls.Load())

	_, err = pm.Predict(ctx, [][]float64{{1, 2, 3}})
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load(), "width check happens before the request")
}

func TestRemoteModel_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	path := writeModel(t, map[string]any{
		"kind":   KindRemote,
		"params": map[string]any{"url": server.URL},
	})

	model, _, err := LoadModel(path, LoadOptions{RemoteTimeout: time.Second, BreakerFailures: 2})
	require.NoError(t, err)
	_, ok := model.(ProbabilisticModel)
	assert.False(t, ok)

	for i := 0; i < 4; i++ {
		_, err := model.Predict(context.Background(), [][]float64{{1}})
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), calls.Load(), "open breaker short-circuits further calls")
}

func probabilisticRemote(t *testing.T, contentType string) (Model, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", contentType)
		json.NewEncoder(w).Encode(remoteResponse{
			Predictions:   []int{1},
			Probabilities: [][]float64{{0.2, 0.8}},
		})
	}))
	t.Cleanup(server.Close)

	path := writeModel(t, map[string]any{
		"kind":       KindRemote,
		"n_features": 8,
		"params":     map[string]any{"url": server.URL, "probabilistic": true},
	})
	model, _, err := LoadModel(path, LoadOptions{RemoteTimeout: 2 * time.Second})
	require.NoError(t, err)
	return model, calls
}

func TestRemoteModel_OneRequestPerInference(t *testing.T) {
	model, calls := probabilisticRemote(t, "application/json")
	_, ok := model.(JointModel)
	require.True(t, ok)

	p := NewPredictor(nil)
	for i := 1; i <= 3; i++ {
		result, err := p.Infer(context.Background(), model, disease.Diabetes, diabetesFeatures())
		require.NoError(t, err)
		assert.Equal(t, "Diabetes Risk Assessment - Positive Indication", result.PredictedDisease)
		assert.Equal(t, RiskHigh, result.RiskLevel)
		assert.Equal(t, "80.0%", result.Confidence)
		assert.Equal(t, int32(i), calls.Load())
	}
}

func TestRemoteModel_DecodesWithoutJSONContentType(t *testing.T) {
	model, calls := probabilisticRemote(t, "text/plain; charset=utf-8")

	labels, proba, err := model.(JointModel).PredictWithProba(context.Background(), [][]float64{diabetesFeatures()})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, labels)
	assert.Equal(t, [][]float64{{0.2, 0.8}}, proba)
	assert.Equal(t, int32(1), calls.Load())
}
