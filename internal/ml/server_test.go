package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveArtifact(t *testing.T, art map[string]any) *httptest.Server {
	t.Helper()
	model, artifact, err := LoadModel(writeModel(t, art), LoadOptions{})
	require.NoError(t, err)

	srv := httptest.NewServer(NewModelServer(model, artifact, "", time.Second).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestModelServer_RoundTripThroughRemoteModel(t *testing.T) {
	srv := serveArtifact(t, treeArtifact(true))

	path := writeModel(t, map[string]any{
		"kind":       KindRemote,
		"n_features": 2,
		"params":     map[string]any{"url": srv.URL, "probabilistic": true},
	})
	model, _, err := LoadModel(path, LoadOptions{RemoteTimeout: 2 * time.Second})
	require.NoError(t, err)

	pm, ok := model.(ProbabilisticModel)
	require.True(t, ok)

	ctx := context.Background()
	labels, err := pm.Predict(ctx, [][]float64{{0, 50}, {0, 150}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, labels)

	proba, err := pm.PredictProba(ctx, [][]float64{{0, 150}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.25, 0.75}}, proba)
}

func TestModelServer_PointModelOmitsProbabilities(t *testing.T) {
	srv := serveArtifact(t, map[string]any{
		"kind":   KindLinearSVM,
		"params": map[string]any{"coef": []float64{1}, "intercept": 0},
	})

	resp, err := http.Post(srv.URL+"/predict", "application/json", strings.NewReader(`{"instances": [[2]]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out remoteResponse
	require.NoError(t, decodeBody(resp, &out))
	assert.Equal(t, []int{1}, out.Predictions)
	assert.Nil(t, out.Probabilities)
}

func TestModelServer_Errors(t *testing.T) {
	srv := serveArtifact(t, treeArtifact(true))

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed body", http.MethodPost, "/predict", "{", http.StatusBadRequest},
		{"no instances", http.MethodPost, "/predict", `{"instances": []}`, http.StatusBadRequest},
		{"wrong width", http.MethodPost, "/predict", `{"instances": [[1, 2, 3]]}`, http.StatusUnprocessableEntity},
		{"wrong method", http.MethodGet, "/predict", "", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestModelServer_Info(t *testing.T) {
	srv := serveArtifact(t, map[string]any{
		"kind":       KindLogisticRegression,
		"version":    "2.1.0",
		"n_features": 2,
		"params":     map[string]any{"coef": []float64{1, 1}, "intercept": 0},
	})

	resp, err := http.Get(srv.URL + "/model/info")
	require.NoError(t, err)
	defer resp.Body.Close()

	var info ModelInfoResponse
	require.NoError(t, decodeBody(resp, &info))
	assert.Equal(t, ModelInfoResponse{
		Kind:          KindLogisticRegression,
		Version:       "2.1.0",
		NFeatures:     2,
		Probabilistic: true,
	}, info)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func decodeBody(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
