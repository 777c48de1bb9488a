package ml

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu           sync.Mutex
	predictions  map[string]int
	failures     int
	latencySum   float64
	confidences  []float64
	fallbackUse  int
	loads        map[string]int
	loadFailures map[string]int
	cacheHits    int
	modelAge     map[string]float64
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		predictions:  make(map[string]int),
		loads:        make(map[string]int),
		loadFailures: make(map[string]int),
		modelAge:     make(map[string]float64),
	}
}

func (m *MockMetrics) MLPredictionsInc(disease, risk string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[disease+"/"+risk]++
}

func (m *MockMetrics) MLFailuresInc(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) MLConfidenceObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confidences = append(m.confidences, v)
}

func (m *MockMetrics) MLFallbackUseInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbackUse++
}

func (m *MockMetrics) ModelLoadsInc(disease string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads[disease]++
}

func (m *MockMetrics) ModelLoadFailuresInc(disease string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadFailures[disease]++
}

func (m *MockMetrics) ModelCacheHitsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

func (m *MockMetrics) ModelAgeSet(disease string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge[disease] = seconds
}

func (m *MockMetrics) Loads(disease string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[disease]
}

func (m *MockMetrics) LoadFailures(disease string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadFailures[disease]
}

func (m *MockMetrics) CacheHits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheHits
}

func (m *MockMetrics) Predictions(disease, risk string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[disease+"/"+risk]
}

func (m *MockMetrics) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

func (m *MockMetrics) FallbackUse() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbackUse
}

// StubModel is a point model returning fixed labels.
type StubModel struct {
	Labels []int
	Err    error
}

func (s *StubModel) Predict(context.Context, [][]float64) ([]int, error) {
	return s.Labels, s.Err
}

// StubProbabilisticModel is a probabilistic model returning fixed output.
type StubProbabilisticModel struct {
	StubModel
	Proba    [][]float64
	ProbaErr error
}

func (s *StubProbabilisticModel) PredictProba(context.Context, [][]float64) ([][]float64, error) {
	return s.Proba, s.ProbaErr
}

// WriteArtifact serializes art under dir/rel and returns the full path.
func WriteArtifact(dir, rel string, art map[string]any) (string, error) {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	data, err := json.Marshal(art)
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0o600)
}
