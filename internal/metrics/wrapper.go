package metrics

// MetricsWrapper adapts Metrics to the narrow interface the ml package records
// through, so ml does not import Prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc(disease, risk string) {
	w.m.Predictions.WithLabelValues(disease, risk).Inc()
}

func (w *MetricsWrapper) MLFailuresInc(disease string) {
	w.m.Failures.WithLabelValues(disease).Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(seconds float64) {
	w.m.Latency.Observe(seconds)
}

func (w *MetricsWrapper) MLConfidenceObserve(percent float64) {
	w.m.ConfidenceScore.Observe(percent)
}

func (w *MetricsWrapper) MLFallbackUseInc() {
	w.m.FallbackUse.Inc()
}

func (w *MetricsWrapper) ModelLoadsInc(disease string) {
	w.m.ModelLoads.WithLabelValues(disease).Inc()
}

func (w *MetricsWrapper) ModelLoadFailuresInc(disease string) {
	w.m.ModelLoadFailures.WithLabelValues(disease).Inc()
}

func (w *MetricsWrapper) ModelCacheHitsInc() {
	w.m.ModelCacheHits.Inc()
}

func (w *MetricsWrapper) ModelAgeSet(disease string, seconds float64) {
	w.m.ModelAge.WithLabelValues(disease).Set(seconds)
}
