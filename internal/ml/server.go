package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ModelServer exposes a loaded Model over the protocol RemoteModel speaks,
// so a "remote" artifact can point at another process.
type ModelServer struct {
	model    Model
	artifact *Artifact
	timeout  time.Duration
	server   *http.Server
}

// ModelInfoResponse describes the served model
type ModelInfoResponse struct {
	Kind          string `json:"kind"`
	Version       string `json:"version,omitempty"`
	NFeatures     int    `json:"n_features,omitempty"`
	Probabilistic bool   `json:"probabilistic"`
}

// NewModelServer creates a new HTTP server for model serving
func NewModelServer(model Model, artifact *Artifact, addr string, timeout time.Duration) *ModelServer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ms := &ModelServer{
		model:    model,
		artifact: artifact,
		timeout:  timeout,
	}

	ms.server = &http.Server{
		Addr:              addr,
		Handler:           ms.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return ms
}

// Handler returns the routed handler
func (ms *ModelServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", ms.handlePredict)
	mux.HandleFunc("GET /health", ms.handleHealth)
	mux.HandleFunc("GET /model/info", ms.handleModelInfo)
	return mux
}

// Start begins serving HTTP requests
func (ms *ModelServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Msg("starting model server")
	return ms.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ms *ModelServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

func (ms *ModelServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req remoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, remoteResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if len(req.Instances) == 0 {
		writeJSON(w, http.StatusBadRequest, remoteResponse{Error: "instances cannot be empty"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ms.timeout)
	defer cancel()

	labels, err := ms.model.Predict(ctx, req.Instances)
	if err != nil {
		log.Error().Err(err).Msg("prediction failed")
		writeJSON(w, http.StatusUnprocessableEntity, remoteResponse{Error: err.Error()})
		return
	}
	resp := remoteResponse{Predictions: labels}

	if pm, ok := ms.model.(ProbabilisticModel); ok {
		proba, err := pm.PredictProba(ctx, req.Instances)
		if err != nil {
			log.Error().Err(err).Msg("probability prediction failed")
			writeJSON(w, http.StatusUnprocessableEntity, remoteResponse{Error: err.Error()})
			return
		}
		resp.Probabilities = proba
	}

	log.Debug().
		Int("instances", len(req.Instances)).
		Dur("latency", time.Since(start)).
		Msg("served prediction")
	writeJSON(w, http.StatusOK, resp)
}

func (ms *ModelServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (ms *ModelServer) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	_, probabilistic := ms.model.(ProbabilisticModel)
	info := ModelInfoResponse{Probabilistic: probabilistic}
	if ms.artifact != nil {
		info.Kind = ms.artifact.Kind
		info.Version = ms.artifact.Version
		info.NFeatures = ms.artifact.NFeatures
	}
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
