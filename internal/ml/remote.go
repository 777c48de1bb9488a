package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

type remoteParams struct {
	URL           string `json:"url"`
	Probabilistic bool   `json:"probabilistic"`
}

type remoteRequest struct {
	Instances [][]float64 `json:"instances"`
}

type remoteResponse struct {
	Predictions   []int       `json:"predictions"`
	Probabilities [][]float64 `json:"probabilities,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// RemoteModel delegates inference to an external model server over HTTP.
type RemoteModel struct {
	endpoint  string
	nFeatures int
	client    *resty.Client
	breaker   *gobreaker.CircuitBreaker
}

// ProbabilisticRemoteModel is a RemoteModel whose server also returns class
// probabilities.
type ProbabilisticRemoteModel struct {
	*RemoteModel
}

func newRemoteModel(raw json.RawMessage, nFeatures int, opts LoadOptions) (Model, error) {
	var p remoteParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	u, err := url.Parse(p.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", p.URL)
	}

	timeout := opts.RemoteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	endpoint := strings.TrimRight(p.URL, "/") + "/predict"
	m := &RemoteModel{
		endpoint:  endpoint,
		nFeatures: nFeatures,
		client:    resty.New().SetTimeout(timeout),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        endpoint,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Warn().
					Str("circuit_breaker", name).
					Str("from_state", from.String()).
					Str("to_state", to.String()).
					Msg("remote model circuit breaker state changed")
			},
		}),
	}

	if p.Probabilistic {
		return ProbabilisticRemoteModel{m}, nil
	}
	return m, nil
}

func (m *RemoteModel) call(ctx context.Context, X [][]float64) (*remoteResponse, error) {
	if m.nFeatures > 0 {
		if err := checkWidth(X, m.nFeatures); err != nil {
			return nil, err
		}
	}

	out, err := m.breaker.Execute(func() (interface{}, error) {
		result := &remoteResponse{}
		resp, err := m.client.R().
			SetContext(ctx).
			SetBody(remoteRequest{Instances: X}).
			SetResult(result).
			ForceContentType("application/json").
			Post(m.endpoint)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("remote model returned %s", resp.Status())
		}
		if result.Error != "" {
			return nil, fmt.Errorf("remote model error: %s", result.Error)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	result := out.(*remoteResponse)
	if len(result.Predictions) != len(X) {
		return nil, fmt.Errorf("remote model returned %d predictions for %d rows", len(result.Predictions), len(X))
	}
	return result, nil
}

func (m *RemoteModel) Predict(ctx context.Context, X [][]float64) ([]int, error) {
	result, err := m.call(ctx, X)
	if err != nil {
		return nil, err
	}
	return result.Predictions, nil
}

func (m ProbabilisticRemoteModel) PredictProba(ctx context.Context, X [][]float64) ([][]float64, error) {
	_, proba, err := m.PredictWithProba(ctx, X)
	return proba, err
}

// PredictWithProba returns labels and probabilities from one request.
func (m ProbabilisticRemoteModel) PredictWithProba(ctx context.Context, X [][]float64) ([]int, [][]float64, error) {
	result, err := m.call(ctx, X)
	if err != nil {
		return nil, nil, err
	}
	if len(result.Probabilities) != len(X) {
		return nil, nil, errors.New("remote model returned no probabilities")
	}
	return result.Predictions, result.Probabilities, nil
}
