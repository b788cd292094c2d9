package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUnavailable indicates the prediction service failed or is down.
var ErrUnavailable = errors.New("insights: prediction service unavailable")

const clientTimeout = 20 * time.Second

// Prediction is one forecast row for a commune and ISO week.
type Prediction struct {
	Commune         string  `json:"commune"`
	Week            string  `json:"week"`
	PredictedOrders int     `json:"predicted_orders"`
	PredictedLiters float64 `json:"predicted_liters"`
	Confidence      float64 `json:"confidence"`
}

// MLClient talks to the demand prediction microservice.
type MLClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMLClient constructs a prediction client.
func NewMLClient(baseURL string) *MLClient {
	return &MLClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// Health reports whether the prediction service answers.
func (c *MLClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("insights: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Predictions fetches the forecast, optionally narrowed to one commune.
func (c *MLClient) Predictions(ctx context.Context, commune string, weeks int) ([]Prediction, error) {
	q := url.Values{}
	if commune != "" {
		q.Set("commune", commune)
	}
	if weeks > 0 {
		q.Set("weeks", strconv.Itoa(weeks))
	}
	endpoint := c.baseURL + "/predictions"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("insights: build predictions request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var payload struct {
		Predictions []Prediction `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return payload.Predictions, nil
}
