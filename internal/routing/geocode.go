package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoGeocodeResult indicates the geocoder found nothing for the address.
var ErrNoGeocodeResult = errors.New("routing: address not found")

const geocodeTimeout = 10 * time.Second

// GeocodeClient resolves street addresses to coordinates through the Google
// Maps Geocoding API.
type GeocodeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGeocodeClient constructs a geocoding client.
func NewGeocodeClient(baseURL, apiKey string) *GeocodeClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	}
	return &GeocodeClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: geocodeTimeout},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves one address, biased to Chilean results.
func (c *GeocodeClient) Geocode(ctx context.Context, address string) (LatLng, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("region", "cl")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return LatLng{}, fmt.Errorf("routing: build geocode request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LatLng{}, fmt.Errorf("%w: %v", ErrDirectionsUnavailable, err)
	}
	defer resp.Body.Close()

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return LatLng{}, fmt.Errorf("%w: decode: %v", ErrDirectionsUnavailable, err)
	}
	if payload.Status == "ZERO_RESULTS" || len(payload.Results) == 0 {
		return LatLng{}, ErrNoGeocodeResult
	}
	if payload.Status != "OK" {
		return LatLng{}, fmt.Errorf("%w: %s", ErrDirectionsUnavailable, payload.Status)
	}
	loc := payload.Results[0].Geometry.Location
	return LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}
