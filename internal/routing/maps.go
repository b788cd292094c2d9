package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const directionsTimeout = 15 * time.Second

// DirectionsClient calls the Google Maps Directions API. The base URL is
// configurable so tests can point it at a local server.
type DirectionsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewDirectionsClient constructs a Directions client.
func NewDirectionsClient(baseURL, apiKey string) *DirectionsClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/directions/json"
	}
	return &DirectionsClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: directionsTimeout},
	}
}

// DirectionsRoute is the part of a Directions response the planner needs.
type DirectionsRoute struct {
	WaypointOrder   []int
	DistanceMeters  int
	DurationSeconds int
	Polyline        string
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		WaypointOrder []int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

// OptimizeWaypoints asks Directions for the best visiting order of the
// waypoints between origin and destination, driving, Spanish labels.
func (c *DirectionsClient) OptimizeWaypoints(ctx context.Context, origin, destination LatLng, waypoints []LatLng) (DirectionsRoute, error) {
	points := make([]string, 0, len(waypoints))
	for _, wp := range waypoints {
		points = append(points, wp.String())
	}

	q := url.Values{}
	q.Set("origin", origin.String())
	q.Set("destination", destination.String())
	q.Set("waypoints", "optimize:true|"+strings.Join(points, "|"))
	q.Set("mode", "driving")
	q.Set("language", "es")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return DirectionsRoute{}, fmt.Errorf("routing: build directions request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DirectionsRoute{}, fmt.Errorf("%w: %v", ErrDirectionsUnavailable, err)
	}
	defer resp.Body.Close()

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return DirectionsRoute{}, fmt.Errorf("%w: decode: %v", ErrDirectionsUnavailable, err)
	}
	if payload.Status != "OK" || len(payload.Routes) == 0 {
		msg := payload.ErrorMessage
		if msg == "" {
			msg = payload.Status
		}
		return DirectionsRoute{}, fmt.Errorf("%w: %s", ErrDirectionsUnavailable, msg)
	}

	route := payload.Routes[0]
	out := DirectionsRoute{
		WaypointOrder: route.WaypointOrder,
		Polyline:      route.OverviewPolyline.Points,
	}
	for _, leg := range route.Legs {
		out.DistanceMeters += leg.Distance.Value
		out.DurationSeconds += leg.Duration.Value
	}
	return out, nil
}
