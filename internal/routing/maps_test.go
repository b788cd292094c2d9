package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOptimizeWaypointsParsesDirectionsResponse(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"origin":    q.Get("origin"),
			"waypoints": q.Get("waypoints"),
			"mode":      q.Get("mode"),
			"language":  q.Get("language"),
			"key":       q.Get("key"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"waypoint_order": [1, 0],
				"legs": [
					{"distance": {"value": 4200}, "duration": {"value": 600}},
					{"distance": {"value": 3800}, "duration": {"value": 540}},
					{"distance": {"value": 5000}, "duration": {"value": 660}}
				],
				"overview_polyline": {"points": "poly123"}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewDirectionsClient(srv.URL, "test-key")
	route, err := client.OptimizeWaypoints(context.Background(),
		LatLng{Lat: -33.5334497, Lng: -70.7651785},
		LatLng{Lat: -33.492359, Lng: -70.6563238},
		[]LatLng{{Lat: -33.51, Lng: -70.75}, {Lat: -33.44, Lng: -70.76}},
	)
	if err != nil {
		t.Fatalf("OptimizeWaypoints: %v", err)
	}

	if gotQuery["origin"] != "-33.5334497,-70.7651785" {
		t.Fatalf("origin = %q", gotQuery["origin"])
	}
	if !strings.HasPrefix(gotQuery["waypoints"], "optimize:true|") {
		t.Fatalf("waypoints = %q", gotQuery["waypoints"])
	}
	if gotQuery["mode"] != "driving" || gotQuery["language"] != "es" || gotQuery["key"] != "test-key" {
		t.Fatalf("query = %v", gotQuery)
	}

	if len(route.WaypointOrder) != 2 || route.WaypointOrder[0] != 1 {
		t.Fatalf("waypoint order = %v", route.WaypointOrder)
	}
	if route.DistanceMeters != 13000 {
		t.Fatalf("distance = %d, want legs summed", route.DistanceMeters)
	}
	if route.DurationSeconds != 1800 {
		t.Fatalf("duration = %d", route.DurationSeconds)
	}
	if route.Polyline != "poly123" {
		t.Fatalf("polyline = %q", route.Polyline)
	}
}

func TestOptimizeWaypointsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "API key invalid", "routes": []}`))
	}))
	defer srv.Close()

	client := NewDirectionsClient(srv.URL, "bad-key")
	_, err := client.OptimizeWaypoints(context.Background(), LatLng{}, LatLng{}, []LatLng{{Lat: 1, Lng: 2}})
	if !errors.Is(err, ErrDirectionsUnavailable) {
		t.Fatalf("err = %v, want ErrDirectionsUnavailable", err)
	}
	if !strings.Contains(err.Error(), "API key invalid") {
		t.Fatalf("err = %v, want upstream message included", err)
	}
}

func TestOptimizeWaypointsUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewDirectionsClient(srv.URL, "key")
	_, err := client.OptimizeWaypoints(context.Background(), LatLng{}, LatLng{}, []LatLng{{Lat: 1, Lng: 2}})
	if !errors.Is(err, ErrDirectionsUnavailable) {
		t.Fatalf("err = %v, want ErrDirectionsUnavailable", err)
	}
}
