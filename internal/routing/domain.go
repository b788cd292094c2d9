package routing

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoOrders indicates the optimize request carried no orders.
	ErrNoOrders = errors.New("routing: no orders to optimize")
	// ErrMissingCoordinates indicates at least one order lacks geocoding.
	ErrMissingCoordinates = errors.New("routing: orders without coordinates")
	// ErrDirectionsUnavailable indicates the Directions API rejected or
	// failed the request.
	ErrDirectionsUnavailable = errors.New("routing: directions unavailable")
	// ErrNotFound indicates the saved route does not exist.
	ErrNotFound = errors.New("routing: route not found")
)

// The Directions API caps a single request at 25 intermediate waypoints.
const maxWaypoints = 25

// Truck capacity in bottles; larger plans get split into several trips.
const truckCapacity = 55

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p LatLng) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lng)
}

// Stop is one delivery in an optimized route, in visiting order.
type Stop struct {
	OrderID      string  `json:"order_id"`
	CustomerName string  `json:"customer_name"`
	Address      string  `json:"address"`
	Commune      string  `json:"commune"`
	Quantity     int     `json:"quantity"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	OrderIndex   int     `json:"order_index"`
}

// OptimizedRoute is the reshaped Directions response handed to clients.
type OptimizedRoute struct {
	Stops           []Stop `json:"steps"`
	TotalDistance   string `json:"total_distance"`
	TotalDuration   string `json:"total_duration"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	Polyline        string `json:"polyline,omitempty"`
	WaypointOrder   []int  `json:"waypoint_order"`
}

// TripGroup is a capacity-bounded batch of orders forming one truck trip.
type TripGroup struct {
	TripNumber   int          `json:"trip_number"`
	TotalBottles int          `json:"total_bottles"`
	Orders       []OrderInput `json:"orders"`
}

// OrderInput is a routable order as posted by the planner screen.
type OrderInput struct {
	OrderID      string   `json:"order_id" validate:"required"`
	CustomerName string   `json:"customer_name"`
	Address      string   `json:"raw_address"`
	Commune      string   `json:"commune"`
	Quantity     int      `json:"quantity"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// SavedRoute is a persisted delivery plan.
type SavedRoute struct {
	ID              string    `json:"route_id"`
	Name            string    `json:"route_name"`
	RouteDate       time.Time `json:"route_date"`
	Stops           []Stop    `json:"stops"`
	DistanceMeters  int       `json:"distance_meters"`
	DurationSeconds int       `json:"duration_seconds"`
	Polyline        string    `json:"polyline,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// FormatDistance renders meters the way drivers read them.
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

// FormatDuration renders seconds as hours and minutes.
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}
	return fmt.Sprintf("%d min", minutes)
}
