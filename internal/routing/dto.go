package routing

import "time"

// OptimizeRequest carries the orders to plan, as listed by the planner.
type OptimizeRequest struct {
	Orders []OrderInput `json:"orders" validate:"required,min=1,dive"`
}

// SaveRouteRequest persists a plan the dispatcher accepted.
type SaveRouteRequest struct {
	RouteName       string    `json:"route_name" validate:"required,max=200"`
	RouteDate       time.Time `json:"route_date,omitempty"`
	Stops           []Stop    `json:"stops" validate:"required,min=1"`
	DistanceMeters  int       `json:"distance_meters" validate:"gte=0"`
	DurationSeconds int       `json:"duration_seconds" validate:"gte=0"`
	Polyline        string    `json:"polyline,omitempty"`
}
