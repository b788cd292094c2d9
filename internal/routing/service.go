package routing

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

// Optimizer resolves the best visiting order for a set of waypoints.
type Optimizer interface {
	OptimizeWaypoints(ctx context.Context, origin, destination LatLng, waypoints []LatLng) (DirectionsRoute, error)
}

// RepositoryPort defines persistence for saved delivery plans.
type RepositoryPort interface {
	List(ctx context.Context) ([]SavedRoute, error)
	Get(ctx context.Context, id string) (SavedRoute, error)
	Save(ctx context.Context, route SavedRoute) (SavedRoute, error)
	Delete(ctx context.Context, id string) error
}

// Service plans delivery routes from the warehouse.
type Service struct {
	optimizer   Optimizer
	repo        RepositoryPort
	auditor     *audit.Recorder
	origin      LatLng
	destination LatLng
}

// NewService builds Service instance. Origin is the warehouse, destination
// the fixed end of every trip.
func NewService(optimizer Optimizer, repo RepositoryPort, auditor *audit.Recorder, origin, destination LatLng) *Service {
	return &Service{optimizer: optimizer, repo: repo, auditor: auditor, origin: origin, destination: destination}
}

// Optimize plans the visiting order for the posted orders. Every order must
// carry coordinates; at most 25 waypoints go to the Directions API, the rest
// are dropped from the plan.
func (s *Service) Optimize(ctx context.Context, orders []OrderInput) (OptimizedRoute, error) {
	if len(orders) == 0 {
		return OptimizedRoute{}, ErrNoOrders
	}
	for _, o := range orders {
		if o.Latitude == nil || o.Longitude == nil {
			return OptimizedRoute{}, ErrMissingCoordinates
		}
	}
	if len(orders) > maxWaypoints {
		orders = orders[:maxWaypoints]
	}

	waypoints := make([]LatLng, len(orders))
	for i, o := range orders {
		waypoints[i] = LatLng{Lat: *o.Latitude, Lng: *o.Longitude}
	}

	route, err := s.optimizer.OptimizeWaypoints(ctx, s.origin, s.destination, waypoints)
	if err != nil {
		return OptimizedRoute{}, err
	}

	stops := make([]Stop, 0, len(route.WaypointOrder))
	for position, index := range route.WaypointOrder {
		if index < 0 || index >= len(orders) {
			continue
		}
		o := orders[index]
		stops = append(stops, Stop{
			OrderID:      o.OrderID,
			CustomerName: o.CustomerName,
			Address:      o.Address,
			Commune:      o.Commune,
			Quantity:     o.Quantity,
			Latitude:     *o.Latitude,
			Longitude:    *o.Longitude,
			OrderIndex:   position + 1,
		})
	}

	return OptimizedRoute{
		Stops:           stops,
		TotalDistance:   FormatDistance(route.DistanceMeters),
		TotalDuration:   FormatDuration(route.DurationSeconds),
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Polyline:        route.Polyline,
		WaypointOrder:   route.WaypointOrder,
	}, nil
}

// GroupByCapacity splits orders into truck trips of at most 55 bottles,
// keeping communes together where possible.
func (s *Service) GroupByCapacity(orders []OrderInput) []TripGroup {
	if len(orders) == 0 {
		return []TripGroup{}
	}

	total := 0
	for _, o := range orders {
		total += o.Quantity
	}
	if total <= truckCapacity {
		return []TripGroup{{TripNumber: 1, TotalBottles: total, Orders: orders}}
	}

	byCommune := map[string][]OrderInput{}
	for _, o := range orders {
		commune := o.Commune
		if commune == "" {
			commune = "Sin Comuna"
		}
		byCommune[commune] = append(byCommune[commune], o)
	}

	type bucket struct {
		commune string
		orders  []OrderInput
		bottles int
	}
	buckets := make([]bucket, 0, len(byCommune))
	for commune, list := range byCommune {
		b := bucket{commune: commune, orders: list}
		for _, o := range list {
			b.bottles += o.Quantity
		}
		buckets = append(buckets, b)
	}
	// Largest communes first so they anchor trips.
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].bottles != buckets[j].bottles {
			return buckets[i].bottles > buckets[j].bottles
		}
		return buckets[i].commune < buckets[j].commune
	})

	var groups []TripGroup
	tripNumber := 1
	flush := func(orders []OrderInput, bottles int) {
		if len(orders) == 0 {
			return
		}
		groups = append(groups, TripGroup{TripNumber: tripNumber, TotalBottles: bottles, Orders: orders})
		tripNumber++
	}

	var current []OrderInput
	currentBottles := 0
	for _, b := range buckets {
		if b.bottles > truckCapacity {
			// This commune alone overflows a truck, split it order by order.
			flush(current, currentBottles)
			current, currentBottles = nil, 0

			var part []OrderInput
			partBottles := 0
			for _, o := range b.orders {
				if partBottles+o.Quantity > truckCapacity && len(part) > 0 {
					flush(part, partBottles)
					part, partBottles = nil, 0
				}
				part = append(part, o)
				partBottles += o.Quantity
			}
			flush(part, partBottles)
			continue
		}
		if currentBottles+b.bottles > truckCapacity {
			flush(current, currentBottles)
			current, currentBottles = nil, 0
		}
		current = append(current, b.orders...)
		currentBottles += b.bottles
	}
	flush(current, currentBottles)
	return groups
}

// List returns the saved delivery plans, newest first.
func (s *Service) List(ctx context.Context) ([]SavedRoute, error) {
	return s.repo.List(ctx)
}

// Get returns one saved plan.
func (s *Service) Get(ctx context.Context, id string) (SavedRoute, error) {
	return s.repo.Get(ctx, id)
}

// Save persists a delivery plan and audits it.
func (s *Service) Save(ctx context.Context, actorID string, req SaveRouteRequest) (SavedRoute, error) {
	routeDate := req.RouteDate
	if routeDate.IsZero() {
		routeDate = time.Now()
	}
	saved, err := s.repo.Save(ctx, SavedRoute{
		Name:            strings.TrimSpace(req.RouteName),
		RouteDate:       routeDate,
		Stops:           req.Stops,
		DistanceMeters:  req.DistanceMeters,
		DurationSeconds: req.DurationSeconds,
		Polyline:        req.Polyline,
		CreatedBy:       actorID,
	})
	if err != nil {
		return SavedRoute{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionRouteSaved,
		EntityType: "route",
		EntityID:   saved.ID,
		NewValue: map[string]any{
			"route_name": saved.Name,
			"stops":      len(saved.Stops),
			"distance":   FormatDistance(saved.DistanceMeters),
		},
	})
	return saved, nil
}

// Delete removes a saved plan.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
