package local

import (
	"context"
	"time"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"go.uber.org/zap"
)

type simulator struct {
	n *Navigator
}

// SetUserLocation places the simulated user and stops any running simulation.
func (s simulator) SetUserLocation(location da.Coordinate) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	s.n.stopSimulationLocked()
	s.n.simulatedLocation = &location
}

func (s simulator) UnsetUserLocation() {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	s.n.stopSimulationLocked()
	s.n.simulatedLocation = nil
}

// SimulateLocationsAlongExistingRoute moves the simulated user along the current route. It is
// a no-op without a route.
func (s simulator) SimulateLocationsAlongExistingRoute(options da.SimulationOptions) {
	n := s.n
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.route == nil {
		n.log.Warn("no route to simulate along")
		return
	}
	n.stopSimulationLocked()

	route := n.route
	step := route.travelMode.SpeedMetersPerSecond() * options.GetSpeedMultiplier() * n.simulatedStep.Seconds()
	ctx, cancel := context.WithCancel(context.Background())
	n.stopSimulation = cancel

	n.log.Info("simulating locations along route", zap.Float64("step_m", step),
		zap.Float64("speed_multiplier", options.GetSpeedMultiplier()))
	go n.simulate(ctx, route, step)
}

func (n *Navigator) stopSimulationLocked() {
	if n.stopSimulation != nil {
		n.stopSimulation()
		n.stopSimulation = nil
	}
}

func (n *Navigator) simulate(ctx context.Context, route *activeRoute, step float64) {
	ticker := time.NewTicker(n.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		event, arrived, done := n.tick(ctx, route, step)
		if arrived {
			n.dispatchArrival(event)
		}
		if done {
			return
		}
	}
}

// tick advances the route by one step. done reports that the simulation should end.
func (n *Navigator) tick(ctx context.Context, route *activeRoute, step float64) (da.ArrivalEvent, bool, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ctx.Err() != nil || n.route != route || route.finished {
		return da.ArrivalEvent{}, false, true
	}
	if route.waiting {
		return da.ArrivalEvent{}, false, false
	}

	pos, reached := route.advance(step, n.arrivalRadius)
	loc := da.NewCoordinate(pos.Lat, pos.Lon)
	n.simulatedLocation = &loc
	if !reached || !n.guidanceRunning {
		return da.ArrivalEvent{}, false, false
	}

	w, final := route.arrive()
	if final {
		n.stopSimulationLocked()
	}
	return da.NewArrivalEvent(w, final), true, final
}
