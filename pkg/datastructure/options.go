package datastructure

import (
	"fmt"
	"strings"
)

type TravelMode uint8

const (
	DRIVING TravelMode = iota
	CYCLING
	WALKING
	TWO_WHEELER
	TAXI
)

var travelModeNames = [...]string{"driving", "cycling", "walking", "two_wheeler", "taxi"}

func (m TravelMode) String() string {
	if int(m) < len(travelModeNames) {
		return travelModeNames[m]
	}
	return fmt.Sprintf("travel_mode(%d)", m)
}

func ParseTravelMode(s string) (TravelMode, error) {
	for i, name := range travelModeNames {
		if strings.EqualFold(s, name) {
			return TravelMode(i), nil
		}
	}
	return DRIVING, fmt.Errorf("unknown travel mode %q", s)
}

// SpeedMetersPerSecond is the nominal speed used when replaying a route in simulation.
func (m TravelMode) SpeedMetersPerSecond() float64 {
	switch m {
	case WALKING:
		return 1.4
	case CYCLING:
		return 4.5
	case TWO_WHEELER:
		return 9.0
	default:
		return 11.0
	}
}

type RoutingStrategy uint8

const (
	DEFAULT_BEST RoutingStrategy = iota
	SHORTER
)

func (s RoutingStrategy) String() string {
	if s == SHORTER {
		return "shorter"
	}
	return "default_best"
}

func ParseRoutingStrategy(s string) (RoutingStrategy, error) {
	switch strings.ToLower(s) {
	case "", "default_best":
		return DEFAULT_BEST, nil
	case "shorter":
		return SHORTER, nil
	}
	return DEFAULT_BEST, fmt.Errorf("unknown routing strategy %q", s)
}

type AlternateRoutesStrategy uint8

const (
	SHOW_ALL AlternateRoutesStrategy = iota
	SHOW_ONE
	SHOW_NONE
)

func (s AlternateRoutesStrategy) String() string {
	switch s {
	case SHOW_ONE:
		return "show_one"
	case SHOW_NONE:
		return "show_none"
	}
	return "show_all"
}

func ParseAlternateRoutesStrategy(s string) (AlternateRoutesStrategy, error) {
	switch strings.ToLower(s) {
	case "", "show_all":
		return SHOW_ALL, nil
	case "show_one":
		return SHOW_ONE, nil
	case "show_none":
		return SHOW_NONE, nil
	}
	return SHOW_ALL, fmt.Errorf("unknown alternate routes strategy %q", s)
}

// RoutingOptions controls path computation. Setters chain.
type RoutingOptions struct {
	travelMode              TravelMode
	routingStrategy         RoutingStrategy
	avoidFerries            bool
	avoidTolls              bool
	avoidHighways           bool
	alternateRoutesStrategy AlternateRoutesStrategy
}

func NewRoutingOptions() *RoutingOptions {
	return &RoutingOptions{}
}

func (o *RoutingOptions) TravelMode(m TravelMode) *RoutingOptions {
	o.travelMode = m
	return o
}

func (o *RoutingOptions) RoutingStrategy(s RoutingStrategy) *RoutingOptions {
	o.routingStrategy = s
	return o
}

func (o *RoutingOptions) AvoidFerries(avoid bool) *RoutingOptions {
	o.avoidFerries = avoid
	return o
}

func (o *RoutingOptions) AvoidTolls(avoid bool) *RoutingOptions {
	o.avoidTolls = avoid
	return o
}

func (o *RoutingOptions) AvoidHighways(avoid bool) *RoutingOptions {
	o.avoidHighways = avoid
	return o
}

func (o *RoutingOptions) AlternateRoutesStrategy(s AlternateRoutesStrategy) *RoutingOptions {
	o.alternateRoutesStrategy = s
	return o
}

func (o *RoutingOptions) GetTravelMode() TravelMode {
	if o == nil {
		return DRIVING
	}
	return o.travelMode
}

func (o *RoutingOptions) GetRoutingStrategy() RoutingStrategy {
	if o == nil {
		return DEFAULT_BEST
	}
	return o.routingStrategy
}

func (o *RoutingOptions) GetAvoidFerries() bool {
	return o != nil && o.avoidFerries
}

func (o *RoutingOptions) GetAvoidTolls() bool {
	return o != nil && o.avoidTolls
}

func (o *RoutingOptions) GetAvoidHighways() bool {
	return o != nil && o.avoidHighways
}

func (o *RoutingOptions) GetAlternateRoutesStrategy() AlternateRoutesStrategy {
	if o == nil {
		return SHOW_ALL
	}
	return o.alternateRoutesStrategy
}

// DisplayOptions controls on-map presentation of the route.
type DisplayOptions struct {
	showDestinationMarkers bool
	showTrafficLights      bool
	showStopSigns          bool
}

func NewDisplayOptions() *DisplayOptions {
	return &DisplayOptions{showDestinationMarkers: true}
}

func (o *DisplayOptions) ShowDestinationMarkers(show bool) *DisplayOptions {
	o.showDestinationMarkers = show
	return o
}

func (o *DisplayOptions) ShowTrafficLights(show bool) *DisplayOptions {
	o.showTrafficLights = show
	return o
}

func (o *DisplayOptions) ShowStopSigns(show bool) *DisplayOptions {
	o.showStopSigns = show
	return o
}

func (o *DisplayOptions) GetShowDestinationMarkers() bool {
	return o == nil || o.showDestinationMarkers
}

func (o *DisplayOptions) GetShowTrafficLights() bool {
	return o != nil && o.showTrafficLights
}

func (o *DisplayOptions) GetShowStopSigns() bool {
	return o != nil && o.showStopSigns
}

// CustomRoutesOptions carries a pre-computed route token.
type CustomRoutesOptions struct {
	routeToken string
	travelMode TravelMode
}

func NewCustomRoutesOptions(routeToken string, travelMode TravelMode) CustomRoutesOptions {
	return CustomRoutesOptions{routeToken: routeToken, travelMode: travelMode}
}

func (o CustomRoutesOptions) GetRouteToken() string {
	return o.routeToken
}

func (o CustomRoutesOptions) GetTravelMode() TravelMode {
	return o.travelMode
}

type SimulationOptions struct {
	speedMultiplier float64
}

func NewSimulationOptions() SimulationOptions {
	return SimulationOptions{speedMultiplier: 1}
}

func (o SimulationOptions) SpeedMultiplier(m float64) SimulationOptions {
	o.speedMultiplier = m
	return o
}

func (o SimulationOptions) GetSpeedMultiplier() float64 {
	if o.speedMultiplier <= 0 {
		return 1
	}
	return o.speedMultiplier
}
