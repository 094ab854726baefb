package controllers

import (
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/http/usecases"
)

type waypointRequest struct {
	PlaceID              string   `json:"place_id" validate:"max=1024"`
	Lat                  *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon                  *float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
	Title                string   `json:"title" validate:"max=256"`
	PreferSameSideOfRoad bool     `json:"prefer_same_side_of_road"`
	PreferredHeading     *int     `json:"preferred_heading" validate:"omitempty,min=0,max=359"`
}

func (w waypointRequest) toInput() usecases.WaypointInput {
	return usecases.WaypointInput{
		PlaceID:              w.PlaceID,
		Lat:                  w.Lat,
		Lon:                  w.Lon,
		Title:                w.Title,
		PreferSameSideOfRoad: w.PreferSameSideOfRoad,
		PreferredHeading:     w.PreferredHeading,
	}
}

func toInputs(ws []waypointRequest) []usecases.WaypointInput {
	inputs := make([]usecases.WaypointInput, len(ws))
	for i, w := range ws {
		inputs[i] = w.toInput()
	}
	return inputs
}

type coordinateRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

func (c *coordinateRequest) toCoordinate() *da.Coordinate {
	if c == nil {
		return nil
	}
	coord := da.NewCoordinate(c.Lat, c.Lon)
	return &coord
}

type routingOptionsRequest struct {
	TravelMode              string `json:"travel_mode" validate:"omitempty,oneof=driving cycling walking two_wheeler taxi"`
	RoutingStrategy         string `json:"routing_strategy" validate:"omitempty,oneof=default_best shorter"`
	AvoidFerries            bool   `json:"avoid_ferries"`
	AvoidTolls              bool   `json:"avoid_tolls"`
	AvoidHighways           bool   `json:"avoid_highways"`
	AlternateRoutesStrategy string `json:"alternate_routes_strategy" validate:"omitempty,oneof=show_all show_one show_none"`
}

func parseTravelMode(s string) (da.TravelMode, error) {
	if s == "" {
		return da.DRIVING, nil
	}
	return da.ParseTravelMode(s)
}

func (r *routingOptionsRequest) toRoutingOptions() (*da.RoutingOptions, error) {
	if r == nil {
		return nil, nil
	}
	mode, err := parseTravelMode(r.TravelMode)
	if err != nil {
		return nil, err
	}
	strategy, err := da.ParseRoutingStrategy(r.RoutingStrategy)
	if err != nil {
		return nil, err
	}
	alternates, err := da.ParseAlternateRoutesStrategy(r.AlternateRoutesStrategy)
	if err != nil {
		return nil, err
	}
	return da.NewRoutingOptions().
		TravelMode(mode).
		RoutingStrategy(strategy).
		AvoidFerries(r.AvoidFerries).
		AvoidTolls(r.AvoidTolls).
		AvoidHighways(r.AvoidHighways).
		AlternateRoutesStrategy(alternates), nil
}

type displayOptionsRequest struct {
	ShowDestinationMarkers *bool `json:"show_destination_markers"`
	ShowTrafficLights      bool  `json:"show_traffic_lights"`
	ShowStopSigns          bool  `json:"show_stop_signs"`
}

func (r *displayOptionsRequest) toDisplayOptions() *da.DisplayOptions {
	if r == nil {
		return nil
	}
	do := da.NewDisplayOptions().ShowTrafficLights(r.ShowTrafficLights).ShowStopSigns(r.ShowStopSigns)
	if r.ShowDestinationMarkers != nil {
		do.ShowDestinationMarkers(*r.ShowDestinationMarkers)
	}
	return do
}

type destinationRequest struct {
	Destination    waypointRequest        `json:"destination"`
	RoutingOptions *routingOptionsRequest `json:"routing_options"`
	DisplayOptions *displayOptionsRequest `json:"display_options"`
	Origin         *coordinateRequest     `json:"origin"`
}

type waypointsRequest struct {
	Destinations   []waypointRequest      `json:"destinations" validate:"max=25,dive"`
	RoutingOptions *routingOptionsRequest `json:"routing_options"`
	DisplayOptions *displayOptionsRequest `json:"display_options"`
	Origin         *coordinateRequest     `json:"origin"`
}

type routeTokenNavigationRequest struct {
	Destinations   []waypointRequest      `json:"destinations" validate:"max=25,dive"`
	RouteToken     string                 `json:"route_token" validate:"max=65536"`
	TravelMode     string                 `json:"travel_mode" validate:"omitempty,oneof=driving cycling walking two_wheeler taxi"`
	DisplayOptions *displayOptionsRequest `json:"display_options"`
	Origin         *coordinateRequest     `json:"origin"`
}

type mintRouteTokenRequest struct {
	Destinations   []waypointRequest      `json:"destinations" validate:"required,min=1,max=25,dive"`
	RoutingOptions *routingOptionsRequest `json:"routing_options"`
	Origin         *coordinateRequest     `json:"origin"`
}

type submissionResponse struct {
	Message string `json:"message"`
}

type routeTokenResponse struct {
	RouteToken string `json:"route_token"`
}

func NewRouteTokenResponse(token string) routeTokenResponse {
	return routeTokenResponse{RouteToken: token}
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
