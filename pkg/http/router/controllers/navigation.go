package controllers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/navguide/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

const msgRouteRequested = "route requested"

type navigationAPI struct {
	responder
	navigationService NavigationService
	log               *zap.Logger
}

func New(navigationService NavigationService, log *zap.Logger) *navigationAPI {
	return &navigationAPI{
		responder:         responder{log: log},
		navigationService: navigationService,
		log:               log,
	}
}

func (api *navigationAPI) Routes(group *helper.RouteGroup) {
	nav := group.Group("/navigation")
	nav.POST("/destination", api.navigateToDestination)
	nav.POST("/waypoints", api.navigateThroughWaypoints)
	nav.POST("/token", api.navigateWithRouteToken)
	nav.GET("/status", api.status)
	nav.DELETE("", api.reset)

	group.POST("/routeTokens", api.mintRouteToken)
}

// navigateToDestination godoc
//
//	@Summary	request a route to one destination and start simulated guidance when it is found
//	@Tags		navigation
//	@Accept		json
//	@Produce	json
//	@Param		body	body		destinationRequest	true	"destination"
//	@Success	202		{object}	submissionResponse
//	@Failure	400		{object}	errorResponse
//	@Failure	409		{object}	errorResponse
//	@Router		/navigation/destination [post]
func (api *navigationAPI) navigateToDestination(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request destinationRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	routingOptions, err := request.RoutingOptions.toRoutingOptions()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	err = api.navigationService.NavigateToDestination(r.Context(), request.Destination.toInput(),
		routingOptions, request.DisplayOptions.toDisplayOptions(), request.Origin.toCoordinate())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	api.accepted(w, r)
}

// navigateThroughWaypoints godoc
//
//	@Summary	request a route through several destinations in order
//	@Tags		navigation
//	@Accept		json
//	@Produce	json
//	@Param		body	body		waypointsRequest	true	"destinations"
//	@Success	202		{object}	submissionResponse
//	@Failure	400		{object}	errorResponse
//	@Failure	409		{object}	errorResponse
//	@Router		/navigation/waypoints [post]
func (api *navigationAPI) navigateThroughWaypoints(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request waypointsRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	routingOptions, err := request.RoutingOptions.toRoutingOptions()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	err = api.navigationService.NavigateThroughWaypoints(r.Context(), toInputs(request.Destinations),
		routingOptions, request.DisplayOptions.toDisplayOptions(), request.Origin.toCoordinate())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	api.accepted(w, r)
}

// navigateWithRouteToken godoc
//
//	@Summary	follow a route token computed for the given destinations
//	@Tags		navigation
//	@Accept		json
//	@Produce	json
//	@Param		body	body		routeTokenNavigationRequest	true	"destinations and token"
//	@Success	202		{object}	submissionResponse
//	@Failure	400		{object}	errorResponse
//	@Failure	409		{object}	errorResponse
//	@Router		/navigation/token [post]
func (api *navigationAPI) navigateWithRouteToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request routeTokenNavigationRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	mode, err := parseTravelMode(request.TravelMode)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	err = api.navigationService.NavigateWithRouteToken(r.Context(), toInputs(request.Destinations),
		request.RouteToken, mode, request.DisplayOptions.toDisplayOptions(), request.Origin.toCoordinate())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	api.accepted(w, r)
}

// mintRouteToken godoc
//
//	@Summary	compute a route and return it as a route token
//	@Tags		navigation
//	@Accept		json
//	@Produce	json
//	@Param		body	body		mintRouteTokenRequest	true	"destinations"
//	@Success	200		{object}	routeTokenResponse
//	@Failure	400		{object}	errorResponse
//	@Failure	404		{object}	errorResponse
//	@Router		/routeTokens [post]
func (api *navigationAPI) mintRouteToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request mintRouteTokenRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validate(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	routingOptions, err := request.RoutingOptions.toRoutingOptions()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	token, err := api.navigationService.MintRouteToken(r.Context(), toInputs(request.Destinations),
		routingOptions, request.Origin.toCoordinate())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewRouteTokenResponse(token)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// status godoc
//
//	@Summary	orchestrator and navigator state
//	@Tags		navigation
//	@Produce	json
//	@Success	200	{object}	usecases.NavigationStatus
//	@Router		/navigation/status [get]
func (api *navigationAPI) status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st, err := api.navigationService.Status(r.Context())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": st}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// reset godoc
//
//	@Summary	stop guidance, clear destinations and start a new session
//	@Tags		navigation
//	@Success	204
//	@Router		/navigation [delete]
func (api *navigationAPI) reset(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := api.navigationService.Reset(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *navigationAPI) accepted(w http.ResponseWriter, r *http.Request) {
	if err := api.writeJSON(w, http.StatusAccepted, envelope{"data": submissionResponse{Message: msgRouteRequested}}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
