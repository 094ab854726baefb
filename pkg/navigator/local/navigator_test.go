package local

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/geo"
	"github.com/lintang-b-s/navguide/pkg/navigator"
	"github.com/lintang-b-s/navguide/pkg/permission"
	"github.com/lintang-b-s/navguide/pkg/places"
	"github.com/lintang-b-s/navguide/pkg/routeclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var startLocation = da.NewCoordinate(-33.912182, 151.259678)

// straightLineProvider answers every request with a two segment line to the destination.
type straightLineProvider struct {
	mu       sync.Mutex
	requests []routeclient.Request
	contexts []context.Context
	err      error
	block    bool
}

func (p *straightLineProvider) ComputeRoute(ctx context.Context, req routeclient.Request) (*routeclient.Route, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.contexts = append(p.contexts, ctx)
	err, block := p.err, p.block
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	from, to := req.Origin.ToGeoCoordinate(), req.Destination.ToGeoCoordinate()
	path := []geo.Coordinate{from, geo.Interpolate(from, to, 0.5), to}
	dist := geo.PathLengthMeters(path)
	return &routeclient.Route{
		Polyline:        geo.PolylineFromCoords(path),
		DistanceMeters:  dist,
		DurationSeconds: dist / 10,
		Path:            path,
	}, nil
}

func (p *straightLineProvider) Requests() []routeclient.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]routeclient.Request(nil), p.requests...)
}

func await(t *testing.T, pending navigator.PendingRoute) da.RouteStatus {
	t.Helper()
	ch := make(chan da.RouteStatus, 1)
	pending.SetOnResultListener(func(status da.RouteStatus) { ch <- status })
	select {
	case status := <-ch:
		return status
	case <-time.After(2 * time.Second):
		t.Fatal("route result not delivered")
	}
	return da.RouteStatus(-1)
}

func waypoint(t *testing.T, lat, lon float64, title string) da.Waypoint {
	t.Helper()
	w, err := da.NewLatLngWaypoint(lat, lon, title)
	require.NoError(t, err)
	return w
}

func newTestNavigator(provider RouteProvider, resolver PlaceResolver, opts ...Option) *Navigator {
	opts = append([]Option{WithTick(time.Millisecond, 10*time.Second)}, opts...)
	return New(provider, resolver, zap.NewNop(), opts...)
}

func TestSetDestination(t *testing.T) {
	provider := &straightLineProvider{}
	nav := newTestNavigator(provider, nil)
	nav.Simulator().SetUserLocation(startLocation)

	changed := make(chan da.RouteChangedEvent, 1)
	nav.AddRouteChangedListener(func(e da.RouteChangedEvent) { changed <- e })

	heading := 90
	dest, err := da.NewWaypointBuilder().SetLatLng(-33.9, 151.26).SetTitle("Dest").
		SetPreferredHeading(heading).Build()
	require.NoError(t, err)

	status := await(t, nav.SetDestination(dest, da.NewRoutingOptions(), nil))
	assert.Equal(t, da.OK, status)

	select {
	case e := <-changed:
		assert.Equal(t, 1, e.GetRemainingWaypoints())
		assert.Greater(t, e.GetDistanceMeters(), 1000.0)
	case <-time.After(time.Second):
		t.Fatal("route changed event not delivered")
	}

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, startLocation, reqs[0].Origin)
	require.NotNil(t, reqs[0].Heading)
	assert.Equal(t, heading, *reqs[0].Heading)

	st := nav.State()
	require.Len(t, st.Destinations, 1)
	assert.Equal(t, "Dest", st.Destinations[0].GetTitle())
	require.NotNil(t, st.Heading)
	assert.InDelta(t, geo.Bearing(startLocation.ToGeoCoordinate(), geo.NewCoordinate(-33.9, 151.26)), *st.Heading, 1.0)
	require.NotNil(t, st.DistanceFromRouteMeters)
	assert.InDelta(t, 0.0, *st.DistanceFromRouteMeters, 1.0)
	assert.True(t, nav.StartGuidance())
}

func TestSetDestinationsLocationStatus(t *testing.T) {
	testCases := []struct {
		name   string
		setup  func(n *Navigator)
		opts   []Option
		status da.RouteStatus
	}{
		{
			name:   "no location",
			setup:  func(n *Navigator) {},
			status: da.LOCATION_UNKNOWN,
		},
		{
			name:   "location disabled",
			setup:  func(n *Navigator) { n.SetLocationEnabled(false) },
			opts:   []Option{WithDeviceLocation(startLocation)},
			status: da.LOCATION_DISABLED,
		},
		{
			name:   "device location",
			setup:  func(n *Navigator) {},
			opts:   []Option{WithDeviceLocation(startLocation)},
			status: da.OK,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			nav := newTestNavigator(&straightLineProvider{}, nil, tt.opts...)
			tt.setup(nav)
			status := await(t, nav.SetDestinations([]da.Waypoint{waypoint(t, -33.9, 151.26, "")}, nil, nil))
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestSetDestinationsPlaces(t *testing.T) {
	catalog := places.NewCatalog(zap.NewNop())
	require.NoError(t, catalog.Add(places.Place{
		ID:         "osm:node:42",
		Title:      "Bondi",
		Coordinate: da.NewCoordinate(-33.8908, 151.2743),
	}))

	provider := &straightLineProvider{}
	nav := newTestNavigator(provider, catalog, WithDeviceLocation(startLocation))

	known, err := da.NewPlaceWaypoint("osm:node:42", "Bondi")
	require.NoError(t, err)
	assert.Equal(t, da.OK, await(t, nav.SetDestination(known, nil, nil)))
	require.Len(t, provider.Requests(), 1)
	assert.Equal(t, da.NewCoordinate(-33.8908, 151.2743), provider.Requests()[0].Destination)

	unknown, err := da.NewPlaceWaypoint("osm:node:43", "")
	require.NoError(t, err)
	assert.Equal(t, da.WAYPOINT_ERROR, await(t, nav.SetDestination(unknown, nil, nil)))
	assert.Len(t, provider.Requests(), 1)
}

func TestSetDestinationsProviderError(t *testing.T) {
	provider := &straightLineProvider{
		err: &routeclient.StatusError{Status: da.QUOTA_CHECK_FAILED, Err: errors.New("429")},
	}
	nav := newTestNavigator(provider, nil, WithDeviceLocation(startLocation))
	assert.Equal(t, da.QUOTA_CHECK_FAILED, await(t, nav.SetDestination(waypoint(t, -33.9, 151.26, ""), nil, nil)))
	assert.False(t, nav.StartGuidance())
}

func TestCancelPendingRoute(t *testing.T) {
	provider := &straightLineProvider{block: true}
	nav := newTestNavigator(provider, nil, WithDeviceLocation(startLocation))

	pending := nav.SetDestination(waypoint(t, -33.9, 151.26, ""), nil, nil)
	assert.Eventually(t, func() bool { return len(provider.Requests()) == 1 }, time.Second, time.Millisecond)
	pending.Cancel()
	assert.Equal(t, da.ROUTE_CANCELED, await(t, pending))
}

func TestClearDestinationsCancelsPending(t *testing.T) {
	provider := &straightLineProvider{block: true}
	nav := newTestNavigator(provider, nil, WithDeviceLocation(startLocation))

	first := nav.SetDestination(waypoint(t, -33.9, 151.26, ""), nil, nil)
	nav.ClearDestinations()
	assert.Equal(t, da.ROUTE_CANCELED, await(t, first))
}

func TestRouteToken(t *testing.T) {
	provider := &straightLineProvider{}
	nav := newTestNavigator(provider, nil, WithDeviceLocation(startLocation))

	a := waypoint(t, -33.9, 151.26, "A")
	b := waypoint(t, -33.89, 151.27, "B")
	token, err := nav.MintRouteToken(context.Background(), []da.Waypoint{a, b}, nil)
	require.NoError(t, err)
	require.Len(t, provider.Requests(), 2)

	testCases := []struct {
		name      string
		waypoints []da.Waypoint
		token     string
		status    da.RouteStatus
	}{
		{name: "matching", waypoints: []da.Waypoint{a, b}, token: token, status: da.OK},
		{name: "reordered", waypoints: []da.Waypoint{b, a}, token: token, status: da.WAYPOINT_ERROR},
		{name: "garbage", waypoints: []da.Waypoint{a, b}, token: "not-a-token", status: da.WAYPOINT_ERROR},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			pending := nav.SetDestinationsWithToken(tt.waypoints, da.NewCustomRoutesOptions(tt.token, da.DRIVING), nil)
			assert.Equal(t, tt.status, await(t, pending))
		})
	}
	assert.Len(t, provider.Requests(), 2)
}

func TestRouteTokenKeepsMintedTravelMode(t *testing.T) {
	nav := newTestNavigator(&straightLineProvider{}, nil, WithDeviceLocation(startLocation))

	a := waypoint(t, -33.9, 151.26, "A")
	token, err := nav.MintRouteToken(context.Background(), []da.Waypoint{a},
		da.NewRoutingOptions().TravelMode(da.WALKING))
	require.NoError(t, err)

	pending := nav.SetDestinationsWithToken([]da.Waypoint{a}, da.NewCustomRoutesOptions(token, da.DRIVING), nil)
	require.Equal(t, da.OK, await(t, pending))
	assert.Equal(t, "walking", nav.State().TravelMode)
}

func TestMintRouteTokenFromOrigin(t *testing.T) {
	provider := &straightLineProvider{}
	nav := newTestNavigator(provider, nil)
	origin := da.NewCoordinate(-33.95, 151.2)

	_, err := nav.MintRouteTokenFrom(context.Background(), &origin,
		[]da.Waypoint{waypoint(t, -33.9, 151.26, "")}, nil)
	require.NoError(t, err)
	require.Len(t, provider.Requests(), 1)
	assert.Equal(t, origin, provider.Requests()[0].Origin)
	assert.Nil(t, nav.State().Location)
}

func TestComputeContextReleasedOnResult(t *testing.T) {
	provider := &straightLineProvider{}
	nav := newTestNavigator(provider, nil, WithDeviceLocation(startLocation))

	pending := nav.SetDestination(waypoint(t, -33.9, 151.26, ""), nil, nil)
	require.Equal(t, da.OK, await(t, pending))

	provider.mu.Lock()
	ctx := provider.contexts[0]
	provider.mu.Unlock()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestMintRouteTokenWithoutLocation(t *testing.T) {
	nav := newTestNavigator(&straightLineProvider{}, nil)
	_, err := nav.MintRouteToken(context.Background(), []da.Waypoint{waypoint(t, 1, 1, "")}, nil)
	assert.ErrorIs(t, err, ErrLocationUnknown)

	_, err = nav.MintRouteToken(context.Background(), nil, nil)
	assert.ErrorIs(t, err, da.ErrNoDestinations)
}

func TestSimulationArrivals(t *testing.T) {
	nav := newTestNavigator(&straightLineProvider{}, nil)
	nav.Simulator().SetUserLocation(startLocation)

	arrivals := make(chan da.ArrivalEvent, 4)
	id := nav.AddArrivalListener(func(e da.ArrivalEvent) { arrivals <- e })

	a := waypoint(t, -33.9, 151.26, "A")
	b := waypoint(t, -33.89, 151.27, "B")
	require.Equal(t, da.OK, await(t, nav.SetDestinations([]da.Waypoint{a, b}, nil, nil)))

	nav.SetAudioGuidance(navigator.VOICE_ALERTS_AND_GUIDANCE)
	nav.Simulator().SimulateLocationsAlongExistingRoute(da.NewSimulationOptions().SpeedMultiplier(5))
	require.True(t, nav.StartGuidance())

	next := func() da.ArrivalEvent {
		select {
		case e := <-arrivals:
			return e
		case <-time.After(2 * time.Second):
			t.Fatal("no arrival")
		}
		return da.ArrivalEvent{}
	}

	first := next()
	assert.Equal(t, "A", first.GetWaypoint().GetTitle())
	assert.False(t, first.IsFinalDestination())

	following, ok := nav.ContinueToNextDestination()
	require.True(t, ok)
	assert.Equal(t, "B", following.GetTitle())

	last := next()
	assert.Equal(t, "B", last.GetWaypoint().GetTitle())
	assert.True(t, last.IsFinalDestination())

	st := nav.State()
	require.NotNil(t, st.Location)
	assert.InDelta(t, -33.89, st.Location.Lat, 5e-4)
	assert.False(t, st.Simulating)
	assert.Equal(t, "voice_alerts_and_guidance", st.AudioGuidance)

	_, ok = nav.ContinueToNextDestination()
	assert.False(t, ok)
	assert.True(t, nav.RemoveArrivalListener(id))
}

func TestUnsetUserLocationStopsSimulation(t *testing.T) {
	nav := newTestNavigator(&straightLineProvider{}, nil)
	nav.Simulator().SetUserLocation(startLocation)
	require.Equal(t, da.OK, await(t, nav.SetDestination(waypoint(t, -33.9, 151.26, ""), nil, nil)))

	nav.Simulator().SimulateLocationsAlongExistingRoute(da.NewSimulationOptions())
	assert.True(t, nav.State().Simulating)

	nav.Simulator().UnsetUserLocation()
	st := nav.State()
	assert.False(t, st.Simulating)
	assert.Nil(t, st.Location)

	nav.ClearDestinations()
	assert.Empty(t, nav.State().Destinations)
	nav.StopGuidance()
	assert.False(t, nav.IsGuidanceRunning())
}

func TestOpen(t *testing.T) {
	log := zap.NewNop()
	granted := permission.NewStaticChecker("ACCESS_FINE_LOCATION")

	tests := []struct {
		name     string
		provider RouteProvider
		session  Session
		code     navigator.InitErrorCode
		errIs    error
	}{
		{name: "no engine", session: Session{TermsAccepted: true}, code: navigator.NOT_AUTHORIZED},
		{name: "terms", provider: &straightLineProvider{}, session: Session{}, code: navigator.TERMS_NOT_ACCEPTED,
			errIs: ErrTermsNotAccepted},
		{name: "fine location missing", provider: &straightLineProvider{},
			session: Session{TermsAccepted: true, Permissions: permission.NewStaticChecker(), PlatformLevel: 30},
			code:    navigator.LOCATION_PERMISSION_MISSING, errIs: permission.ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav, err := Open(tt.session, tt.provider, nil, log)
			require.Nil(t, nav)

			var initErr *navigator.InitError
			require.ErrorAs(t, err, &initErr)
			assert.Equal(t, tt.code, initErr.Code)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
		})
	}

	nav, err := Open(Session{TermsAccepted: true, Permissions: granted, PlatformLevel: 34},
		&straightLineProvider{}, nil, log)
	require.NoError(t, err)
	assert.True(t, nav.State().LocationEnabled)
}
