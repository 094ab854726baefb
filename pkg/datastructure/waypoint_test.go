package datastructure

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaypointBuilder(t *testing.T) {
	testCases := []struct {
		name    string
		builder *WaypointBuilder
		wantErr error
		wantKey string
	}{
		{
			name:    "google place id",
			builder: NewWaypointBuilder().SetPlaceID("ChIJw2Q7CVSvEmsR3sf73C6Qtw0").SetTitle("Sydney Star"),
			wantKey: "place:ChIJw2Q7CVSvEmsR3sf73C6Qtw0",
		},
		{
			name:    "osm node place id",
			builder: NewWaypointBuilder().SetPlaceID("osm:node:240109189"),
			wantKey: "place:osm:node:240109189",
		},
		{
			name:    "unsupported place id",
			builder: NewWaypointBuilder().SetPlaceID("not a place id!"),
			wantErr: ErrUnsupportedPlaceID,
		},
		{
			name:    "lat lng",
			builder: NewWaypointBuilder().SetLatLng(41.38302344858377, 2.1881624610309394),
			wantKey: "latlng:41.383023,2.188162",
		},
		{
			name:    "lat out of range",
			builder: NewWaypointBuilder().SetLatLng(91, 0),
			wantErr: ErrInvalidCoordinate,
		},
		{
			name:    "last location setter wins",
			builder: NewWaypointBuilder().SetPlaceID("bogus").SetLatLng(1, 2),
			wantKey: "latlng:1.000000,2.000000",
		},
		{
			name:    "no location",
			builder: NewWaypointBuilder().SetTitle("nowhere"),
			wantErr: ErrMissingLocation,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			w, err := tt.builder.Build()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, w.IsValid())
				return
			}
			require.NoError(t, err)
			assert.True(t, w.IsValid())
			assert.Equal(t, tt.wantKey, w.Key())
		})
	}
}

func TestWaypointPreferredHeading(t *testing.T) {
	w, err := NewWaypointBuilder().SetLatLng(0, 0).SetPreferredHeading(90).SetPreferSameSideOfRoad(true).Build()
	require.NoError(t, err)
	h, ok := w.GetPreferredHeading()
	assert.True(t, ok)
	assert.Equal(t, 90, h)
	assert.True(t, w.PreferSameSideOfRoad())

	_, err = NewWaypointBuilder().SetLatLng(0, 0).SetPreferredHeading(360).Build()
	assert.Error(t, err)
}

func TestPlaceIDLength(t *testing.T) {
	longest := "ChIJ" + strings.Repeat("a", MaxPlaceIDLength-4)
	testCases := []struct {
		name string
		id   string
		want bool
	}{
		{name: "shortest", id: "ChIJ" + strings.Repeat("a", 12), want: true},
		{name: "too short", id: "ChIJ" + strings.Repeat("a", 11), want: false},
		{name: "longest", id: longest, want: true},
		{name: "one over", id: longest + "a", want: false},
		{name: "osm way", id: "osm:way:12345", want: true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupportedPlaceID(tt.id))
		})
	}

	_, err := NewPlaceWaypoint(longest+"a", "")
	assert.ErrorIs(t, err, ErrUnsupportedPlaceID)
}

func TestZeroWaypointIsInvalid(t *testing.T) {
	var w Waypoint
	assert.False(t, w.IsValid())
	_, ok := w.GetCoordinate()
	assert.False(t, ok)
}

func TestPlaceWaypointResolution(t *testing.T) {
	w, err := NewPlaceWaypoint("ChIJ3S-JXmauEmsRUcIaWtf4MzE", "Sydney Opera House")
	require.NoError(t, err)

	_, ok := w.ResolvedCoordinate()
	assert.False(t, ok)

	resolved := w.WithCoordinate(NewCoordinate(-33.856784, 151.215297))
	c, ok := resolved.ResolvedCoordinate()
	assert.True(t, ok)
	assert.Equal(t, -33.856784, c.Lat)
	assert.Equal(t, w.Key(), resolved.Key())
}

func TestWaypointMarshalJSON(t *testing.T) {
	w, err := NewLatLngWaypoint(-33.912182, 151.259678, "start")
	require.NoError(t, err)
	b, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":-33.912182,"lon":151.259678,"title":"start"}`, string(b))
}

func TestNewRouteRequest(t *testing.T) {
	a, _ := NewLatLngWaypoint(1, 1, "a")
	b, _ := NewLatLngWaypoint(2, 2, "b")

	_, err := NewRouteRequest(SUBMIT_MULTI_WAYPOINT, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoDestinations)

	_, err = NewRouteRequest(SUBMIT_MULTI_WAYPOINT, []Waypoint{a, {}}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidWaypoint)

	_, err = NewTokenRouteRequest([]Waypoint{a}, NewCustomRoutesOptions("", DRIVING), nil)
	assert.ErrorIs(t, err, ErrMissingRouteToken)

	in := []Waypoint{a, b}
	req, err := NewRouteRequest(SUBMIT_MULTI_WAYPOINT, in, NewRoutingOptions().AvoidFerries(true), nil)
	require.NoError(t, err)
	in[0] = b
	assert.Equal(t, []string{a.Key(), b.Key()}, req.WaypointKeys())
	assert.True(t, req.GetRoutingOptions().GetAvoidFerries())
	assert.True(t, req.GetDisplayOptions().GetShowDestinationMarkers())
}

func TestRouteStatusString(t *testing.T) {
	assert.Equal(t, "NETWORK_ERROR", NETWORK_ERROR.String())
	assert.True(t, WAYPOINT_ERROR.IsKnown())
	assert.False(t, RouteStatus(42).IsKnown())
	assert.Equal(t, "42", RouteStatus(42).String())
	assert.False(t, RouteStatus(-1).IsKnown())
}

func TestParseTravelMode(t *testing.T) {
	m, err := ParseTravelMode("WALKING")
	require.NoError(t, err)
	assert.Equal(t, WALKING, m)
	_, err = ParseTravelMode("hovercraft")
	assert.Error(t, err)
}
