package routetoken

import (
	"encoding/base64"
	"testing"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWaypoint(t *testing.T, lat, lon float64, title string) da.Waypoint {
	t.Helper()
	w, err := da.NewLatLngWaypoint(lat, lon, title)
	require.NoError(t, err)
	return w
}

func TestEncodeDecode(t *testing.T) {
	waypoints := []da.Waypoint{
		mustWaypoint(t, -33.8688, 151.2093, "Sydney"),
		mustWaypoint(t, -33.8568, 151.2153, "Opera House"),
	}
	legs := []Leg{
		{Polyline: "_p~iF~ps|U_ulLnnqC", DistanceMeters: 1200, DurationSeconds: 300},
		{Polyline: "_ulLnnqC_mqNvxq`@", DistanceMeters: 800, DurationSeconds: 150},
	}

	token, err := Encode(NewPayload(waypoints, da.DRIVING, legs))
	require.NoError(t, err)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	p, err := DecodeFor(token, waypoints)
	require.NoError(t, err)
	assert.Equal(t, legs, p.Legs)
	assert.Equal(t, da.DRIVING, p.TravelMode)
	assert.Equal(t, 2000.0, p.TotalDistanceMeters())
	assert.Equal(t, 450.0, p.TotalDurationSeconds())
}

func TestDecodeForWaypointMismatch(t *testing.T) {
	a := mustWaypoint(t, -33.8688, 151.2093, "A")
	b := mustWaypoint(t, -33.8568, 151.2153, "B")

	token, err := Encode(NewPayload([]da.Waypoint{a, b}, da.DRIVING, []Leg{{Polyline: "x"}, {Polyline: "y"}}))
	require.NoError(t, err)

	_, err = DecodeFor(token, []da.Waypoint{b, a})
	assert.ErrorIs(t, err, ErrWaypointMismatch)

	_, err = DecodeFor(token, []da.Waypoint{a})
	assert.ErrorIs(t, err, ErrWaypointMismatch)
}

func TestFingerprintIgnoresTitle(t *testing.T) {
	a := mustWaypoint(t, 1, 2, "first title")
	b := mustWaypoint(t, 1, 2, "second title")
	assert.Equal(t, Fingerprint([]da.Waypoint{a}), Fingerprint([]da.Waypoint{b}))
	assert.NotEqual(t, Fingerprint([]da.Waypoint{a}), Fingerprint([]da.Waypoint{a, a}))
}

func TestDecodeMalformed(t *testing.T) {
	testCases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not base64", token: "%%%"},
		{name: "not bzip2", token: base64.RawURLEncoding.EncodeToString([]byte("hello world"))},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestDecodeRejectsEmptyLegs(t *testing.T) {
	token, err := Encode(Payload{Version: tokenVersion, Fingerprint: "abc"})
	require.NoError(t, err)
	_, err = Decode(token)
	assert.ErrorIs(t, err, ErrMalformedToken)
}
