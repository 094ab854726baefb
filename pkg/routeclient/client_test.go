package routeclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func testRequest() Request {
	return Request{
		Origin:      da.NewCoordinate(38.5, -120.2),
		Destination: da.NewCoordinate(43.252, -126.453),
		Options:     da.NewRoutingOptions().TravelMode(da.WALKING).AvoidFerries(true),
	}
}

func TestComputeRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, computeRoutesPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "38.5", q.Get("origin_lat"))
		assert.Equal(t, "-126.453", q.Get("destination_lon"))
		assert.Equal(t, "walking", q.Get("travel_mode"))
		assert.Equal(t, "true", q.Get("avoid_ferries"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"eta":600.5,"path":%q,"distance":1234.5}}`, samplePolyline)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second, zap.NewNop())
	route, err := c.ComputeRoute(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 600.5, route.DurationSeconds)
	assert.Equal(t, 1234.5, route.DistanceMeters)
	require.Len(t, route.Path, 3)
	assert.InDelta(t, 40.7, route.Path[1].Lat, 1e-5)
}

func TestComputeRouteStatusMapping(t *testing.T) {
	testCases := []struct {
		name   string
		code   int
		body   string
		status da.RouteStatus
	}{
		{name: "quota", code: http.StatusTooManyRequests, body: `rate limited`, status: da.QUOTA_CHECK_FAILED},
		{name: "not found", code: http.StatusNotFound, body: `{"error":{"code":"Not Found","message":"not found"}}`, status: da.NO_ROUTE_FOUND},
		{name: "no path bad request", code: http.StatusBadRequest, body: `{"error":{"code":"Bad Request","message":"no path found from 1,1 to 2,2"}}`, status: da.NO_ROUTE_FOUND},
		{name: "bad waypoint", code: http.StatusBadRequest, body: `{"error":{"code":"Bad Request","message":"origin_lat is required"}}`, status: da.WAYPOINT_ERROR},
		{name: "server error", code: http.StatusBadGateway, body: ``, status: da.NETWORK_ERROR},
		{name: "unexpected code", code: http.StatusTeapot, body: ``, status: da.RouteStatus(http.StatusTeapot)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second, zap.NewNop()).ComputeRoute(context.Background(), testRequest())
			require.Error(t, err)
			assert.Equal(t, tt.status, StatusFromError(err))
		})
	}
}

func TestComputeRouteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second, zap.NewNop()).ComputeRoute(context.Background(), testRequest())
	assert.Equal(t, da.NETWORK_ERROR, StatusFromError(err))
}

func TestComputeRouteCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := New(srv.URL, 5*time.Second, zap.NewNop()).ComputeRoute(ctx, testRequest())
	assert.Equal(t, da.ROUTE_CANCELED, StatusFromError(err))
}

func TestComputeRouteRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"eta":1,"path":%q,"distance":1}}`, samplePolyline)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, zap.NewNop(), WithRateLimit(0.001, 1))
	_, err := c.ComputeRoute(context.Background(), testRequest())
	require.NoError(t, err)
	_, err = c.ComputeRoute(context.Background(), testRequest())
	assert.Equal(t, da.QUOTA_CHECK_FAILED, StatusFromError(err))
}

func TestStatusFromError(t *testing.T) {
	assert.Equal(t, da.OK, StatusFromError(nil))
	assert.Equal(t, da.ROUTE_CANCELED, StatusFromError(context.Canceled))
	assert.Equal(t, da.NETWORK_ERROR, StatusFromError(errors.New("boom")))
	assert.Equal(t, da.WAYPOINT_ERROR, StatusFromError(fmt.Errorf("wrapped: %w",
		&StatusError{Status: da.WAYPOINT_ERROR, Err: errors.New("unknown place")})))
}
