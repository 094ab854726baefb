package routeclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/geo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	computeRoutesPath = "/api/computeRoutes"

	defaultTimeout = 10 * time.Second

	httpMaxIdleConns    = 10
	httpIdleConnTimeout = 30 * time.Second

	maxErrorBodyBytes = 4 << 10
)

// Request is one leg to compute.
type Request struct {
	Origin      da.Coordinate
	Destination da.Coordinate
	Options     *da.RoutingOptions
	// Heading is the preferred arrival heading in degrees, if any.
	Heading *int
}

// Route is the engine answer for one leg.
type Route struct {
	Polyline        string
	DistanceMeters  float64
	DurationSeconds float64
	Path            []geo.Coordinate
}

// StatusError carries the route status an engine failure maps to.
type StatusError struct {
	Status da.RouteStatus
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("route engine: %s: %v", e.Status, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusFromError maps any ComputeRoute error onto a route status.
func StatusFromError(err error) da.RouteStatus {
	if err == nil {
		return da.OK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	if errors.Is(err, context.Canceled) {
		return da.ROUTE_CANCELED
	}
	return da.NETWORK_ERROR
}

type Option func(*Client)

// WithRateLimit caps requests per second sent to the engine. Requests over the limit fail
// with QUOTA_CHECK_FAILED instead of queueing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client calls a Navigatorx compatible routing engine over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        httpMaxIdleConns,
		MaxIdleConnsPerHost: httpMaxIdleConns,
		IdleConnTimeout:     httpIdleConnTimeout,
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Data  *routeResponse `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// routeResponse mirrors the engine computeRoutes payload: eta in seconds, distance in meters.
type routeResponse struct {
	Eta  float64 `json:"eta"`
	Path string  `json:"path"`
	Dist float64 `json:"distance"`
}

// ComputeRoute computes a single leg.
func (c *Client) ComputeRoute(ctx context.Context, req Request) (*Route, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, &StatusError{Status: da.QUOTA_CHECK_FAILED, Err: errors.New("client side rate limit exceeded")}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(req), nil)
	if err != nil {
		return nil, &StatusError{Status: da.WAYPOINT_ERROR, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	c.log.Debug("route engine responded", zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, statusErrorFromResponse(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &StatusError{Status: da.NETWORK_ERROR, Err: fmt.Errorf("decode response: %w", err)}
	}
	if env.Data == nil {
		return nil, &StatusError{Status: da.NO_ROUTE_FOUND, Err: errors.New("response has no data")}
	}

	path, err := geo.CoordsFromPolyline(env.Data.Path)
	if err != nil {
		return nil, &StatusError{Status: da.NETWORK_ERROR, Err: err}
	}
	if len(path) < 2 {
		return nil, &StatusError{Status: da.NO_ROUTE_FOUND, Err: errors.New("route geometry has fewer than two points")}
	}

	distance := env.Data.Dist
	if distance <= 0 {
		distance = geo.PathLengthMeters(path)
	}

	return &Route{
		Polyline:        env.Data.Path,
		DistanceMeters:  distance,
		DurationSeconds: env.Data.Eta,
		Path:            path,
	}, nil
}

func (c *Client) buildURL(req Request) string {
	q := url.Values{}
	q.Set("origin_lat", strconv.FormatFloat(req.Origin.Lat, 'f', -1, 64))
	q.Set("origin_lon", strconv.FormatFloat(req.Origin.Lon, 'f', -1, 64))
	q.Set("destination_lat", strconv.FormatFloat(req.Destination.Lat, 'f', -1, 64))
	q.Set("destination_lon", strconv.FormatFloat(req.Destination.Lon, 'f', -1, 64))
	if req.Options != nil {
		q.Set("travel_mode", req.Options.GetTravelMode().String())
		q.Set("routing_strategy", req.Options.GetRoutingStrategy().String())
		q.Set("avoid_ferries", strconv.FormatBool(req.Options.GetAvoidFerries()))
		q.Set("avoid_tolls", strconv.FormatBool(req.Options.GetAvoidTolls()))
		q.Set("avoid_highways", strconv.FormatBool(req.Options.GetAvoidHighways()))
	}
	if req.Heading != nil {
		q.Set("destination_heading", strconv.Itoa(*req.Heading))
	}
	return c.baseURL + computeRoutesPath + "?" + q.Encode()
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &StatusError{Status: da.ROUTE_CANCELED, Err: err}
	}
	return &StatusError{Status: da.NETWORK_ERROR, Err: err}
}

func statusErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	message := strings.TrimSpace(string(body))
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		message = env.Error.Message
	}
	err := fmt.Errorf("http %d: %s", resp.StatusCode, message)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusUnauthorized:
		return &StatusError{Status: da.QUOTA_CHECK_FAILED, Err: err}
	case resp.StatusCode == http.StatusNotFound:
		return &StatusError{Status: da.NO_ROUTE_FOUND, Err: err}
	case resp.StatusCode == http.StatusBadRequest:
		if strings.Contains(strings.ToLower(message), "no path") {
			return &StatusError{Status: da.NO_ROUTE_FOUND, Err: err}
		}
		return &StatusError{Status: da.WAYPOINT_ERROR, Err: err}
	case resp.StatusCode >= 500:
		return &StatusError{Status: da.NETWORK_ERROR, Err: err}
	}
	return &StatusError{Status: da.RouteStatus(resp.StatusCode), Err: err}
}
