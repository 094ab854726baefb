package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lintang-b-s/navguide/pkg/concurrent"
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/navigator"
	"github.com/lintang-b-s/navguide/pkg/util"
	"go.uber.org/zap"
)

const DefaultSpeedMultiplier = 5.0

type Option func(*Orchestrator)

// WithSpeedMultiplier sets how fast the simulated traversal replays the route.
func WithSpeedMultiplier(m float64) Option {
	return func(o *Orchestrator) {
		if m > 0 {
			o.speedMultiplier = m
		}
	}
}

// WithSessionID tags journal records of this orchestrator. Orchestrators sharing a journal
// need distinct ids.
func WithSessionID(id uint64) Option {
	return func(o *Orchestrator) {
		o.sessionID = id
	}
}

func WithJournal(j Journal) Option {
	return func(o *Orchestrator) {
		o.journal = j
	}
}

// SubmitOption adjusts a single submission.
type SubmitOption func(*submitConfig)

type submitConfig struct {
	origin *da.Coordinate
}

// FromOrigin sets the simulated user location right before the navigator is asked for a
// route. A rejected submission leaves the location untouched.
func FromOrigin(origin da.Coordinate) SubmitOption {
	return func(c *submitConfig) {
		c.origin = &origin
	}
}

type submission struct {
	id          uint64
	request     *da.RouteRequest
	pending     navigator.PendingRoute
	submittedAt time.Time
}

type Status struct {
	Pending        bool         `json:"pending"`
	PendingKind    string       `json:"pending_kind,omitempty"`
	PendingID      uint64       `json:"pending_id,omitempty"`
	GuidanceActive bool         `json:"guidance_active"`
	Closed         bool         `json:"closed"`
	Submissions    uint64       `json:"submissions"`
	Arrivals       int          `json:"arrivals"`
	LastStatus     string       `json:"last_status,omitempty"`
	LastAdvisory   *da.Advisory `json:"last_advisory,omitempty"`
}

// Orchestrator submits destinations to a navigator, waits for the single asynchronous route
// result and either starts simulated guidance or reports a diagnostic. All of its state is
// owned by one event loop; navigator callbacks are re-posted onto that loop.
type Orchestrator struct {
	log             *zap.Logger
	nav             navigator.Navigator
	reporter        Reporter
	journal         Journal
	sessionID       uint64
	loop            *concurrent.Looper
	speedMultiplier float64

	arrivalSub      *Subscription
	routeChangedSub *Subscription
	cleanupOnce     sync.Once

	// loop owned
	pending        *submission
	seq            uint64
	guidanceActive bool
	closed         bool
	arrivals       int
	lastStatus     *da.RouteStatus
	lastAdvisory   *da.Advisory
}

// New builds an orchestrator and attaches its arrival and route-changed listeners. The
// caller is expected to have obtained the required permissions already.
func New(nav navigator.Navigator, reporter Reporter, log *zap.Logger, opts ...Option) *Orchestrator {
	if reporter == nil {
		reporter = NewLogReporter(log)
	}
	o := &Orchestrator{
		log:             log,
		nav:             nav,
		reporter:        reporter,
		loop:            concurrent.NewLooper("orchestrator", log),
		speedMultiplier: DefaultSpeedMultiplier,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.loop.Start()
	_ = o.loop.Call(context.Background(), func() error {
		o.registerListeners()
		return nil
	})
	return o
}

func (o *Orchestrator) registerListeners() {
	arrivalID := o.nav.AddArrivalListener(func(event da.ArrivalEvent) {
		o.loop.Post(func() { o.onArrival(event) })
	})
	o.arrivalSub = newSubscription(func() {
		o.nav.RemoveArrivalListener(arrivalID)
	})

	routeChangedID := o.nav.AddRouteChangedListener(func(event da.RouteChangedEvent) {
		o.loop.Post(func() { o.onRouteChanged(event) })
	})
	o.routeChangedSub = newSubscription(func() {
		o.nav.RemoveRouteChangedListener(routeChangedID)
	})
}

// SubmitSingleDestination requests a route to one destination.
func (o *Orchestrator) SubmitSingleDestination(ctx context.Context, destination da.Waypoint,
	routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, opts ...SubmitOption) error {
	return o.submit(ctx, da.SUBMIT_SINGLE_DESTINATION, opts,
		func() (*da.RouteRequest, error) {
			return da.NewRouteRequest(da.SUBMIT_SINGLE_DESTINATION, []da.Waypoint{destination},
				routingOptions, displayOptions)
		},
		func(req *da.RouteRequest) navigator.PendingRoute {
			return o.nav.SetDestination(req.GetWaypoints()[0], req.GetRoutingOptions(), req.GetDisplayOptions())
		})
}

// SubmitMultiWaypoint requests a route through destinations in order. An empty list is
// reported as "No destinations provided" without contacting the navigator.
func (o *Orchestrator) SubmitMultiWaypoint(ctx context.Context, destinations []da.Waypoint,
	routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, opts ...SubmitOption) error {
	destinations = append([]da.Waypoint(nil), destinations...)
	return o.submit(ctx, da.SUBMIT_MULTI_WAYPOINT, opts,
		func() (*da.RouteRequest, error) {
			return da.NewRouteRequest(da.SUBMIT_MULTI_WAYPOINT, destinations, routingOptions, displayOptions)
		},
		func(req *da.RouteRequest) navigator.PendingRoute {
			return o.nav.SetDestinations(req.GetWaypoints(), req.GetRoutingOptions(), req.GetDisplayOptions())
		})
}

// SubmitWithRouteToken requests guidance along a pre-computed route. destinations must be
// the exact sequence the token was computed for; a mismatch comes back as WAYPOINT_ERROR.
func (o *Orchestrator) SubmitWithRouteToken(ctx context.Context, destinations []da.Waypoint,
	customRoutesOptions da.CustomRoutesOptions, displayOptions *da.DisplayOptions,
	opts ...SubmitOption) error {
	destinations = append([]da.Waypoint(nil), destinations...)
	return o.submit(ctx, da.SUBMIT_ROUTE_TOKEN, opts,
		func() (*da.RouteRequest, error) {
			return da.NewTokenRouteRequest(destinations, customRoutesOptions, displayOptions)
		},
		func(req *da.RouteRequest) navigator.PendingRoute {
			cro, _ := req.GetCustomRoutesOptions()
			return o.nav.SetDestinationsWithToken(req.GetWaypoints(), cro, req.GetDisplayOptions())
		})
}

// PlaceRef names a place id destination and its display title.
type PlaceRef struct {
	PlaceID string
	Title   string
}

// SubmitPlaces builds a waypoint for every place and submits them as a multi-waypoint route.
// The first unsupported place id aborts the submission before the navigator is contacted.
func (o *Orchestrator) SubmitPlaces(ctx context.Context, places []PlaceRef,
	routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, opts ...SubmitOption) error {
	waypoints := make([]da.Waypoint, 0, len(places))
	for _, p := range places {
		w, err := o.CreateWaypoint(p.PlaceID, p.Title)
		if err != nil {
			return err
		}
		waypoints = append(waypoints, w)
	}
	return o.SubmitMultiWaypoint(ctx, waypoints, routingOptions, displayOptions, opts...)
}

// CreateWaypoint builds a place id waypoint. An unsupported id is reported to the user and
// returned as an error so the caller can abort.
func (o *Orchestrator) CreateWaypoint(placeID, title string) (da.Waypoint, error) {
	w, err := da.NewPlaceWaypoint(placeID, title)
	if err != nil {
		o.log.Error("failed to create waypoint for place id", zap.String("place_id", placeID), zap.Error(err))
		o.reportAsync(da.NewAdvisory(da.ADVISORY_ERROR, msgUnsupportedPlace+placeID))
		return da.Waypoint{}, util.WrapErrorf(err, util.ErrBadParamInput, "create waypoint %q", placeID)
	}
	return w, nil
}

func (o *Orchestrator) submit(ctx context.Context, kind da.SubmissionKind, opts []SubmitOption,
	build func() (*da.RouteRequest, error),
	dispatch func(req *da.RouteRequest) navigator.PendingRoute) error {
	var cfg submitConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.origin != nil && !cfg.origin.IsValid() {
		return util.WrapErrorf(da.ErrInvalidCoordinate, util.ErrBadParamInput, "submit %s: origin %s",
			kind, cfg.origin)
	}

	err := o.loop.Call(ctx, func() error {
		if o.closed {
			return ErrClosed
		}

		req, err := build()
		if err != nil {
			o.reportValidationError(err)
			return util.WrapErrorf(err, util.ErrBadParamInput, "submit %s", kind)
		}

		if o.pending != nil {
			o.report(da.NewAdvisory(da.ADVISORY_ERROR, msgSubmissionPending))
			return util.WrapErrorf(ErrSubmissionPending, util.ErrConflict,
				"submit %s while submission %d is pending", kind, o.pending.id)
		}

		o.seq++
		sub := &submission{
			id:          o.seq,
			request:     req,
			submittedAt: time.Now(),
		}
		o.pending = sub
		if cfg.origin != nil {
			o.nav.Simulator().SetUserLocation(*cfg.origin)
		}
		sub.pending = dispatch(req)
		o.recordSubmission(sub)

		o.log.Info("route submitted", zap.Uint64("submission", sub.id), zap.String("kind", string(kind)),
			zap.Strings("waypoints", req.WaypointKeys()))

		sub.pending.SetOnResultListener(func(status da.RouteStatus) {
			if !o.loop.Post(func() { o.onRouteResult(sub, status) }) {
				o.log.Debug("route result arrived after cleanup", zap.Uint64("submission", sub.id),
					zap.String("status", status.String()))
			}
		})
		return nil
	})

	if errors.Is(err, concurrent.ErrLooperClosed) || errors.Is(err, ErrClosed) {
		return util.WrapErrorf(ErrClosed, util.ErrConflict, "submit %s", kind)
	}
	return err
}

func (o *Orchestrator) reportValidationError(err error) {
	switch {
	case errors.Is(err, da.ErrNoDestinations):
		o.report(da.NewAdvisory(da.ADVISORY_ERROR, msgNoDestinations))
	case errors.Is(err, da.ErrMissingRouteToken):
		o.report(da.NewAdvisory(da.ADVISORY_ERROR, msgMissingRouteToken))
	default:
		o.report(da.NewAdvisory(da.ADVISORY_ERROR, msgInvalidWaypoint))
	}
}

// onRouteResult runs on the loop, once per submission.
func (o *Orchestrator) onRouteResult(sub *submission, status da.RouteStatus) {
	if o.pending != sub {
		o.log.Info("ignoring stale route result", zap.Uint64("submission", sub.id),
			zap.String("status", status.String()))
		return
	}
	o.pending = nil
	o.lastStatus = &status

	diagnostic := StatusToDiagnostic(status)
	o.recordOutcome(sub, status, diagnostic)

	if status != da.OK {
		advisory := da.NewAdvisory(da.ADVISORY_ERROR, msgErrorPrefix+diagnostic)
		advisory.Status = status.String()
		o.report(advisory)
		return
	}

	o.nav.SetAudioGuidance(navigator.VOICE_ALERTS_AND_GUIDANCE)
	o.nav.Simulator().SimulateLocationsAlongExistingRoute(
		da.NewSimulationOptions().SpeedMultiplier(o.speedMultiplier))
	o.nav.StartGuidance()
	o.guidanceActive = true

	advisory := da.NewAdvisory(da.ADVISORY_GUIDANCE_STARTED, msgGuidanceStarted)
	advisory.Status = status.String()
	o.report(advisory)
}

func (o *Orchestrator) onArrival(event da.ArrivalEvent) {
	if o.closed {
		return
	}
	o.arrivals++
	advisory := da.NewAdvisory(da.ADVISORY_ARRIVAL, msgArrived)
	if title := event.GetWaypoint().GetTitle(); title != "" {
		advisory.Message += " at " + title
	}
	o.report(advisory)

	if event.IsFinalDestination() {
		o.nav.Simulator().UnsetUserLocation()
		o.nav.ClearDestinations()
		o.guidanceActive = false
		return
	}
	if next, ok := o.nav.ContinueToNextDestination(); ok {
		o.log.Info("continuing to next destination", zap.String("waypoint", next.String()))
	}
}

func (o *Orchestrator) onRouteChanged(event da.RouteChangedEvent) {
	if o.closed {
		return
	}
	o.log.Debug("route changed", zap.Float64("distance_m", event.GetDistanceMeters()),
		zap.Float64("duration_s", event.GetDurationSeconds()))
	o.report(da.NewAdvisory(da.ADVISORY_ROUTE_CHANGED, msgRouteChanged))
}

// Cleanup detaches the listeners, clears destinations, stops guidance and releases the
// simulated location. A result that arrives afterwards is ignored. Safe to call repeatedly.
func (o *Orchestrator) Cleanup() error {
	o.cleanupOnce.Do(func() {
		err := o.loop.Call(context.Background(), func() error {
			o.teardown()
			return nil
		})
		if err != nil {
			o.log.Error("orchestrator teardown failed", zap.Error(err))
		}
		o.loop.Close()
	})
	return nil
}

func (o *Orchestrator) teardown() {
	o.closed = true
	o.arrivalSub.Close()
	o.routeChangedSub.Close()

	if sub := o.pending; sub != nil {
		o.pending = nil
		sub.pending.Cancel()
		o.recordOutcome(sub, da.ROUTE_CANCELED, StatusToDiagnostic(da.ROUTE_CANCELED))
	}

	o.nav.ClearDestinations()
	o.nav.StopGuidance()
	o.nav.Simulator().UnsetUserLocation()
	o.guidanceActive = false
	o.log.Info("orchestrator cleaned up", zap.Uint64("submissions", o.seq))
}

// Status returns a snapshot of the orchestrator state.
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	var st Status
	err := o.loop.Call(ctx, func() error {
		st = Status{
			Pending:        o.pending != nil,
			GuidanceActive: o.guidanceActive,
			Closed:         o.closed,
			Submissions:    o.seq,
			Arrivals:       o.arrivals,
			LastAdvisory:   o.lastAdvisory,
		}
		if o.pending != nil {
			st.PendingKind = string(o.pending.request.GetKind())
			st.PendingID = o.pending.id
		}
		if o.lastStatus != nil {
			st.LastStatus = o.lastStatus.String()
		}
		return nil
	})
	if errors.Is(err, concurrent.ErrLooperClosed) {
		return Status{Closed: true}, nil
	}
	return st, err
}

// report runs on the loop.
func (o *Orchestrator) report(advisory da.Advisory) {
	o.lastAdvisory = &advisory
	o.reporter.Report(advisory)
}

func (o *Orchestrator) reportAsync(advisory da.Advisory) {
	if !o.loop.Post(func() { o.report(advisory) }) {
		o.reporter.Report(advisory)
	}
}

func (o *Orchestrator) recordSubmission(sub *submission) {
	if o.journal == nil {
		return
	}
	o.journal.Record(da.SessionRecord{
		SessionID:    o.sessionID,
		SubmissionID: sub.id,
		Kind:         string(sub.request.GetKind()),
		Waypoints:    sub.request.WaypointKeys(),
		SubmittedAt:  sub.submittedAt,
	})
}

func (o *Orchestrator) recordOutcome(sub *submission, status da.RouteStatus, diagnostic string) {
	if o.journal == nil {
		return
	}
	o.journal.Record(da.SessionRecord{
		SessionID:    o.sessionID,
		SubmissionID: sub.id,
		Kind:         string(sub.request.GetKind()),
		Waypoints:    sub.request.WaypointKeys(),
		Status:       status.String(),
		Diagnostic:   diagnostic,
		SubmittedAt:  sub.submittedAt,
		ResolvedAt:   time.Now(),
	})
}
