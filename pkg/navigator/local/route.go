package local

import (
	"errors"
	"math"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/geo"
	"github.com/lintang-b-s/navguide/pkg/routetoken"
	"github.com/lintang-b-s/navguide/pkg/spatialindex"
)

var errEmptyRoute = errors.New("route has no legs")

// leg is the computed path from the previous stop (or the user) to one waypoint.
type leg struct {
	polyline string
	path     []geo.Coordinate
	distance float64
	duration float64
}

func legFromToken(l routetoken.Leg) (leg, error) {
	path, err := geo.CoordsFromPolyline(l.Polyline)
	if err != nil {
		return leg{}, err
	}
	if len(path) < 2 {
		return leg{}, errEmptyRoute
	}
	return leg{
		polyline: l.Polyline,
		path:     path,
		distance: l.DistanceMeters,
		duration: l.DurationSeconds,
	}, nil
}

func (l leg) toToken() routetoken.Leg {
	return routetoken.Leg{
		Polyline:        l.polyline,
		DistanceMeters:  l.distance,
		DurationSeconds: l.duration,
	}
}

// activeRoute is the route the navigator currently follows. Guarded by Navigator.mu.
type activeRoute struct {
	waypoints  []da.Waypoint
	legs       []leg
	path       []geo.Coordinate
	legEnds    []float64 // cumulative path length at each waypoint, meters
	travelMode da.TravelMode
	index      *spatialindex.Rtree

	next     int
	traveled float64
	waiting  bool
	finished bool
}

func newActiveRoute(waypoints []da.Waypoint, legs []leg, mode da.TravelMode) (*activeRoute, error) {
	if len(legs) == 0 || len(legs) != len(waypoints) {
		return nil, errEmptyRoute
	}
	r := &activeRoute{
		waypoints:  make([]da.Waypoint, len(waypoints)),
		legs:       legs,
		legEnds:    make([]float64, len(legs)),
		travelMode: mode,
		index:      spatialindex.NewRtree(),
	}

	total := 0.0
	for i, l := range legs {
		path := l.path
		if len(r.path) > 0 && path[0] == r.path[len(r.path)-1] {
			path = path[1:]
		} else if len(r.path) > 0 {
			total += geo.DistanceMeters(r.path[len(r.path)-1], path[0])
		}
		r.path = append(r.path, path...)
		total += geo.PathLengthMeters(l.path)
		r.legEnds[i] = total

		w := waypoints[i]
		if _, ok := w.ResolvedCoordinate(); !ok {
			end := l.path[len(l.path)-1]
			w = w.WithCoordinate(da.NewCoordinate(end.Lat, end.Lon))
		}
		r.waypoints[i] = w
	}
	r.index.Build(r.waypoints)
	return r, nil
}

func (r *activeRoute) isLast(i int) bool {
	return i == len(r.waypoints)-1
}

// remaining returns the reported distance and duration from the next waypoint on.
func (r *activeRoute) remaining() (float64, float64) {
	dist, dur := 0.0, 0.0
	for i := r.next; i < len(r.legs); i++ {
		dist += r.legs[i].distance
		dur += r.legs[i].duration
	}
	return dist, dur
}

func (r *activeRoute) remainingWaypoints() []da.Waypoint {
	if r.finished {
		return nil
	}
	return append([]da.Waypoint(nil), r.waypoints[r.next:]...)
}

// advance moves the simulated user step meters along the path, never past the next waypoint.
// It reports whether that waypoint has been reached.
func (r *activeRoute) advance(step, arrivalRadiusKm float64) (geo.Coordinate, bool) {
	target := r.legEnds[r.next]
	r.traveled = math.Min(r.traveled+step, target)
	pos, _, _ := geo.PointAlongPath(r.path, r.traveled)

	if r.traveled >= target {
		return pos, true
	}
	for _, hit := range r.index.SearchWithinRadius(pos.Lat, pos.Lon, arrivalRadiusKm) {
		if hit.GetIndex() == r.next {
			return pos, true
		}
	}
	return pos, false
}

// arrive marks the next waypoint reached and returns it.
func (r *activeRoute) arrive() (da.Waypoint, bool) {
	w := r.waypoints[r.next]
	r.index.Delete(r.next)
	final := r.isLast(r.next)
	if final {
		r.finished = true
	} else {
		r.waiting = true
	}
	return w, final
}

// continueToNext drops the current destination and resumes travel toward the following one.
func (r *activeRoute) continueToNext() (da.Waypoint, bool) {
	if r.finished || r.isLast(r.next) {
		return da.Waypoint{}, false
	}
	r.index.Delete(r.next)
	if r.traveled < r.legEnds[r.next] {
		r.traveled = r.legEnds[r.next]
	}
	r.next++
	r.waiting = false
	return r.waypoints[r.next], true
}

// heading is the bearing of the path segment the simulated user is on.
func (r *activeRoute) heading() float64 {
	if len(r.path) < 2 {
		return 0
	}
	_, seg, _ := geo.PointAlongPath(r.path, r.traveled)
	return geo.Bearing(r.path[seg], r.path[seg+1])
}

// distanceFromPath is the perpendicular distance in meters from c to the closest path segment.
func (r *activeRoute) distanceFromPath(c da.Coordinate) float64 {
	p := c.ToGeoCoordinate()
	best := math.Inf(1)
	for i := 0; i+1 < len(r.path); i++ {
		best = math.Min(best, geo.PointLinePerpendicularDistance(r.path[i], r.path[i+1], p))
	}
	return best
}
