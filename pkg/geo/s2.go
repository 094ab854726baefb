package geo

import (
	"github.com/golang/geo/s2"
)

// Interpolate returns the point at fraction t (0..1) of the geodesic from a to b.
func Interpolate(a, b Coordinate, t float64) Coordinate {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	pa := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lon))
	pb := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lon))
	ll := s2.LatLngFromPoint(s2.Interpolate(t, pa, pb))
	return NewCoordinate(ll.Lat.Degrees(), ll.Lng.Degrees())
}

// PointAlongPath walks distMeters from the start of path and returns the reached point and
// the index of the segment it lies on. When distMeters exceeds the path length the last
// point is returned with ok=false.
func PointAlongPath(path []Coordinate, distMeters float64) (Coordinate, int, bool) {
	if len(path) == 0 {
		return Coordinate{}, 0, false
	}
	if distMeters <= 0 {
		return path[0], 0, true
	}
	walked := 0.0
	for i := 1; i < len(path); i++ {
		seg := DistanceMeters(path[i-1], path[i])
		if walked+seg >= distMeters {
			if seg == 0 {
				return path[i], i - 1, true
			}
			return Interpolate(path[i-1], path[i], (distMeters-walked)/seg), i - 1, true
		}
		walked += seg
	}
	return path[len(path)-1], len(path) - 2, false
}

// ProjectPointToLineCoord projects snap onto the geodesic segment a-b.
func ProjectPointToLineCoord(pointA Coordinate, pointB Coordinate,
	snap Coordinate) Coordinate {
	pointAS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointA.Lat, pointA.Lon))
	pointBS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointB.Lat, pointB.Lon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))
	projection := s2.Project(snapS2, pointAS2, pointBS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// return in meter
func PointLinePerpendicularDistance(pointA Coordinate, pointB Coordinate,
	snap Coordinate) float64 {
	projectionPoint := ProjectPointToLineCoord(pointA, pointB, snap)
	return DistanceMeters(snap, projectionPoint)
}
