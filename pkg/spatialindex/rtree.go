package spatialindex

import (
	"sort"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/geo"
	"github.com/tidwall/rtree"
)

// Rtree indexes the remaining waypoints of a route so the simulator can tell when the
// simulated user is within arrival distance of one of them.
type Rtree struct {
	tr     *rtree.RTreeG[WaypointEntry]
	points map[int]da.Coordinate
}

type WaypointEntry struct {
	index      int
	coordinate da.Coordinate
}

// GetIndex returns the position of the waypoint in the route.
func (e WaypointEntry) GetIndex() int {
	return e.index
}

func (e WaypointEntry) GetCoordinate() da.Coordinate {
	return e.coordinate
}

func newWaypointEntry(index int, coordinate da.Coordinate) WaypointEntry {
	return WaypointEntry{
		index:      index,
		coordinate: coordinate,
	}
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[WaypointEntry]
	return &Rtree{
		tr:     &tr,
		points: make(map[int]da.Coordinate),
	}
}

// Build indexes waypoints by their route position. Waypoints without a coordinate are skipped.
func (rt *Rtree) Build(waypoints []da.Waypoint) {
	for i, w := range waypoints {
		c, ok := w.ResolvedCoordinate()
		if !ok {
			continue
		}
		rt.Insert(i, c)
	}
}

func (rt *Rtree) Insert(index int, c da.Coordinate) {
	rt.tr.Insert([2]float64{c.Lon, c.Lat}, [2]float64{c.Lon, c.Lat}, newWaypointEntry(index, c))
	rt.points[index] = c
}

// Delete removes the waypoint at route position index.
func (rt *Rtree) Delete(index int) bool {
	c, ok := rt.points[index]
	if !ok {
		return false
	}
	rt.tr.Delete([2]float64{c.Lon, c.Lat}, [2]float64{c.Lon, c.Lat}, newWaypointEntry(index, c))
	delete(rt.points, index)
	return true
}

func (rt *Rtree) Len() int {
	return rt.tr.Len()
}

// SearchWithinRadius returns waypoints within radius (in km) of (qLat, qLon), nearest first.
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []WaypointEntry {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius)

	results := make([]WaypointEntry, 0, 4)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, data WaypointEntry) bool {
			if geo.CalculateHaversineDistance(qLat, qLon, data.coordinate.Lat, data.coordinate.Lon) <= radius {
				results = append(results, data)
			}
			return true
		})

	sort.Slice(results, func(i, j int) bool {
		di := geo.CalculateHaversineDistance(qLat, qLon, results[i].coordinate.Lat, results[i].coordinate.Lon)
		dj := geo.CalculateHaversineDistance(qLat, qLon, results[j].coordinate.Lat, results[j].coordinate.Lon)
		return di < dj
	})
	return results
}
