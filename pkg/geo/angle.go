package geo

import (
	"math"

	"github.com/lintang-b-s/navguide/pkg/util"
)

// Bearing is the initial great circle bearing from one coordinate to another, in degrees
// clockwise from north within [0, 360). Coincident points give 0.
// https://www.movable-type.co.uk/scripts/latlong.html
func Bearing(from, to Coordinate) float64 {
	if from == to {
		return 0
	}
	lat1, lat2 := util.DegreeToRadians(from.Lat), util.DegreeToRadians(to.Lat)
	dLon := util.DegreeToRadians(to.Lon - from.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Mod(util.RadiansToDegree(math.Atan2(y, x))+360, 360)
}
