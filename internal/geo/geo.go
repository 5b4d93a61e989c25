package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the sphere radius used for all great-circle math.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// lat/lon points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// HaversineM returns the great-circle distance in metres.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineKm(lat1, lon1, lat2, lon2) * 1000
}

// Point builds an orb point in (lon, lat) order.
func Point(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

// PointDistanceM returns the distance in metres between two orb points.
func PointDistanceM(a, b orb.Point) float64 {
	return HaversineM(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// Bound builds an orb bounding box from two corner coordinates.
func Bound(minLat, minLon, maxLat, maxLon float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
