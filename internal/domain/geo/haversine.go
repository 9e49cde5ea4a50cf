// Package geo holds the great-circle math shared by matching and lifecycle
// tracking. The sphere radius is caller-supplied so the same formula serves
// kilometer-scale drone ranking and meter-scale arrival checks.
package geo

import (
	"math"

	"github.com/skyops/skycourier/internal/domain/entity"
)

const (
	// EarthRadiusKm is the default radius for matching-distance comparisons.
	EarthRadiusKm = 6371
	// EarthRadiusM is the default radius for proximity checks.
	EarthRadiusM = 6371000
)

// Distance returns the haversine great-circle distance between two points on
// a sphere of the given radius. The result is in the radius' unit.
func Distance(a, b entity.GeoPoint, radius float64) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return radius * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
