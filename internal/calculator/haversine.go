package calculator

import (
	"field-verify/internal/models"
	"math"
)

const earthRadius = 6371000.0 // meters

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Haversine computes the great-circle distance between two points in meters.
// Inputs are not range checked.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a past 1 for near-antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

func Distance(a, b models.Coordinate) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}
