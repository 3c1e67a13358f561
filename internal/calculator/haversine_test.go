package calculator

import (
	"field-verify/internal/models"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	chennai    = models.Coordinate{Lat: 13.0827, Lon: 80.2707}
	chennaiN1k = models.Coordinate{Lat: 13.0917, Lon: 80.2707}
	bengaluru  = models.Coordinate{Lat: 12.9716, Lon: 77.5946}
	mumbai     = models.Coordinate{Lat: 19.0760, Lon: 72.8777}
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	for _, c := range []models.Coordinate{chennai, bengaluru, {Lat: 90, Lon: 0}, {Lat: -33.9, Lon: -180}} {
		assert.Equal(t, 0.0, Distance(c, c), "distance to self for %+v", c)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	assert.InDelta(t, Distance(chennai, bengaluru), Distance(bengaluru, chennai), 1e-6)
	assert.InDelta(t, Distance(mumbai, chennaiN1k), Distance(chennaiN1k, mumbai), 1e-6)
}

func TestHaversine_TriangleInequality(t *testing.T) {
	points := []models.Coordinate{chennai, chennaiN1k, bengaluru, mumbai, {Lat: -45, Lon: 170}}
	for _, a := range points {
		for _, b := range points {
			for _, c := range points {
				assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1e-6)
			}
		}
	}
}

func TestHaversine_NonNegativeAndFinite(t *testing.T) {
	cases := [][4]float64{
		{0, 0, 0, 180},
		{0, 0, 0, -180},
		{90, 0, -90, 0},
		{45, 179.9999, -45, -0.0001}, // near antipodal
		{-12.5, 45.25, 12.5, -134.75},
	}
	for _, c := range cases {
		d := Haversine(c[0], c[1], c[2], c[3])
		assert.False(t, math.IsNaN(d), "NaN for %v", c)
		assert.GreaterOrEqual(t, d, 0.0)
		assert.LessOrEqual(t, d, math.Pi*earthRadius+1e-6)
	}
}

func TestHaversine_OneKilometreNorth(t *testing.T) {
	// 0.009 degrees of latitude is about one kilometre
	assert.InDelta(t, 1000.0, Distance(chennai, chennaiN1k), 5.0)
}

func TestHaversine_KnownCityPair(t *testing.T) {
	// Chennai to Bengaluru is roughly 290 km in a straight line
	assert.InDelta(t, 290000.0, Distance(chennai, bengaluru), 5000.0)
}
