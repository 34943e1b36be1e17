package utils

import (
	"github.com/golang/geo/s2"
)

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two coordinates in degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusKm
}
