package utils

import (
	"math"

	"circloth_server/models"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// DistanceKm measures between two optional locations. A missing side is
// infinitely far away.
func DistanceKm(from, to *models.Location) float64 {
	if from == nil || to == nil {
		return math.Inf(1)
	}
	return HaversineKm(from.Lat, from.Lng, to.Lat, to.Lng)
}
