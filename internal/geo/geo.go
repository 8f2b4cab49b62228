// Package geo provides the distance and drive-time primitives used by the
// ranking engine and the winter-closure advisor.
package geo

import "math"

// EarthRadiusKm is the spherical-Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// FallbackAvgSpeedKmh is the assumed average road speed when the routing
// adapter is unavailable. Mountain roads rarely sustain more than 50-60 km/h.
const FallbackAvgSpeedKmh = 55.0

// HaversineKm returns the great-circle distance between two coordinates in
// kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// EstimateDriveHours converts a road distance to a rough driving duration
// using FallbackAvgSpeedKmh. Used only when routing fails or finds no route.
func EstimateDriveHours(distanceKm float64) float64 {
	return distanceKm / FallbackAvgSpeedKmh
}
