// Package geo provides great-circle distance math on a spherical
// earth model. The approximation error is well under a meter at the
// scales the proximity check cares about.
package geo

import "math"

// earthRadiusM is the mean earth radius in meters.
const earthRadiusM = 6371000.0

// DistanceMeters returns the great-circle distance between two
// coordinates using the haversine formula. Always non-negative.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}
