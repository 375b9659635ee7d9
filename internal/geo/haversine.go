package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by every distance computation.
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceKm is Haversine applied to two fixes.
func DistanceKm(a, b Fix) float64 {
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// PathDistanceKm sums the pairwise distances of an ordered path from
// scratch. Live sessions use Accumulator instead.
func PathDistanceKm(fixes []Fix) float64 {
	total := 0.0
	for i := 1; i < len(fixes); i++ {
		total += DistanceKm(fixes[i-1], fixes[i])
	}
	return total
}
