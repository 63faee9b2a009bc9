package location

import "math"

// EarthRadiusKm is the Earth radius in kilometers for Haversine.
const EarthRadiusKm = 6371.0

// KmPerDegreeLat is the approximate length of one degree of latitude.
const KmPerDegreeLat = 111.0

// HaversineKm returns distance in km between two points (lat/lng in degrees).
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	φ1, φ2 := rad(lat1), rad(lat2)
	Δφ := rad(lat2 - lat1)
	Δλ := rad(lng2 - lng1)
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// BoundingBox returns a lat/lng box that contains every point within radiusKm of the centre.
// It is a cheap pre-filter; use HaversineKm for the exact cut.
func BoundingBox(lat, lng, radiusKm float64) (latMin, latMax, lngMin, lngMax float64) {
	dLat := radiusKm / KmPerDegreeLat
	cos := math.Cos(lat * math.Pi / 180)
	dLng := dLat
	if cos > 0.01 {
		dLng = radiusKm / (KmPerDegreeLat * cos)
	}
	return lat - dLat, lat + dLat, lng - dLng, lng + dLng
}

// RoundKm rounds a distance to one decimal for display.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
