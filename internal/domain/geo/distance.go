package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the Haversine formula.
const earthRadiusKm = 6371.0

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Valid reports whether the point lies within [-180,180] / [-90,90].
// Callers are expected to pass validated coordinates; Valid exists for
// boundary checks at the edges of the system.
func (c Coordinates) Valid() bool {
	return c.Longitude >= -180 && c.Longitude <= 180 &&
		c.Latitude >= -90 && c.Latitude <= 90
}

// DistanceKm returns the great-circle distance between two points in
// kilometers, rounded to two decimal places.
func DistanceKm(a, b Coordinates) float64 {
	lat1 := degToRad(a.Latitude)
	lat2 := degToRad(b.Latitude)
	dLat := degToRad(b.Latitude - a.Latitude)
	dLon := degToRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	d := 2 * earthRadiusKm * math.Asin(math.Sqrt(h))

	return math.Round(d*100) / 100
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
