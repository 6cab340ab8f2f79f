package domain

import "math"

const earthRadiusKm = 6371.0

// Geographic coordinates (latitude, longitude).
//
// The zero value means "location unknown". Core scheduling operations treat an
// unknown coordinate as a hard stop rather than silently assuming zero travel
// time; callers resolve addresses (or fall back to the depot) before invoking
// them.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinates carry a usable location.
func (c Coordinates) Valid() bool { return c.Lat != 0 || c.Lng != 0 }

// DistanceKm returns the great-circle distance to other in kilometers.
func (c Coordinates) DistanceKm(other Coordinates) float64 {
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(c.Lat*math.Pi/180)*math.Cos(other.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
