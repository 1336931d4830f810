package geo

import (
	"fmt"
	"math"
)

const (
	earthRadiusKm = 6371

	kmPerMile  = 1.60934
	milesPerKm = 0.621371
)

// Point is an immutable coordinate pair. Latitude in [-90,90], longitude
// in [-180,180]; out-of-range values are a provider problem, not ours.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// KmToMiles converts kilometers to miles
func KmToMiles(km float64) float64 {
	return km * milesPerKm
}

// MilesToKm converts miles to kilometers
func MilesToKm(mi float64) float64 {
	return mi * kmPerMile
}

// Unit is a display unit for distances
type Unit string

const (
	UnitMiles Unit = "mi"
	UnitKm    Unit = "km"
)

// FormatMiles formats a distance given in km as a short miles string
// for display, e.g. "1.2 mi".
func FormatMiles(km float64) string {
	mi := KmToMiles(km)
	if mi < 0.1 {
		return "< 0.1 mi"
	}
	return fmt.Sprintf("%.1f mi", mi)
}

// FormatDistance formats a distance given in km in the requested unit.
func FormatDistance(km float64, unit Unit) string {
	if unit == UnitKm {
		if km < 0.1 {
			return "< 0.1 km"
		}
		return fmt.Sprintf("%.1f km", km)
	}
	return FormatMiles(km)
}

// RoundKm rounds a km value to two decimal places, the precision used
// for all distances surfaced to callers.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
