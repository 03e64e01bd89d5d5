package telemetry

import (
	"fmt"
	"math"
)

const earthRadius = 6_371_000.0 // mean Earth radius in metres

// GeoPoint is a geographic position with an absolute altitude in metres.
type GeoPoint struct {
	Lat float64
	Lon float64
	Alt float64
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.7f,%.7f @%.2fm", p.Lat, p.Lon, p.Alt)
}

// Distance returns the great-circle distance between two points in metres, ignoring altitude.
func Distance(a, b GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Offset moves p by north/east metres using a local flat-earth approximation.
func Offset(p GeoPoint, north, east float64) GeoPoint {
	dLat := north / earthRadius * 180 / math.Pi
	dLon := east / (earthRadius * math.Cos(p.Lat*math.Pi/180)) * 180 / math.Pi
	return GeoPoint{Lat: p.Lat + dLat, Lon: p.Lon + dLon, Alt: p.Alt}
}

// Bearing returns the north/east components in metres of the vector from a to b.
func Bearing(a, b GeoPoint) (north, east float64) {
	north = (b.Lat - a.Lat) * math.Pi / 180 * earthRadius
	east = (b.Lon - a.Lon) * math.Pi / 180 * earthRadius * math.Cos(a.Lat*math.Pi/180)
	return north, east
}
