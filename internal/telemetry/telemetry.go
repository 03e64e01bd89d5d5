package telemetry

import (
	"fmt"
	"math"
)

const (
	degreesScale = 1e7 // lat/lon are reported in degrees * 1e7
	metersScale  = 1e3 // altitudes are reported in millimetres
	rateScale    = 1e3 // vertical rate scale as reported by the link

	degreesPrecision  = 7
	altitudePrecision = 2
	ratePrecision     = 2
)

var (
	altitudeStep = int64(math.Pow10(3 - altitudePrecision)) // raw units per output step
	rateStep     = int64(math.Pow10(3 - ratePrecision))
)

// RawPosition is a fixed-point global position reading as delivered by the vehicle link.
type RawPosition struct {
	Lat         int32 // Latitude in degrees * 1e7
	Lon         int32 // Longitude in degrees * 1e7
	Alt         int32 // Absolute (MSL) altitude in millimetres
	RelativeAlt int32 // Altitude above home in millimetres
	Vz          int16 // Vertical rate, scaled by 1e3
}

// Sample is one canonical telemetry reading. Samples are compared by value.
type Sample struct {
	Lat    float64 // Latitude in degrees
	Lon    float64 // Longitude in degrees
	AbsAlt float64 // Absolute altitude in metres
	RelAlt float64 // Altitude above home in metres
	Vz     float64 // Vertical rate in m/s
}

// Point returns the sample position with its absolute altitude.
func (s Sample) Point() GeoPoint {
	return GeoPoint{Lat: s.Lat, Lon: s.Lon, Alt: s.AbsAlt}
}

func (s Sample) String() string {
	return fmt.Sprintf("lat=%.7f lon=%.7f alt=%.2f rel=%.2f vz=%.2f", s.Lat, s.Lon, s.AbsAlt, s.RelAlt, s.Vz)
}

// Convert turns a raw reading into a canonical sample, rounding half away from zero
// to the precision of each field.
func Convert(p RawPosition) Sample {
	return Sample{
		Lat:    float64(p.Lat) / degreesScale, // 1e7 already carries exactly degreesPrecision decimals
		Lon:    float64(p.Lon) / degreesScale,
		AbsAlt: scaled(int64(p.Alt), altitudeStep, altitudePrecision),
		RelAlt: scaled(int64(p.RelativeAlt), altitudeStep, altitudePrecision),
		Vz:     scaled(int64(p.Vz), rateStep, ratePrecision),
	}
}

// Encode is the inverse of Convert, used by links that keep state in canonical units.
func Encode(lat, lon, absAlt, relAlt, vz float64) RawPosition {
	return RawPosition{
		Lat:         int32(math.Round(lat * degreesScale)),
		Lon:         int32(math.Round(lon * degreesScale)),
		Alt:         int32(math.Round(absAlt * metersScale)),
		RelativeAlt: int32(math.Round(relAlt * metersScale)),
		Vz:          int16(math.Round(vz * rateScale)),
	}
}

// scaled rounds a fixed-point value to whole steps and returns it with the given number of
// decimals. Rounding happens on integers so that decimal midpoints are exact.
func scaled(v, step int64, decimals int) float64 {
	return float64(roundDiv(v, step)) / math.Pow10(decimals)
}

// roundDiv divides v by d (d > 0), rounding half away from zero.
func roundDiv(v, d int64) int64 {
	q, r := v/d, v%d
	if r < 0 {
		r = -r
	}
	if 2*r >= d {
		if v < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}
