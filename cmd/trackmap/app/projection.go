package app

import (
	"image"
	"math"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

const (
	minSpanMetres = 20.0 // a hovering track still gets a readable scale
	maxAspect     = 2.0  // track area height is capped at width * maxAspect
	innerMargin   = 16   // pixels between the path and the area edge
)

// projection is an equirectangular projection centred on the track, with the same metric scale
// on both axes.
type projection struct {
	centre         telemetry.GeoPoint
	metresPerPixel float64
	origin         image.Point // pixel position of the centre
	width, height  int
}

func newProjection(track *TrackData, width int) *projection {
	centre := telemetry.GeoPoint{
		Lat: (track.LatMin + track.LatMax) / 2,
		Lon: (track.LonMin + track.LonMax) / 2,
	}
	north, east := telemetry.Bearing(
		telemetry.GeoPoint{Lat: track.LatMin, Lon: track.LonMin},
		telemetry.GeoPoint{Lat: track.LatMax, Lon: track.LonMax},
	)
	spanX := max(math.Abs(east), minSpanMetres)
	spanY := max(math.Abs(north), minSpanMetres)

	usable := float64(width - 2*innerMargin)
	mpp := spanX / usable

	maxHeight := int(float64(width) * maxAspect)
	height := int(math.Ceil(spanY/mpp)) + 2*innerMargin
	if height > maxHeight {
		height = maxHeight
		mpp = spanY / float64(height-2*innerMargin)
	}

	return &projection{
		centre:         centre,
		metresPerPixel: mpp,
		origin:         image.Pt(width/2, height/2),
		width:          width,
		height:         height,
	}
}

// Project returns the position of lat/lon relative to the top left corner of the track area.
func (p *projection) Project(lat, lon float64) (x, y float64) {
	north, east := telemetry.Bearing(p.centre, telemetry.GeoPoint{Lat: lat, Lon: lon})
	return float64(p.origin.X) + east/p.metresPerPixel, float64(p.origin.Y) - north/p.metresPerPixel
}
