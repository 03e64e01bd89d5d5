package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"golang.org/x/image/vector"
)

const (
	defaultTopBorder    = 40
	defaultLeftBorder   = 40
	defaultBottomBorder = 130
	defaultRightBorder  = 110

	defaultLineWidth    = 3.0
	defaultMarkerRadius = 7.0
	markerSegments      = 24
)

var (
	ErrEmptyTrack = errors.New("track has no points")

	startMarkerColor = color.RGBA{R: 0x1b, G: 0x9e, B: 0x3e, A: 0xff}
	endMarkerColor   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	frameColor       = color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}
)

// BorderConfig defines the sizes of white space around the track area
type BorderConfig struct {
	Top    int // Title
	Left   int
	Bottom int // Session info
	Right  int // Altitude legend
}

type RenderConfig struct {
	Width          int // Track area width in pixels
	ColorTheme     ColorTheme
	Location       *time.Location
	DatetimeFormat string
	LineWidth      float64
	NoAnnotations  bool
	BorderConfig   BorderConfig
}

// TrackRenderer draws a session track onto an image.
type TrackRenderer struct {
	config RenderConfig
}

func NewTrackRenderer(config RenderConfig) *TrackRenderer {
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = time.DateTime
	}
	if config.LineWidth <= 0 {
		config.LineWidth = defaultLineWidth
	}
	if config.BorderConfig == (BorderConfig{}) {
		config.BorderConfig = BorderConfig{
			Top:    defaultTopBorder,
			Left:   defaultLeftBorder,
			Bottom: defaultBottomBorder,
			Right:  defaultRightBorder,
		}
	}
	if config.NoAnnotations {
		config.BorderConfig = BorderConfig{}
	}

	return &TrackRenderer{config: config}
}

// Render creates an image of the track with annotations
func (r *TrackRenderer) Render(track *TrackData) (*image.RGBA, error) {
	if track.Empty() {
		return nil, ErrEmptyTrack
	}

	proj := newProjection(track, r.config.Width)
	b := r.config.BorderConfig

	img := image.NewRGBA(image.Rect(0, 0, proj.width+b.Left+b.Right, proj.height+b.Top+b.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(b.Left, b.Top, b.Left+proj.width, b.Top+proj.height)
	colors := NewColorMapper(r.config.ColorTheme, AltitudeBounds{Min: track.AltMin, Max: track.AltMax})

	if !r.config.NoAnnotations {
		drawFrame(img, area)

		ann, err := newAnnotator(annotatorConfig{
			Location:       r.config.Location,
			DatetimeFormat: r.config.DatetimeFormat,
			Borders:        b,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, area, track, colors, proj.metresPerPixel); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderPath(img, area, proj, track, colors)
	return img, nil
}

func (r *TrackRenderer) renderPath(img *image.RGBA, area image.Rectangle, proj *projection, track *TrackData, colors *ColorMapper) {
	offset := func(x, y float64) (float64, float64) {
		return x + float64(area.Min.X), y + float64(area.Min.Y)
	}

	for i := 1; i < len(track.Points); i++ {
		a, b := track.Points[i-1], track.Points[i]
		x0, y0 := offset(proj.Project(a.Lat, a.Lon))
		x1, y1 := offset(proj.Project(b.Lat, b.Lon))
		fillSegment(img, x0, y0, x1, y1, r.config.LineWidth, colors.GetColor((a.RelAlt+b.RelAlt)/2))
	}

	first, last := track.Points[0], track.Points[len(track.Points)-1]
	x, y := offset(proj.Project(first.Lat, first.Lon))
	fillCircle(img, x, y, defaultMarkerRadius, startMarkerColor)
	x, y = offset(proj.Project(last.Lat, last.Lon))
	fillCircle(img, x, y, defaultMarkerRadius, endMarkerColor)
}

// fillSegment draws a line of the given width with round joins between x0,y0 and x1,y1.
func fillSegment(img *image.RGBA, x0, y0, x1, y1, width float64, c color.Color) {
	half := width / 2
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length > 0 {
		nx, ny := -dy/length*half, dx/length*half
		fillPolygon(img, c,
			[2]float64{x0 + nx, y0 + ny},
			[2]float64{x1 + nx, y1 + ny},
			[2]float64{x1 - nx, y1 - ny},
			[2]float64{x0 - nx, y0 - ny},
		)
	}
	fillCircle(img, x1, y1, half, c)
}

func fillCircle(img *image.RGBA, cx, cy, radius float64, c color.Color) {
	points := make([][2]float64, markerSegments)
	for i := range points {
		a := 2 * math.Pi * float64(i) / markerSegments
		points[i] = [2]float64{cx + radius*math.Cos(a), cy + radius*math.Sin(a)}
	}
	fillPolygon(img, c, points...)
}

// fillPolygon rasterizes a closed polygon clipped to the image, limiting the rasterizer to the
// polygon's bounding box.
func fillPolygon(img *image.RGBA, c color.Color, points ...[2]float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = min(minX, p[0]), max(maxX, p[0])
		minY, maxY = min(minY, p[1]), max(maxY, p[1])
	}

	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	clip := box.Intersect(img.Bounds())
	if clip.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	z.MoveTo(float32(points[0][0]-ox), float32(points[0][1]-oy))
	for _, p := range points[1:] {
		z.LineTo(float32(p[0]-ox), float32(p[1]-oy))
	}
	z.ClosePath()

	mask := image.NewAlpha(box)
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(img, clip, image.NewUniform(c), image.Point{}, mask, clip.Min, draw.Over)
}

func drawFrame(img *image.RGBA, area image.Rectangle) {
	for x := area.Min.X - 1; x <= area.Max.X; x++ {
		img.Set(x, area.Min.Y-1, frameColor)
		img.Set(x, area.Max.Y, frameColor)
	}
	for y := area.Min.Y - 1; y <= area.Max.Y; y++ {
		img.Set(area.Min.X-1, y, frameColor)
		img.Set(area.Max.X, y, frameColor)
	}
}
