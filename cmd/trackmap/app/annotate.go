package app

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi      = 72.0
	fontSize = 14.0
	spacing  = 1.4

	legendWidth  = 18
	legendMargin = 14
)

type annotatorConfig struct {
	Location       *time.Location
	DatetimeFormat string
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
	}, nil
}

func (a *annotator) Close() error {
	return a.fontFace.Close()
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, track *TrackData, colors *ColorMapper, metresPerPixel float64) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawTitle(track); err != nil {
		return fmt.Errorf("drawing title: %w", err)
	}
	if err := a.drawLegend(img, area, track, colors); err != nil {
		return fmt.Errorf("drawing legend: %w", err)
	}
	if err := a.drawInfo(img, track, metresPerPixel); err != nil {
		return fmt.Errorf("drawing info: %w", err)
	}
	return nil
}

func (a *annotator) drawTitle(track *TrackData) error {
	title := "Flight track"
	if track.Session != nil {
		title = fmt.Sprintf("Session #%d: %s vehicle", track.Session.ID, track.Session.Vehicle)
	}

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := (a.config.Borders.Top+fontHeight)/2 - metrics.Descent.Round()

	_, err := a.context.DrawString(title, freetype.Pt(a.config.Borders.Left, textY))
	return err
}

// drawLegend draws the altitude gradient to the right of the track area, highest on top.
func (a *annotator) drawLegend(img *image.RGBA, area image.Rectangle, track *TrackData, colors *ColorMapper) error {
	x0 := area.Max.X + legendMargin
	height := area.Dy()

	for y := 0; y < height; y++ {
		c := colors.Gradient(1 - float64(y)/float64(max(height-1, 1)))
		for x := x0; x < x0+legendWidth; x++ {
			img.Set(x, area.Min.Y+y, c)
		}
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		img.Set(x0-1, y, color.Black)
		img.Set(x0+legendWidth, y, color.Black)
	}

	metrics := a.fontFace.Metrics()
	labelX := x0 + legendWidth + 6

	top := freetype.Pt(labelX, area.Min.Y+metrics.Ascent.Round())
	if _, err := a.context.DrawString(formatAltitude(track.AltMax), top); err != nil {
		return err
	}
	bottom := freetype.Pt(labelX, area.Max.Y-metrics.Descent.Round())
	_, err := a.context.DrawString(formatAltitude(track.AltMin), bottom)
	return err
}

func (a *annotator) drawInfo(img *image.RGBA, track *TrackData, metresPerPixel float64) error {
	loc := a.config.Location
	lines := []string{
		fmt.Sprintf("Start: %s    End: %s    Duration: %s",
			track.TimestampStart.In(loc).Format(a.config.DatetimeFormat),
			track.TimestampEnd.In(loc).Format(a.config.DatetimeFormat),
			track.TimestampEnd.Sub(track.TimestampStart).Round(time.Second)),
		fmt.Sprintf("Distance flown: %s    Points: %s",
			humanize.SIWithDigits(track.Distance, 2, "m"), humanize.Comma(int64(len(track.Points)))),
		fmt.Sprintf("Altitude above home: %s to %s",
			formatAltitude(track.AltMin), formatAltitude(track.AltMax)),
		fmt.Sprintf("Lat %.5f to %.5f    Lon %.5f to %.5f",
			track.LatMin, track.LatMax, track.LonMin, track.LonMax),
		fmt.Sprintf("1 pixel = %s", humanize.SIWithDigits(metresPerPixel, 2, "m")),
	}

	lineHeight := a.context.PointToFixed(fontSize * spacing)
	pt := freetype.Pt(a.config.Borders.Left, img.Bounds().Max.Y-a.config.Borders.Bottom+a.fontFace.Metrics().Ascent.Round()+8)
	for _, s := range lines {
		if _, err := a.context.DrawString(s, pt); err != nil {
			return err
		}
		pt.Y += lineHeight
	}
	return nil
}

func formatAltitude(alt float64) string {
	return humanize.FtoaWithDigits(alt, 1) + " m"
}
