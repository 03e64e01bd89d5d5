package app

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	defaultWidth = 1200
	minWidth     = 200
)

type ImageFormat string

type Config struct {
	DBPath        string
	SessionID     int64
	OutputFile    string
	Format        ImageFormat
	Width         int
	Theme         ColorTheme
	TimeZone      *time.Location
	StartTime     *time.Time
	EndTime       *time.Time
	List          bool
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:   ImagePNG,
		Width:    defaultWidth,
		Theme:    ClassicTheme,
		TimeZone: time.Local,
	}
}

// NewConfigFromCLI parses command line arguments, without the program name.
func NewConfigFromCLI(args []string) (*Config, error) {
	c := NewConfig()

	fs := flag.NewFlagSet("trackmap", flag.ContinueOnError)

	var imageFormat, theme, tz, start, end string
	fs.StringVar(&c.DBPath, "db", "", "Path to the journal database file")
	fs.Int64Var(&c.SessionID, "s", 1, "Session ID")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.IntVar(&c.Width, "w", defaultWidth, "Width of the track area in pixels")
	fs.StringVar(&theme, "theme", string(ClassicTheme), "Altitude color theme. [classic, grayscale, jungle, thermal, marine]")
	fs.StringVar(&tz, "tz", "", "Time zone of the annotations, e.g. Australia/Sydney (default local)")
	fs.StringVar(&start, "start", "", "Skip points recorded before this time (format YYYY-MM-DD hh:mm:ss)")
	fs.StringVar(&end, "end", "", "Skip points recorded after this time (format YYYY-MM-DD hh:mm:ss)")
	fs.BoolVar(&c.List, "list", false, "List the sessions in the journal and exit")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as the legend and session info")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)
	c.Theme = ColorTheme(strings.ToLower(theme))

	var err error
	if tz != "" {
		if c.TimeZone, err = time.LoadLocation(tz); err != nil {
			err = fmt.Errorf("invalid time zone: %w", err)
		}
	}
	if err == nil {
		c.StartTime, err = parseTime(start, c.TimeZone)
	}
	if err == nil {
		c.EndTime, err = parseTime(end, c.TimeZone)
	}

	switch {
	case err != nil:
	case c.DBPath == "":
		err = errors.New("db path is required")
	case c.List:
		return c, nil
	case c.SessionID <= 0:
		err = errors.New("session id is required")
	case c.OutputFile == "":
		err = errors.New("output file is required")
	case c.Width < minWidth:
		err = fmt.Errorf("width must be at least %d pixels", minWidth)
	case c.StartTime != nil && c.EndTime != nil && c.EndTime.Before(*c.StartTime):
		err = errors.New("end time is before start time")
	}
	if err == nil {
		if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
			err = fmt.Errorf("invalid image format: %s", imageFormat)
		} else if _, ok = themes[c.Theme]; !ok {
			err = fmt.Errorf("invalid color theme: %s", theme)
		}
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	if filepath.Ext(c.OutputFile) == "" {
		c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	}
	return c, nil
}

func parseTime(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateTime, s, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return &t, nil
}
