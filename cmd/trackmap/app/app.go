package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/drone-console/internal/storage"
)

func Run(ctx context.Context, config *Config, out io.Writer, logger *slog.Logger) (err error) {
	if _, err = os.Stat(config.DBPath); err != nil {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	if config.List {
		return listSessions(ctx, store, out)
	}

	track, err := readTrack(ctx, store, config, logger)
	if err != nil {
		return err
	}

	renderer := NewTrackRenderer(RenderConfig{
		Width:         config.Width,
		ColorTheme:    config.Theme,
		Location:      config.TimeZone,
		NoAnnotations: config.NoAnnotations,
	})

	img, err := renderer.Render(track)
	if err != nil {
		return fmt.Errorf("rendering track: %w", err)
	}

	logger.Info("writing image",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	return writeImage(config.OutputFile, config.Format, img)
}

func listSessions(ctx context.Context, store storage.Store, out io.Writer) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTARTED\tVEHICLE")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%d\t%s (%s)\t%s\n",
			s.ID, s.StartTime.Local().Format(time.DateTime), humanize.Time(s.StartTime), s.Vehicle)
	}
	return w.Flush()
}

func readTrack(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) (*TrackData, error) {
	var opts []storage.TrackOption
	var filters []any

	var start, end time.Time
	if config.StartTime != nil {
		start = config.StartTime.UTC()
		filters = append(filters, slog.String("start", start.Format(time.DateTime)))
	}
	if config.EndTime != nil {
		end = config.EndTime.UTC()
		filters = append(filters, slog.String("end", end.Format(time.DateTime)))
	}
	if len(filters) > 0 {
		opts = append(opts, storage.WithTimeRange(start, end))
		logger.Info("track filter", filters...)
	}

	reader, err := store.Track(ctx, config.SessionID, opts...)
	if err != nil {
		return nil, fmt.Errorf("reading session %d: %w", config.SessionID, err)
	}
	defer reader.Close()

	track := NewTrackData()
	track.Session = reader.Session()
	for reader.Next(ctx) {
		track.Update(reader.Current())
	}
	if err = reader.Error(); err != nil {
		return nil, fmt.Errorf("reading track: %w", err)
	}
	if track.Empty() {
		return nil, fmt.Errorf("session %d: %w", config.SessionID, ErrEmptyTrack)
	}

	logger.Info("finished reading track",
		slog.Group("stats",
			slog.Int("points", len(track.Points)),
			slog.String("start", track.TimestampStart.Local().Format(time.DateTime)),
			slog.String("end", track.TimestampEnd.Local().Format(time.DateTime)),
			slog.String("distance", humanize.SIWithDigits(track.Distance, 2, "m")),
			slog.String("minAlt", formatAltitude(track.AltMin)),
			slog.String("maxAlt", formatAltitude(track.AltMax)),
		))

	return track, nil
}

func writeImage(path string, format ImageFormat, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	switch format {
	case ImageJPEG:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		err = fmt.Errorf("encoding %s: %w", format, err)
	}
	return
}
