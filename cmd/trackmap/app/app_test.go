package app

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/drone-console/internal/storage"
	"github.com/roman-kulish/drone-console/internal/telemetry"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func seedJournal(t *testing.T) (string, int64) {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "journal.sqlite")
	store := storage.NewSqliteStore(path)

	id, err := store.CreateSession(ctx, "sim", nil)
	require.NoError(t, err)
	_, err = store.CreateSession(ctx, "sim", nil)
	require.NoError(t, err)

	start := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	home := telemetry.GeoPoint{Lat: -35.3632621, Lon: 149.1652374}

	records := make([]storage.TelemetryRecord, 0, 30)
	for i := range 30 {
		p := telemetry.Offset(home, float64(i)*3, float64(i%10)*4)
		records = append(records, storage.TelemetryRecord{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Sample:    telemetry.Sample{Lat: p.Lat, Lon: p.Lon, AbsAlt: 584 + float64(i), RelAlt: float64(i)},
		})
	}
	require.NoError(t, store.InsertTelemetry(ctx, id, records...))
	require.NoError(t, store.Close())

	return path, id
}

func TestRun_RendersTrack(t *testing.T) {
	dbPath, id := seedJournal(t)

	config := NewConfig()
	config.DBPath = dbPath
	config.SessionID = id
	config.Width = 300
	config.OutputFile = filepath.Join(t.TempDir(), "track.png")

	require.NoError(t, Run(context.Background(), config, io.Discard, discardLogger))

	f, err := os.Open(config.OutputFile)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 300+defaultLeftBorder+defaultRightBorder, img.Bounds().Dx())
}

func TestRun_JPEG(t *testing.T) {
	dbPath, id := seedJournal(t)

	config := NewConfig()
	config.DBPath = dbPath
	config.SessionID = id
	config.Format = ImageJPEG
	config.OutputFile = filepath.Join(t.TempDir(), "track.jpeg")

	require.NoError(t, Run(context.Background(), config, io.Discard, discardLogger))

	info, err := os.Stat(config.OutputFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_EmptySession(t *testing.T) {
	dbPath, id := seedJournal(t)

	config := NewConfig()
	config.DBPath = dbPath
	config.SessionID = id + 1
	config.OutputFile = filepath.Join(t.TempDir(), "track.png")

	err := Run(context.Background(), config, io.Discard, discardLogger)
	assert.ErrorIs(t, err, ErrEmptyTrack)
	assert.NoFileExists(t, config.OutputFile)
}

func TestRun_List(t *testing.T) {
	dbPath, _ := seedJournal(t)

	config := NewConfig()
	config.DBPath = dbPath
	config.List = true

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), config, &out, discardLogger))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "STARTED", "VEHICLE"}, fieldStrings(bytes.Fields(lines[0])))
	assert.Equal(t, "1", string(bytes.Fields(lines[1])[0]))
	assert.Contains(t, string(lines[1]), "sim")
}

func TestRun_MissingDatabase(t *testing.T) {
	config := NewConfig()
	config.DBPath = filepath.Join(t.TempDir(), "missing.sqlite")
	config.List = true

	err := Run(context.Background(), config, io.Discard, discardLogger)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func fieldStrings(fields [][]byte) []string {
	s := make([]string, len(fields))
	for i, f := range fields {
		s[i] = string(f)
	}
	return s
}
