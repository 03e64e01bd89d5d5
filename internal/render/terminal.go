package render

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/roman-kulish/drone-console/internal/telemetry"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	helpLine    = "Keys: t=takeoff | l=land | g=goto | r=rtl | q=quit"
)

// Terminal renders frames as a full-screen table on a terminal in raw mode, so lines end
// with "\r\n".
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

// NewTerminal creates a new Terminal display writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Render implements Display. Write errors are dropped: the next frame redraws everything.
func (t *Terminal) Render(sample *telemetry.Sample, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf.Reset()
	t.buf.WriteString(clearScreen)
	writeFrame(&t.buf, sample, status)

	_, _ = t.out.Write(t.buf.Bytes())
}

func writeFrame(w *bytes.Buffer, sample *telemetry.Sample, status string) {
	w.WriteString(helpLine + "\r\n")
	if status != "" {
		w.WriteString("Status: " + status + "\r\n")
	}
	w.WriteString("\r\n")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprint(tw, "Lat\tLon\tAlt (m)\tRelAlt (m)\tVz (m/s)\t\r\n")

	if sample == nil {
		_, _ = fmt.Fprint(tw, "-\t-\t-\t-\t-\t\r\n")
	} else {
		_, _ = fmt.Fprintf(tw, "%.7f\t%.7f\t%.2f\t%.2f\t%.2f\t\r\n",
			sample.Lat, sample.Lon, sample.AbsAlt, sample.RelAlt, sample.Vz)
	}

	_ = tw.Flush()
}
