package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"golang.org/x/term"
)

// ErrClosed is returned once the terminal input has been closed or exhausted.
var ErrClosed = errors.New("terminal input closed")

// Terminal is the operator console. It puts the terminal into raw mode, serves single key
// presses to the input loop and whole lines to command prompts. While a prompt is open
// the key stream is paused so the prompt receives every byte.
type Terminal struct {
	fd    int
	state *term.State
	out   io.Writer

	bytes chan byte
	done  chan struct{}

	mu       sync.Mutex
	readErr  error
	pending  []byte
	lineMode bool

	closeOnce sync.Once
}

// NewTerminal creates a new Terminal over in and out. When in is a terminal it is switched
// to raw mode until Close.
func NewTerminal(in *os.File, out io.Writer) (*Terminal, error) {
	t := Terminal{
		fd:    int(in.Fd()),
		out:   out,
		bytes: make(chan byte, 256),
		done:  make(chan struct{}),
	}

	if term.IsTerminal(t.fd) {
		state, err := term.MakeRaw(t.fd)
		if err != nil {
			return nil, fmt.Errorf("make terminal raw: %w", err)
		}
		t.state = state
	}

	go t.pump(in)

	return &t, nil
}

// pump copies input bytes to the channel both readers share. Reads on stdin cannot be
// interrupted, so the goroutine ends only when the input does.
func (t *Terminal) pump(in io.Reader) {
	defer close(t.bytes)

	buf := make([]byte, 64)
	for {
		n, err := in.Read(buf)
		for _, b := range buf[:n] {
			select {
			case t.bytes <- b:
			case <-t.done:
				return
			}
		}
		if err != nil {
			t.mu.Lock()
			t.readErr = err
			t.mu.Unlock()
			return
		}
	}
}

// TryReadKey implements KeySource. It never blocks and reports no key while a prompt is
// reading a line.
func (t *Terminal) TryReadKey() (rune, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lineMode {
		return 0, false, nil
	}

	for {
		if len(t.pending) > 0 && utf8.FullRune(t.pending) {
			r, size := utf8.DecodeRune(t.pending)
			t.pending = t.pending[size:]
			return r, true, nil
		}

		select {
		case b, ok := <-t.bytes:
			if !ok {
				return 0, false, t.closedErr()
			}
			t.pending = append(t.pending, b)
		default:
			return 0, false, nil
		}
	}
}

// ReadLine implements the command line source. It shows prompt, lets the operator edit a
// line and returns it without the line ending. It returns io.EOF when the operator ends
// input with Ctrl-D on an empty line.
func (t *Terminal) ReadLine(ctx context.Context, prompt string) (string, error) {
	t.mu.Lock()
	if t.lineMode {
		t.mu.Unlock()
		return "", errors.New("another prompt is open")
	}
	t.lineMode = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.lineMode = false
		t.mu.Unlock()
	}()

	line, err := term.NewTerminal(&lineReader{ctx: ctx, t: t}, prompt).ReadLine()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		return "", err
	}

	return line, nil
}

// Close restores the terminal state.
func (t *Terminal) Close() (err error) {
	t.closeOnce.Do(func() {
		close(t.done)
		if t.state != nil {
			if err = term.Restore(t.fd, t.state); err != nil {
				err = fmt.Errorf("restore terminal: %w", err)
			}
		}
	})
	return
}

func (t *Terminal) closedErr() error {
	if t.readErr != nil && !errors.Is(t.readErr, io.EOF) {
		return fmt.Errorf("%w: %w", ErrClosed, t.readErr)
	}
	return ErrClosed
}

// lineReader feeds the line editor from the shared byte channel, starting with any bytes
// the key reader had already buffered. It hands out one byte per Read: the editor keeps
// whatever it reads past the line ending, so anything typed ahead of the next prompt or
// key press has to stay in the channel.
type lineReader struct {
	ctx context.Context
	t   *Terminal
}

func (r *lineReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.t.mu.Lock()
	if len(r.t.pending) > 0 {
		p[0] = r.t.pending[0]
		r.t.pending = r.t.pending[1:]
		r.t.mu.Unlock()
		return 1, nil
	}
	r.t.mu.Unlock()

	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	case b, ok := <-r.t.bytes:
		if !ok {
			return 0, io.EOF
		}
		p[0] = b
		return 1, nil
	}
}

func (r *lineReader) Write(p []byte) (int, error) {
	return r.t.out.Write(p)
}
