package i3bar

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
)

// ErrNoData reports that no click line is currently queued. It is a pause,
// not a failure: read again once Ready fires.
var ErrNoData = errors.New("i3bar: no data available")

// ClickStream reads i3bar click events, one JSON object per line, on a
// background goroutine. The host opens the stream with "[" and separates
// events with leading commas; both are skipped.
type ClickStream struct {
	lines chan []byte
	ready chan struct{}
	err   error // set before lines is closed
}

// NewClickStream starts reading r. The goroutine exits when r reaches EOF or
// fails.
func NewClickStream(r io.Reader) *ClickStream {
	c := &ClickStream{
		lines: make(chan []byte, 64),
		ready: make(chan struct{}, 1),
	}
	go c.read(r)
	return c
}

func (c *ClickStream) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		line = bytes.TrimPrefix(line, []byte(","))
		line = bytes.TrimSpace(line)
		if len(line) == 0 || bytes.Equal(line, []byte("[")) {
			continue
		}
		c.lines <- bytes.Clone(line)
		c.notify()
	}

	if err := scanner.Err(); err != nil {
		c.err = errors.Wrap(err, "i3bar: read clicks")
	}
	close(c.lines)
	c.notify()
}

func (c *ClickStream) notify() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// Ready fires after new lines were queued or the input closed.
func (c *ClickStream) Ready() <-chan struct{} {
	return c.ready
}

// ReadClick decodes the next queued click into dst without blocking. It
// returns ErrNoData when nothing is queued and io.EOF once the input closed
// and every line was consumed.
func (c *ClickStream) ReadClick(dst *attrs.Set) error {
	select {
	case line, ok := <-c.lines:
		if !ok {
			if c.err != nil {
				return c.err
			}
			return io.EOF
		}
		return DecodeObject(line, dst)
	default:
		return ErrNoData
	}
}
