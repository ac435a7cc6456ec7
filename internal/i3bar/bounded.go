package i3bar

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	// EscapeCap bounds the escaped form of one attribute value, quotes
	// included.
	EscapeCap = 8192

	// MessageCap bounds the text of an out-of-band error message.
	MessageCap = 8192
)

// ErrOverflow is returned when an encoded value does not fit its buffer.
var ErrOverflow = errors.New("i3bar: value exceeds buffer capacity")

// boundedBuffer is an io.Writer that refuses to grow past max bytes. A write
// that would overflow leaves the buffer untouched.
type boundedBuffer struct {
	buf []byte
	max int
}

func newBoundedBuffer(max int) *boundedBuffer {
	return &boundedBuffer{max: max}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if len(b.buf)+len(p) > b.max {
		return 0, ErrOverflow
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *boundedBuffer) Bytes() []byte {
	return b.buf
}

// Truncate returns s cut to at most max bytes without splitting a UTF-8
// sequence. Strings of exactly max bytes are returned unchanged.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
