package i3bar

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
)

// Stream framing. The output is one endless JSON array whose first element
// is the empty array written with the header.
const (
	Header      = `{"version":1,"click_events":true}` + "\n" + `[[]` + "\n"
	UpdateOpen  = `,[{"full_text":""}`
	UpdateClose = "]\n"
	Footer      = "]\n"
)

// AppendValue appends the JSON encoding of a under the rules of key k.
// Values already in the expected JSON shape are copied verbatim; anything
// else is escaped and quoted. A null value is the literal null.
func AppendValue(dst []byte, k Key, a attrs.Attr) ([]byte, error) {
	value := a.Value
	if a.Null {
		value = "null"
	}

	var verbatim bool
	if k.String {
		verbatim = isJSONString(value)
	} else {
		verbatim = json.Valid([]byte(value))
	}
	if verbatim {
		return append(dst, value...), nil
	}

	buf := newBoundedBuffer(EscapeCap)
	if err := escapeTo(buf, value); err != nil {
		return dst, errors.Wrapf(err, "escape %q", k.Name)
	}
	return append(dst, buf.Bytes()...), nil
}

// AppendBlock appends one block object: a dummy empty pair, then every
// attribute of set whose key is known, in the set's own order. Unknown keys
// are dropped. When a value cannot be encoded the object is closed right
// away and the error returned, so dst stays well-formed.
func AppendBlock(dst []byte, set *attrs.Set) ([]byte, error) {
	dst = append(dst, `,{"":""`...)
	err := set.Each(func(a attrs.Attr) error {
		i := IndexOf(a.Key)
		if i == 0 {
			return nil
		}
		k := keys[i]

		pair := append([]byte(`,"`), k.Name...)
		pair = append(pair, `":`...)
		pair, err := AppendValue(pair, k, a)
		if err != nil {
			return err
		}
		dst = append(dst, pair...)
		return nil
	})
	return append(dst, '}'), err
}

// AppendString appends s as a quoted JSON string.
func AppendString(dst []byte, s string) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = escapeTo(&buf, s)
	return append(dst, buf.Bytes()...)
}

// Message is an out-of-band element shown instead of the regular blocks.
type Message struct {
	FullText  string
	ShortText string
	Color     string
	Urgent    bool
}

// AppendMessage appends m as an independent top-level array element,
// newline included.
func AppendMessage(dst []byte, m Message) []byte {
	dst = append(dst, `,[{"full_text":`...)
	dst = AppendString(dst, m.FullText)
	dst = append(dst, `,"short_text":`...)
	dst = AppendString(dst, m.ShortText)
	if m.Urgent {
		dst = append(dst, `,"urgent":true`...)
	}
	if m.Color != "" {
		dst = append(dst, `,"color":`...)
		dst = AppendString(dst, m.Color)
	}
	return append(dst, "}]\n"...)
}

func isJSONString(v string) bool {
	n := len(v)
	if n < 2 || v[0] != '"' || v[n-1] != '"' {
		return false
	}
	return json.Valid([]byte(v))
}

func escapeTo(w io.Writer, s string) error {
	enc := json.NewEncoder(trimNewline{w})
	enc.SetEscapeHTML(false)
	return enc.Encode(s)
}

// trimNewline drops the newline json.Encoder appends after each value.
type trimNewline struct {
	w io.Writer
}

func (t trimNewline) Write(p []byte) (int, error) {
	n := len(p)
	if n > 0 && p[n-1] == '\n' {
		if _, err := t.w.Write(p[:n-1]); err != nil {
			return 0, err
		}
		return n, nil
	}
	return t.w.Write(p)
}
