package i3bar

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
)

// maxLineSize bounds a single line of command output or click input.
const maxLineSize = 1024 * 1024

// ReadLines decodes fixed-position command output into set: line N sets the
// key at table index N+1 (full_text, short_text, color, ...). At most max
// lines are read; a negative max reads to EOF. Lines past the end of the
// table are ignored. It returns the number of lines read.
func ReadLines(r io.Reader, max int, set *attrs.Set) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	n := 0
	for (max < 0 || n < max) && scanner.Scan() {
		if k, ok := KeyAt(n + 1); ok {
			set.Set(k.Name, scanner.Text())
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, errors.Wrap(err, "i3bar: read lines")
	}
	return n, nil
}

// DecodeObject decodes one JSON object into set, preserving the document's
// key order. String values are stored unescaped, null as a null attribute and
// every other value as its raw JSON text.
func DecodeObject(data []byte, set *attrs.Set) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "i3bar: decode key")
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Errorf("i3bar: unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return errors.Wrapf(err, "i3bar: decode value of %q", key)
		}
		if err := setRaw(set, key, raw); err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("i3bar: trailing data after object")
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "i3bar: decode object")
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.Errorf("i3bar: expected %q, got %v", want, tok)
	}
	return nil
}

func setRaw(set *attrs.Set, key string, raw json.RawMessage) error {
	switch {
	case bytes.Equal(raw, []byte("null")):
		set.SetNull(key)
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errors.Wrapf(err, "i3bar: decode string %q", key)
		}
		set.Set(key, s)
	default:
		set.Set(key, string(raw))
	}
	return nil
}
