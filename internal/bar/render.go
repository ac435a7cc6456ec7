package bar

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/block"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/i3bar"
)

// Mode selects the output encoding.
type Mode int

const (
	// ModeI3bar streams the i3bar JSON protocol.
	ModeI3bar Mode = iota
	// ModeTerm rewrites a single terminal line in place.
	ModeTerm
)

func (m Mode) String() string {
	switch m {
	case ModeI3bar:
		return "i3bar"
	case ModeTerm:
		return "term"
	default:
		return "unknown"
	}
}

// ParseMode maps "i3bar" or "term" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "i3bar":
		return ModeI3bar, nil
	case "term":
		return ModeTerm, nil
	}
	return 0, errors.Errorf("unknown output mode %q (want i3bar or term)", s)
}

// renderer encodes one output mode. Each method appends to dst.
type renderer interface {
	start(dst []byte) []byte
	render(dst []byte, blocks []*block.Block) []byte
	stop(dst []byte) []byte
}

type i3barRenderer struct {
	log *logrus.Logger
}

func (r *i3barRenderer) start(dst []byte) []byte {
	return append(dst, i3bar.Header...)
}

func (r *i3barRenderer) render(dst []byte, blocks []*block.Block) []byte {
	dst = append(dst, i3bar.UpdateOpen...)
	for _, b := range blocks {
		if !b.Attrs().Has("full_text") {
			r.log.Debugf("%s has no full_text, skipping", b)
			continue
		}
		var err error
		dst, err = i3bar.AppendBlock(dst, b.Attrs())
		if err != nil {
			// Warn, not error: an error entry would re-enter the bar mid-line.
			r.log.WithError(err).Warnf("%s: failed to encode", b)
		}
	}
	return append(dst, i3bar.UpdateClose...)
}

func (r *i3barRenderer) stop(dst []byte) []byte {
	return append(dst, i3bar.Footer...)
}

const termUpdate = ansi.RestoreCurrentCursorPosition + ansi.EraseLineRight

type termRenderer struct {
	style *lipgloss.Renderer // nil when colour is off
}

func newTermRenderer(w io.Writer, color bool, p termenv.Profile) *termRenderer {
	r := &termRenderer{}
	if color {
		r.style = lipgloss.NewRenderer(w)
		r.style.SetColorProfile(p)
	}
	return r
}

func (r *termRenderer) start(dst []byte) []byte {
	dst = append(dst, ansi.SaveCurrentCursorPosition+ansi.HideCursor...)
	return append(dst, termUpdate...)
}

func (r *termRenderer) render(dst []byte, blocks []*block.Block) []byte {
	dst = append(dst, termUpdate...)
	for _, b := range blocks {
		text, ok := b.Get("full_text")
		if !ok {
			continue
		}
		dst = append(dst, r.colorize(text, b)...)
		dst = append(dst, ' ')
	}
	return dst
}

func (r *termRenderer) colorize(text string, b *block.Block) string {
	if r.style == nil {
		return text
	}
	c, ok := b.Get("color")
	if !ok || c == "" {
		return text
	}
	return r.style.NewStyle().Foreground(lipgloss.Color(c)).Render(text)
}

func (r *termRenderer) stop(dst []byte) []byte {
	return append(dst, ansi.ShowCursor...)
}
