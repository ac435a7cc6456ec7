package bar

import (
	"github.com/sirupsen/logrus"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/i3bar"
)

// adapterSuffix follows the message in full_text.
const adapterSuffix = ". Increase log level and/or check stderr for details."

// errorAdapter is a logrus hook that shows error and fatal entries on the
// bar as an urgent element, then freezes the bar until the next click.
type errorAdapter struct {
	bar    *Bar
	logger *logrus.Logger
	prev   logrus.LevelHooks
}

// installErrorAdapter attaches a new adapter to the bar's logger, keeping the
// hooks already installed.
func installErrorAdapter(b *Bar) *errorAdapter {
	a := &errorAdapter{bar: b, logger: b.log}

	hooks := make(logrus.LevelHooks, len(b.log.Hooks))
	for lvl, hs := range b.log.Hooks {
		hooks[lvl] = append([]logrus.Hook(nil), hs...)
	}
	hooks.Add(a)
	a.prev = b.log.ReplaceHooks(hooks)
	return a
}

// uninstall restores the hooks the logger had before installation.
func (a *errorAdapter) uninstall() {
	a.logger.ReplaceHooks(a.prev)
}

func (a *errorAdapter) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (a *errorAdapter) Fire(e *logrus.Entry) error {
	if !a.logger.IsLevelEnabled(e.Level) || e.Level > logrus.ErrorLevel {
		return nil
	}

	prefix, color := severity(e.Level)
	text := i3bar.Truncate(prefix+e.Message, i3bar.MessageCap)
	msg := i3bar.AppendMessage(nil, i3bar.Message{
		FullText:  text + adapterSuffix,
		ShortText: text,
		Color:     color,
		Urgent:    true,
	})

	b := a.bar
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	if err := b.writeLocked(msg); err != nil {
		return err
	}
	b.frozen = true
	return nil
}

func severity(lvl logrus.Level) (prefix, color string) {
	switch lvl {
	case logrus.PanicLevel, logrus.FatalLevel:
		return "Fatal! ", "#FF0000"
	case logrus.ErrorLevel:
		return "Error: ", "#FF8000"
	default:
		return "", "#FFFFFF"
	}
}
