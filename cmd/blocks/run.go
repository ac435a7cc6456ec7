package main

import (
	"context"
	"io"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/bar"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/block"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/config"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/executor"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/i3bar"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/sched"
)

// newLogger returns the process logger: errors only by default, one level
// more verbose per -v.
func newLogger(w io.Writer, verbose int, exit func(int)) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.ExitFunc = exit

	level := logrus.ErrorLevel + logrus.Level(verbose)
	if level > logrus.TraceLevel {
		level = logrus.TraceLevel
	}
	log.SetLevel(level)
	return log
}

// clickRelay forwards clicks to the executor once it exists; the bar is
// created before the configuration is loaded.
type clickRelay struct {
	exec *executor.Executor
}

func (c *clickRelay) Click(b *block.Block) error {
	if c.exec == nil {
		return nil
	}
	return c.exec.Click(b)
}

// runBar runs the status line until ctx is cancelled.
func runBar(ctx context.Context, s settings, stdin io.Reader, stdout, stderr io.Writer, exit func(int)) error {
	log := newLogger(stderr, s.Verbose, exit)

	mode, err := bar.ParseMode(s.Output)
	if err != nil {
		return err
	}

	relay := &clickRelay{}
	opts := []bar.Option{bar.WithLogger(log), bar.WithClickHandler(relay)}
	if s.Color {
		opts = append(opts, bar.WithColor(termenv.TrueColor))
	}

	b, err := bar.New(stdout, mode, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.WithError(err).Warn("failed to close bar")
		}
	}()

	cfg, err := config.Load(s.Config)
	if err != nil {
		log.Fatalf("Failed to load bar configuration file: %v", err)
		return err
	}
	log.Infof("loaded %d blocks from %s", len(cfg.Blocks), cfg.Path)

	for _, set := range cfg.Blocks {
		if err := b.AddBlock(set); err != nil {
			log.Error(err)
		}
	}

	exec := executor.New(ctx, cfg.Dir, log)
	relay.exec = exec

	var clicks sched.Clicks
	if mode == bar.ModeI3bar {
		clicks = i3bar.NewClickStream(stdin)
	}

	return sched.New(b, exec, clicks, log, sched.Options{DumpDelay: s.DumpDelay}).Run(ctx)
}
