// Package sched drives a bar: it runs block commands on their intervals and
// signals, applies their results, relays clicks and coalesces redraws.
package sched

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/bep/debounce"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/bar"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/block"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/executor"
)

// Bar is the part of *bar.Bar the scheduler drives.
type Bar interface {
	Blocks() []*block.Block
	Dump() error
	Click(r bar.ClickReader) error
}

// Runner executes block commands.
// *executor.Executor satisfies this interface.
type Runner interface {
	Run(b *block.Block) error
	Results() <-chan executor.Result
	Stop()
}

// Clicks is a click input that announces when events are queued.
// *i3bar.ClickStream satisfies this interface.
type Clicks interface {
	bar.ClickReader
	Ready() <-chan struct{}
}

// Options tunes a Scheduler.
type Options struct {
	// DumpDelay coalesces redraws requested within this window. Zero
	// redraws after every update.
	DumpDelay time.Duration
}

// Scheduler owns the bar and its blocks while Run is active. Every Bar and
// Block access happens on the Run goroutine.
type Scheduler struct {
	bar    Bar
	runner Runner
	clicks Clicks
	log    *logrus.Logger
	opts   Options

	dumpCh chan struct{}
}

// New creates a scheduler. clicks may be nil when click input is disabled.
func New(b Bar, runner Runner, clicks Clicks, log *logrus.Logger, opts Options) *Scheduler {
	return &Scheduler{
		bar:    b,
		runner: runner,
		clicks: clicks,
		log:    log,
		opts:   opts,
		dumpCh: make(chan struct{}, 1),
	}
}

// Run schedules the blocks until ctx is cancelled or the bar can no longer
// be written. Running commands are stopped before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.runner.Stop()

	if err := s.bar.Dump(); err != nil {
		return err
	}

	requestDump := s.requester()

	ticks := make(chan time.Duration)
	byInterval := s.intervals()
	for _, d := range sortedKeys(byInterval) {
		go tick(ctx, d, ticks)
	}

	sigCh := make(chan os.Signal, 8)
	bySignal := s.signals()
	if len(bySignal) > 0 {
		sigs := make([]os.Signal, 0, len(bySignal))
		for sig := range bySignal {
			sigs = append(sigs, sig)
		}
		signal.Notify(sigCh, sigs...)
		defer signal.Stop(sigCh)
	}

	for _, b := range s.bar.Blocks() {
		if b.Command() != "" {
			s.run(b)
		}
	}

	var ready <-chan struct{}
	if s.clicks != nil {
		ready = s.clicks.Ready()
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("scheduler stopped")
			return nil

		case d := <-ticks:
			for _, b := range byInterval[d] {
				s.run(b)
			}

		case sig := <-sigCh:
			s.log.Debugf("received %v", sig)
			for _, b := range bySignal[sig] {
				s.run(b)
			}

		case <-ready:
			err := s.bar.Click(s.clicks)
			if errors.Is(err, io.EOF) {
				s.log.Debug("click input closed")
				ready = nil
			} else if err != nil {
				s.log.Error(err)
			}

		case r := <-s.runner.Results():
			if s.apply(r) {
				requestDump()
			}

		case <-s.dumpCh:
			if err := s.bar.Dump(); err != nil {
				return err
			}
		}
	}
}

// apply folds a command result into its block and reports whether the bar
// needs a redraw.
func (s *Scheduler) apply(r executor.Result) bool {
	b := r.Block
	if r.Err != nil {
		s.log.Error(r.Err)
	}
	if r.Done {
		s.log.Debugf("%s: persistent command exited", b)
	}

	changed := false
	if r.Output != nil {
		b.Update(r.Output)
		changed = true
	}
	if b.Interval() == block.IntervalRepeat && r.Err == nil {
		s.run(b)
	}
	return changed
}

func (s *Scheduler) run(b *block.Block) {
	if err := s.runner.Run(b); err != nil {
		s.log.Error(err)
	}
}

// requester returns the function used to ask for a redraw.
func (s *Scheduler) requester() func() {
	send := func() {
		select {
		case s.dumpCh <- struct{}{}:
		default:
		}
	}
	if s.opts.DumpDelay <= 0 {
		return send
	}
	debounced := debounce.New(s.opts.DumpDelay)
	return func() { debounced(send) }
}

func (s *Scheduler) intervals() map[time.Duration][]*block.Block {
	m := make(map[time.Duration][]*block.Block)
	for _, b := range s.bar.Blocks() {
		if d := b.Interval(); d > 0 && b.Command() != "" {
			m[d] = append(m[d], b)
		}
	}
	return m
}

func (s *Scheduler) signals() map[os.Signal][]*block.Block {
	m := make(map[os.Signal][]*block.Block)
	for _, b := range s.bar.Blocks() {
		n := b.Signal()
		if n == 0 || b.Command() == "" {
			continue
		}
		sig, ok := realtimeSignal(n)
		if !ok {
			s.log.Warnf("%s: real-time signals are not supported on this platform", b)
			continue
		}
		m[sig] = append(m[sig], b)
	}
	return m
}

func tick(ctx context.Context, d time.Duration, out chan<- time.Duration) {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
	}
}

func sortedKeys(m map[time.Duration][]*block.Block) []time.Duration {
	keys := make([]time.Duration, 0, len(m))
	for d := range m {
		keys = append(keys, d)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
