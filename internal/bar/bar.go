// Package bar drives the status line: it owns the ordered block list, renders
// it in the selected output mode and routes clicks back to blocks. In i3bar
// mode it also surfaces error log entries on the bar itself, freezing regular
// updates until the next click.
package bar

import (
	"bufio"
	"io"
	"sync"

	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/block"
)

// ClickHandler runs the action of a clicked block.
// *executor.Executor satisfies this interface.
type ClickHandler interface {
	Click(b *block.Block) error
}

// Option configures a Bar.
type Option func(*Bar)

// WithLogger sets the logger used for diagnostics. In i3bar mode the error
// adapter is attached to it for the lifetime of the bar.
func WithLogger(l *logrus.Logger) Option {
	return func(b *Bar) { b.log = l }
}

// WithClickHandler sets the action invoked for clicked blocks.
func WithClickHandler(h ClickHandler) Option {
	return func(b *Bar) { b.onClick = h }
}

// WithColor colours term output with each block's color attribute, using
// the given profile. It has no effect in i3bar mode.
func WithColor(p termenv.Profile) Option {
	return func(b *Bar) {
		b.color = true
		b.profile = p
	}
}

// Bar is the status line controller. It is driven from a single goroutine;
// only the error adapter may call into it concurrently.
type Bar struct {
	log     *logrus.Logger
	onClick ClickHandler
	color   bool
	profile termenv.Profile

	mode   Mode
	r      renderer
	blocks []*block.Block

	// mu guards everything below. Nothing logged at error level or above
	// while it is held.
	mu      sync.Mutex
	out     *bufio.Writer
	frozen  bool
	closed  bool
	adapter *errorAdapter
}

// New creates a bar writing to w and starts the output mode: the i3bar
// header or the terminal cursor setup. The bar always holds a first, empty
// block.
func New(w io.Writer, mode Mode, opts ...Option) (*Bar, error) {
	b := &Bar{
		mode: mode,
		out:  bufio.NewWriter(w),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logrus.New()
	}

	sentinel, err := block.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "bar: sentinel block")
	}
	b.blocks = []*block.Block{sentinel}

	switch mode {
	case ModeI3bar:
		b.r = &i3barRenderer{log: b.log}
	case ModeTerm:
		b.r = newTermRenderer(w, b.color, b.profile)
	default:
		return nil, errors.Errorf("bar: unknown mode %d", mode)
	}

	if err := b.write(b.r.start(nil)); err != nil {
		return nil, errors.Wrap(err, "bar: start")
	}
	if mode == ModeI3bar {
		b.adapter = installErrorAdapter(b)
	}
	b.log.Debugf("bar started in %s mode", mode)
	return b, nil
}

// Mode returns the output mode.
func (b *Bar) Mode() Mode { return b.mode }

// AddBlock appends a block built from set. set is cleared afterwards
// whether or not the block could be built.
func (b *Bar) AddBlock(set *attrs.Set) error {
	defer set.Clear()

	blk, err := block.New(set)
	if err != nil {
		return errors.Wrap(err, "bar: add block")
	}
	b.blocks = append(b.blocks, blk)
	return nil
}

// Blocks returns the configured blocks in order, without the first empty
// block.
func (b *Bar) Blocks() []*block.Block {
	if len(b.blocks) == 0 {
		return nil
	}
	return b.blocks[1:]
}

// Find returns the first block identified by name and instance.
func (b *Bar) Find(name, instance string) *block.Block {
	for _, blk := range b.blocks {
		if blk.Matches(name, instance) {
			return blk
		}
	}
	return nil
}

// Frozen reports whether regular updates are suppressed.
func (b *Bar) Frozen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frozen
}

// Dump renders the current blocks. It does nothing while the bar is frozen.
func (b *Bar) Dump() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	if b.frozen {
		b.log.Debug("bar is frozen, skipping dump")
		return nil
	}
	return b.dumpLocked()
}

func (b *Bar) dumpLocked() error {
	if err := b.writeLocked(b.r.render(nil, b.blocks)); err != nil {
		return errors.Wrap(err, "bar: dump")
	}
	return nil
}

// unfreeze clears the frozen state, dumping once if it was set.
func (b *Bar) unfreeze() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.frozen {
		return nil
	}
	b.frozen = false
	b.log.Debug("bar unfrozen")
	return b.dumpLocked()
}

// Close writes the mode epilogue and detaches the error adapter. Calling it
// again is a no-op.
func (b *Bar) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	err := b.writeLocked(b.r.stop(nil))
	adapter := b.adapter
	b.adapter = nil
	b.mu.Unlock()

	if adapter != nil {
		adapter.uninstall()
	}
	b.blocks = nil
	if err != nil {
		return errors.Wrap(err, "bar: stop")
	}
	return nil
}

func (b *Bar) write(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(p)
}

func (b *Bar) writeLocked(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if _, err := b.out.Write(p); err != nil {
		return err
	}
	return b.out.Flush()
}
