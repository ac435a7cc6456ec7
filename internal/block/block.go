// Package block defines one renderable segment of the status line: its
// configured defaults, its current attributes and its scheduling properties.
package block

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
)

// Interval kinds besides a plain period.
const (
	IntervalNever   time.Duration = 0
	IntervalOnce    time.Duration = -1
	IntervalRepeat  time.Duration = -2
	IntervalPersist time.Duration = -3
)

// Output formats of a block command.
const (
	FormatRaw  = "raw"
	FormatJSON = "json"
)

// MaxSignal is the highest real-time signal offset a block may use.
const MaxSignal = 30

// Block is one status line segment. It is identified by its (name,
// instance) pair, both empty when unset.
type Block struct {
	defaults *attrs.Set
	attrs    *attrs.Set

	interval time.Duration
	signal   int
	format   string
}

// New creates a block from a configuration snapshot. set is copied, never
// retained. A nil set yields an empty block.
func New(set *attrs.Set) (*Block, error) {
	if set == nil {
		set = attrs.New()
	}
	b := &Block{
		defaults: set.Clone(),
		attrs:    set.Clone(),
		format:   FormatRaw,
	}
	if err := b.setup(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Block) setup() error {
	if v, ok := b.defaults.Get("interval"); ok {
		d, err := ParseInterval(v)
		if err != nil {
			return errors.Wrapf(err, "block %s", b)
		}
		b.interval = d
	}
	if v, ok := b.defaults.Get("signal"); ok {
		n, err := ParseSignal(v)
		if err != nil {
			return errors.Wrapf(err, "block %s", b)
		}
		b.signal = n
	}
	if v, ok := b.defaults.Get("format"); ok {
		if v != FormatRaw && v != FormatJSON {
			return errors.Errorf("block %s: format must be %q or %q, got %q", b, FormatRaw, FormatJSON, v)
		}
		b.format = v
	}
	return nil
}

// ParseInterval parses an interval property: "once", "repeat", "persist" or
// a positive number of seconds.
func ParseInterval(v string) (time.Duration, error) {
	switch v {
	case "once":
		return IntervalOnce, nil
	case "repeat":
		return IntervalRepeat, nil
	case "persist":
		return IntervalPersist, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, errors.Errorf("interval must be once, repeat, persist or seconds >= 0, got %q", v)
	}
	return time.Duration(secs) * time.Second, nil
}

// ParseSignal parses a signal property, an offset from SIGRTMIN.
func ParseSignal(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > MaxSignal {
		return 0, errors.Errorf("signal must be between 1 and %d, got %q", MaxSignal, v)
	}
	return n, nil
}

// Name returns the block name, or "" when unset.
func (b *Block) Name() string {
	v, _ := b.attrs.Get("name")
	return v
}

// Instance returns the block instance, or "" when unset.
func (b *Block) Instance() string {
	v, _ := b.attrs.Get("instance")
	return v
}

// Matches reports whether the block is identified by name and instance.
func (b *Block) Matches(name, instance string) bool {
	return b.Name() == name && b.Instance() == instance
}

// Attrs returns the live attribute set.
func (b *Block) Attrs() *attrs.Set { return b.attrs }

// Get returns the current value of key.
func (b *Block) Get(key string) (string, bool) { return b.attrs.Get(key) }

// Set overwrites the current value of key.
func (b *Block) Set(key, value string) { b.attrs.Set(key, value) }

// Merge copies every attribute of set into the block, overwriting.
func (b *Block) Merge(set *attrs.Set) { b.attrs.Merge(set) }

// Update resets the block to its configured defaults and applies output on
// top of them.
func (b *Block) Update(output *attrs.Set) {
	b.attrs = b.defaults.Clone()
	b.attrs.Merge(output)
}

// Command returns the configured command, "" for static blocks.
func (b *Block) Command() string {
	v, _ := b.defaults.Get("command")
	return v
}

// Interval returns the refresh period or one of the Interval* kinds.
func (b *Block) Interval() time.Duration { return b.interval }

// Signal returns the real-time signal offset, 0 when unset.
func (b *Block) Signal() int { return b.signal }

// Format returns the command output format.
func (b *Block) Format() string { return b.format }

// String identifies the block in log messages.
func (b *Block) String() string {
	name, instance := b.Name(), b.Instance()
	if instance == "" {
		return fmt.Sprintf("[%s]", name)
	}
	return fmt.Sprintf("[%s:%s]", name, instance)
}
