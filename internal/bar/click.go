package bar

import (
	"github.com/pkg/errors"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/i3bar"
)

// ClickReader decodes one click event into dst. It returns i3bar.ErrNoData
// when no event is currently available.
// *i3bar.ClickStream satisfies this interface.
type ClickReader interface {
	ReadClick(dst *attrs.Set) error
}

// Click processes every click currently available from r. The first
// decoded click unfreezes the bar and shows the blocks again before it is
// acted upon. Each click is merged into the first block with the same name
// and instance, whose click action then runs. Running out of input ends the
// batch without error.
func (b *Bar) Click(r ClickReader) error {
	click := attrs.New()
	for {
		err := r.ReadClick(click)
		if errors.Is(err, i3bar.ErrNoData) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "bar: read click")
		}

		if err := b.unfreeze(); err != nil {
			return err
		}
		if err := b.dispatch(click); err != nil {
			return err
		}
		click.Clear()
	}
}

func (b *Bar) dispatch(click *attrs.Set) error {
	name, _ := click.Get("name")
	instance, _ := click.Get("instance")

	blk := b.Find(name, instance)
	if blk == nil {
		b.log.Debugf("no block for click on [%s:%s]", name, instance)
		return nil
	}
	blk.Merge(click)
	b.log.Debugf("%s clicked", blk)

	if b.onClick == nil {
		return nil
	}
	if err := b.onClick.Click(blk); err != nil {
		return errors.Wrapf(err, "bar: click %s", blk)
	}
	return nil
}
