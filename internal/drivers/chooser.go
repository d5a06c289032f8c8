package drivers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/e7canasta/motion-recorder/modules/slotstore"
)

// PromptChooser asks on a terminal which slot to use.
//
// It prints the selectable slots (None, every regular slot marked EMPTY
// when it has no stream, the programming skills run, the hardcoded
// routine) and reads one answer per line in ParseSlot syntax. Invalid
// answers are reported and asked again until the input ends.
type PromptChooser struct {
	store *slotstore.Store
	in    *bufio.Scanner
	out   io.Writer
}

// NewPromptChooser creates a chooser reading answers from in and writing
// the menu to out.
func NewPromptChooser(store *slotstore.Store, in io.Reader, out io.Writer) *PromptChooser {
	return &PromptChooser{store: store, in: bufio.NewScanner(in), out: out}
}

// ChooseSlot shows the menu and returns the operator's answer.
func (c *PromptChooser) ChooseSlot(ctx context.Context) (slotstore.Slot, error) {
	if err := c.menu(ctx); err != nil {
		return slotstore.Slot{}, err
	}
	for {
		fmt.Fprint(c.out, "slot> ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return slotstore.Slot{}, fmt.Errorf("chooser: %w", err)
			}
			return slotstore.Slot{}, fmt.Errorf("chooser: %w", io.EOF)
		}
		slot, err := slotstore.ParseSlot(c.in.Text())
		if err == nil {
			err = c.store.Layout().Check(slot)
		}
		if err != nil {
			fmt.Fprintf(c.out, "  %v\n", err)
			continue
		}
		return slot, nil
	}
}

func (c *PromptChooser) menu(ctx context.Context) error {
	entries, err := c.store.List(ctx)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("Select a slot:\n")
	b.WriteString("  none\n")
	for _, e := range entries {
		if e.Slot.Kind != slotstore.KindRegular {
			continue
		}
		if e.Empty {
			fmt.Fprintf(&b, "  %-10s (EMPTY)\n", e.Slot)
		} else {
			fmt.Fprintf(&b, "  %s\n", e.Slot)
		}
	}
	b.WriteString("  skills     programming skills run\n")
	b.WriteString("  hardcoded  built-in routine\n")
	_, err = io.WriteString(c.out, b.String())
	return err
}
