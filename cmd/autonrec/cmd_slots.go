package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/e7canasta/motion-recorder/modules/slotstore"
)

func newLsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List slots and what they hold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}

			t := a.store.Timing()
			fmt.Fprintf(a.out, "%s backend at %s, %d Hz × %v (%s per trace)\n\n",
				a.cfg.Storage.Backend, a.cfg.Storage.Path, t.RateHz, t.Duration,
				humanize.Bytes(uint64(t.StreamSize())))

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SLOT\tSTREAM\tSIZE\tSTATUS")
			for _, e := range entries {
				size := "-"
				if !e.Empty {
					size = humanize.Bytes(uint64(e.Size))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Slot, e.Name, size, entryStatus(e))
			}
			return tw.Flush()
		},
	}
}

func entryStatus(e slotstore.Entry) string {
	switch {
	case e.Empty:
		return "empty"
	case e.Complete:
		return "complete"
	default:
		return "partial"
	}
}

func newRmCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <slot>",
		Short: "Delete the trace stored in a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			slot, err := a.parseSlot(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Remove(cmd.Context(), slot); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed %s\n", slot)
			return nil
		},
	}
}

func newExportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <slot> <file>",
		Short: "Write a slot's trace to a portable archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			slot, err := a.parseSlot(args[0])
			if err != nil {
				return err
			}
			arc, err := a.store.Export(cmd.Context(), slot)
			if err != nil {
				return err
			}
			data, err := slotstore.MarshalArchive(arc)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return fmt.Errorf("write archive: %w", err)
			}
			fmt.Fprintf(a.out, "exported %s to %s (%s)\n", slot, args[1], humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
}

func newImportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file> [slot]",
		Short: "Store an archived trace, in its original slot or another one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			arc, err := slotstore.UnmarshalArchive(data)
			if err != nil {
				return err
			}

			target := arc.Slot
			if len(args) == 2 {
				target = args[1]
			}
			slot, err := a.parseSlot(target)
			if err != nil {
				return err
			}
			if err := a.store.Import(cmd.Context(), arc, slot); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "imported %s into %s (recorded %s)\n",
				args[0], slot, humanize.Time(arc.ExportedAt))
			return nil
		},
	}
}
