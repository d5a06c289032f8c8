package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e7canasta/motion-recorder/modules/recorder"
)

func newPlayCmd(g *globalFlags) *cobra.Command {
	var (
		slot string
		flip bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Replay a stored trace",
		Long: `Loads --slot (or the configured default) and replays it at the capture
rate. "skills" plays every segment of the programming skills run back
to back; "hardcoded" runs the built-in routine. --flip mirrors turns for
the other starting tile. Ctrl+C stops the robot at the next tick.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			var chooser recorder.SlotChooser
			if slot == "ask" {
				if chooser, err = a.chooser(slot); err != nil {
					return err
				}
			}
			sink, closeSink, err := a.sink()
			if err != nil {
				return err
			}
			cancel, stop := interrupt(cmd.Context())
			defer stop()
			bus, closeBus := a.telemetry(a.cfg.Timing().Len())
			defer closeBus()

			s, err := a.newSession(recorder.Config{
				Sink:    sink,
				Cancel:  cancel,
				Chooser: chooser,
				Bus:     bus,
			})
			if err != nil {
				return errors.Join(err, closeSink())
			}

			if slot != "" && slot != "ask" {
				target, err := a.parseSlot(slot)
				if err != nil {
					return errors.Join(err, closeSink())
				}
				if err := s.rec.Load(cmd.Context(), target); err != nil {
					return errors.Join(err, closeSink())
				}
			}

			orientation := a.cfg.Playback.Orientation
			if flip {
				orientation = -orientation
			}
			res, err := s.rec.Play(cmd.Context(), orientation)
			closeBus()
			if err := errors.Join(err, closeSink()); err != nil {
				return err
			}

			switch {
			case res.Routine:
				fmt.Fprintln(a.out, "played hardcoded routine")
			case res.Slot.IsNone() && !res.Captured:
				fmt.Fprintln(a.out, "nothing to play")
				return nil
			default:
				fmt.Fprintf(a.out, "played %s: %d frames, %d segment(s)", res.Slot, res.Frames, max(res.Segments, 1))
				if res.Cancelled {
					fmt.Fprint(a.out, ", cancelled")
				}
				fmt.Fprintln(a.out)
			}
			if !res.Routine {
				printTiming(a.errOut, fmt.Sprintf("Playback %s", res.Run), res.Timing, bus)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&slot, "slot", "s", "", `slot to play, or "ask"`)
	cmd.Flags().BoolVar(&flip, "flip", false, "mirror turns (opposite starting tile)")
	return cmd
}
