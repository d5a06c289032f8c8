package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e7canasta/motion-recorder/modules/recorder"
)

func newRecordCmd(g *globalFlags) *cobra.Command {
	var slot string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Capture one trace and save it",
		Long: `Counts down, samples the controls for one trace length and saves the
result. During a programming skills run the trace goes to the next
segment; otherwise --slot picks the destination ("ask" prompts, "none"
discards the capture). Ctrl+C stops the capture early; the rest of the
trace is stored as zeros.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("countdown") {
				a.cfg.Capture.Countdown, _ = cmd.Flags().GetDuration("countdown")
			}
			if slot == "" {
				slot = a.cfg.Slots.Default
			}
			chooser, err := a.chooser(slot)
			if err != nil {
				return err
			}
			sink, closeSink, err := a.sink()
			if err != nil {
				return err
			}
			cancel, stop := interrupt(cmd.Context())
			defer stop()
			bus, closeBus := a.telemetry(a.cfg.Timing().Len())

			s, err := a.newSession(recorder.Config{
				Sink:      sink,
				Sampler:   a.sampler(),
				Cancel:    cancel,
				Chooser:   chooser,
				Countdown: a.cfg.Capture.Countdown,
				Bus:       bus,
			})
			if err != nil {
				closeBus()
				return errors.Join(err, closeSink())
			}

			res, err := s.rec.Capture(cmd.Context())
			closeBus()
			if err := errors.Join(err, closeSink()); err != nil {
				return err
			}
			printTiming(a.errOut, fmt.Sprintf("Capture %s", res.Run), res.Timing, bus)

			if res.Cancelled && res.Ticks == 0 {
				fmt.Fprintln(a.out, "capture cancelled, nothing recorded")
				return nil
			}

			saved, err := s.rec.Save(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.persist(); err != nil {
				return err
			}

			switch {
			case saved.Slot.IsNone():
				fmt.Fprintln(a.out, "capture discarded")
			case saved.RunComplete:
				fmt.Fprintf(a.out, "saved %s (%s), skills run complete\n", saved.Slot, saved.Stream)
			default:
				fmt.Fprintf(a.out, "saved %s (%s)\n", saved.Slot, saved.Stream)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&slot, "slot", "s", "", `destination slot, "ask" or "none" (default from config)`)
	cmd.Flags().Duration("countdown", 0, "countdown before sampling starts (default from config)")
	return cmd
}
