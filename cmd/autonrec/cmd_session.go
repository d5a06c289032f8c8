package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/e7canasta/motion-recorder/internal/drivers"
	"github.com/e7canasta/motion-recorder/internal/sessionfile"
	"github.com/e7canasta/motion-recorder/modules/recorder"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := sessionfile.Load(a.cfg.SessionFile)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "session:     %s\n", a.cfg.SessionFile)
			if rec.UpdatedAt.IsZero() {
				fmt.Fprintln(a.out, "updated:     never")
			} else {
				fmt.Fprintf(a.out, "updated:     %s\n", humanize.Time(rec.UpdatedAt))
			}
			fmt.Fprintf(a.out, "last saved:  %s\n", rec.LastSaved)
			if rec.SkillsRecording {
				fmt.Fprintf(a.out, "skills run:  in progress, next segment %d of %d\n",
					rec.SkillsCursor, a.cfg.Skills.Segments)
			} else {
				fmt.Fprintln(a.out, "skills run:  idle")
			}
			return nil
		},
	}
}

func newSkillsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Manage the programming skills run",
		Long: `A programming skills run records its segments with consecutive
"record" commands: segment 0 first, then 1, and so on. The run ends by
itself after the last segment is saved.`,
	}
	cmd.AddCommand(
		skillsAction(g, "begin", "Start a run; the next record saves segment 0",
			(*recorder.Recorder).BeginSkillsRun),
		skillsAction(g, "abort", "Abandon the run in progress; saved segments are kept",
			(*recorder.Recorder).AbortSkillsRun),
	)
	return cmd
}

func skillsAction(g *globalFlags, use, short string, action func(*recorder.Recorder) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.newSession(recorder.Config{Sink: drivers.NewLogSink(a.logger)})
			if err != nil {
				return err
			}
			if err := action(s.rec); err != nil {
				return err
			}
			if err := s.persist(); err != nil {
				return err
			}
			st := s.rec.Status()
			if st.SkillsRecording {
				fmt.Fprintf(a.out, "skills run started, next record saves segment %d\n", st.SkillsCursor)
			} else {
				fmt.Fprintln(a.out, "skills run aborted")
			}
			return nil
		},
	}
}
