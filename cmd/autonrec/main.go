// Command autonrec records joystick input as motion traces and plays
// them back.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	progress   bool
}

func main() {
	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "autonrec",
		Short: "Record and replay robot motion traces",
		Long: `autonrec samples the driver's controls at a fixed rate, stores the
trace in a named slot and replays it through the actuators.

Slots:
  none        nothing (no-op)
  1..N        regular autonomous slots
  skills      the programming skills run (4 segments back to back)
  skills:K    one segment of the skills run
  hardcoded   the built-in routine

Configuration comes from --config (YAML), then AUTONREC_* environment
variables, then the flags below.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML configuration file")
	pf.String("backend", "", "storage backend: dir, sqlite, memory")
	pf.String("path", "", "storage directory or database file")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("session-file", "", "session state file")
	pf.BoolVar(&g.progress, "progress", true, "draw a progress bar on stderr")

	root.AddCommand(
		newRecordCmd(g),
		newPlayCmd(g),
		newLsCmd(g),
		newRmCmd(g),
		newExportCmd(g),
		newImportCmd(g),
		newStatusCmd(g),
		newSkillsCmd(g),
	)
	return root
}
