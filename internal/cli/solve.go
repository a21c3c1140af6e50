package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// solveOptions holds flags for the solve command.
type solveOptions struct {
	session sessionFlags
	json    bool
	points  bool
}

// solveCommand creates the solve command for one-shot load computation.
func (c *CLI) solveCommand() *cobra.Command {
	opts := solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Compute rope loads for the default layout",
		Long: `Solve resets the rig to the default layout, applies the configuration and
flags, recomputes once and prints the rope tensions.

Angles are measured from vertical. Ropes above the caution and critical
thresholds are highlighted.`,
		Example: `  # Default rig with 100 kg payload
  trussrig solve

  # Heavier payload, truss free to tilt, JSON output
  trussrig solve --mass 250 --pose free --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd, &opts)
		},
	}

	opts.session.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVarP(&opts.points, "points", "p", false, "also print the point table")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, opts *solveOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	ed, _, err := openEditor(ctx, cmd, &opts.session, logger)
	if err != nil {
		return err
	}
	prog := newProgress(logger)
	snap := ed.Recompute()
	logRecompute(logger, snap)

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(newReport(snap))
	}

	if opts.points {
		fmt.Fprintln(out, renderPointTable(snap))
	}
	fmt.Fprintln(out, renderRopeTable(snap))
	writeSummary(out, snap)
	prog.done("Solved %d ropes", len(snap.Ropes))
	return nil
}
