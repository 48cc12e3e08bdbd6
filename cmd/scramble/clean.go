package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tobagin/scramble/internal/scrub"
)

// newCleanCmd creates the clean subcommand.
func newCleanCmd(state *appState) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "clean <file>...",
		Short: "Write metadata-free copies of the given image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return errors.New("--output is only valid with a single input file")
			}

			if len(args) == 1 {
				report, err := state.cleaner.Clean(cmd.Context(), args[0], output)
				if err != nil {
					return err
				}
				printReport(cmd, report)
				return nil
			}

			var failed int
			for _, res := range state.cleaner.CleanAll(cmd.Context(), args) {
				if res.Err != nil {
					failed++
					cmd.PrintErrf("%s: %v\n", res.Input, res.Err)
					continue
				}
				printReport(cmd, res.Report)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "",
		"output path (single input only; default adds the configured suffix)")
	return cmd
}

func printReport(cmd *cobra.Command, report *scrub.Report) {
	if report.Skipped {
		cmd.Printf("%s: unchanged since last clean, kept %s\n", report.Input, report.Output)
		return
	}
	if len(report.Removed) == 0 {
		cmd.Printf("%s: already clean, copied to %s\n", report.Input, report.Output)
		return
	}
	cmd.Printf("%s: removed %d metadata segment(s), wrote %s\n",
		report.Input, len(report.Removed), report.Output)
	for _, seg := range report.Removed {
		cmd.Printf("  - %s (%d bytes)\n", seg.Name, seg.Size)
	}
}
