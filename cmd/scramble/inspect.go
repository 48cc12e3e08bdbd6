package main

import (
	"github.com/spf13/cobra"
)

// newInspectCmd creates the inspect subcommand.
func newInspectCmd(state *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>...",
		Short: "List the metadata a clean would remove, without writing anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				report, err := state.cleaner.Inspect(cmd.Context(), path)
				if err != nil {
					return err
				}
				if len(report.Removed) == 0 {
					cmd.Printf("%s: no removable metadata (%s)\n", path, report.Format)
					continue
				}
				cmd.Printf("%s: %d metadata segment(s) (%s)\n", path, len(report.Removed), report.Format)
				for _, seg := range report.Removed {
					cmd.Printf("  - %s (%d bytes)\n", seg.Name, seg.Size)
				}
			}
			return nil
		},
	}
}
