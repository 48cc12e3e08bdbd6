// main.go sets up the scramble command-line interface using Cobra. It
// defines the root command, the clean and inspect subcommands, and the
// shared configuration flags.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tobagin/scramble/internal/config"
	"github.com/tobagin/scramble/internal/logging"
	"github.com/tobagin/scramble/internal/scrub"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra has already printed the error.
		os.Exit(1)
	}
}

// appState carries the loaded configuration and cleaner between the
// root command's setup and the subcommands.
type appState struct {
	cfgFile string
	cfg     *config.Config
	cleaner *scrub.Cleaner
	log     *slog.Logger
}

// newRootCmd creates and configures a fresh root command. Tests create
// their own instances so runs stay isolated.
func newRootCmd() *cobra.Command {
	state := &appState{}

	cmd := &cobra.Command{
		Use:   "scramble",
		Short: "Scramble removes hidden metadata from image files.",
		Long: `Scramble strips EXIF, XMP, IPTC, comments and timestamps from
JPEG, PNG and WebP files. Every input is validated before it is
touched: the file content has to match its extension, hostile paths
are rejected, and oversized or decompression-bomb images are refused.

The original file is never modified; the cleaned copy is written next
to it unless an output path is given.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := state.cfgFile
			if path == "" {
				path = config.DefaultPath()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			state.cfg = cfg
			state.log = logging.Init(cfg.LogLevel, cfg.LogJSON)
			state.cleaner = scrub.NewCleaner(cfg, state.log)
			return nil
		},
	}

	cmd.AddCommand(newCleanCmd(state))
	cmd.AddCommand(newInspectCmd(state))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the scramble version",
		// No config or cleaner is needed to print a version.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("scramble %s\n", version)
		},
	})

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&state.cfgFile, "config", "",
		"settings file (default is the per-user scramble/settings.yaml)")

	return cmd
}
