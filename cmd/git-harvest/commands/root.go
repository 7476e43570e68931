// Package commands implements the git-harvest CLI commands.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Global flag values shared by all commands.
var (
	location   string
	configPath string
	verbose    bool
	quiet      bool
)

// RegisterGlobalFlags attaches the persistent flags to the root command.
func RegisterGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&location, "location", "l", ".", "repository location")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .git-harvest.yaml in CWD or $HOME)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
}

// newLogger builds the slog logger for a command invocation. Verbosity
// wins over quiet when both are set.
func newLogger() *slog.Logger {
	level := slog.LevelInfo

	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
