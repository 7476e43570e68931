// Package main provides the entry point for the git-harvest CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/githarvest/git-harvest/cmd/git-harvest/commands"
	"github.com/githarvest/git-harvest/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "git-harvest",
		Short: "git-harvest - commit history and branch statistics for git repositories",
		Long: `git-harvest walks a repository's commit history and aggregates
per-author and per-path statistics, and manages remote branches by author.

Commands:
  harvest   Aggregate commit history statistics
  stats     Remote branches per author
  list      List remote branches by author email
  cleanup   Delete remote branches by author email`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(commands.NewHarvestCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewCleanupCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "git-harvest %s (commit: %s, built: %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
