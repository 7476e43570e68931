package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/githarvest/git-harvest/pkg/record"
)

// NewStatsCommand creates the stats command, which counts remote branches
// per tip author.
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count remote branches per tip author",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd)
		},
	}
}

func runStats(cmd *cobra.Command) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Free()

	branches, err := repo.RemoteBranches()
	if err != nil {
		return err
	}

	// Counts keyed by folded identity, in order of first appearance.
	var identities []string
	counts := make(map[string]int)

	for _, branch := range branches {
		identity := record.CanonicalIdentity(branch.TipAuthor)
		if _, ok := counts[identity]; !ok {
			identities = append(identities, identity)
		}

		counts[identity]++
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Author", "Branches"})

	for _, identity := range identities {
		tw.AppendRow(table.Row{identity, counts[identity]})
	}

	tw.AppendFooter(table.Row{"Total", len(branches)})
	tw.Render()

	return nil
}
