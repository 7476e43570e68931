package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command, which prints the remote branches
// whose tip commit was authored by the given email.
func NewListCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remote branches by tip author email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, email)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "tip author email (default user.email from git config)")

	return cmd
}

func runList(cmd *cobra.Command, email string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Free()

	email, err = resolveEmail(repo, email)
	if err != nil {
		return err
	}

	branches, err := branchesByAuthor(repo, email)
	if err != nil {
		return err
	}

	for _, branch := range branches {
		fmt.Fprintln(cmd.OutOrStdout(), branch.Name)
	}

	return nil
}
