package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/githarvest/git-harvest/pkg/gitlib"
)

// NewCleanupCommand creates the cleanup command, which deletes remote
// branches owned by the given author after interactive confirmation.
func NewCleanupCommand() *cobra.Command {
	var (
		email string
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete remote branches by tip author email",
		Long: `Delete remote branches whose tip commit was authored by the given email.
Each branch is confirmed individually unless --yes is set. Deletion goes
through git push origin --delete, so it uses the credentials the git
binary is already configured with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCleanup(cmd, email, yes)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "tip author email (default user.email from git config)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking per branch")

	return cmd
}

func runCleanup(cmd *cobra.Command, email string, yes bool) error {
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

	out := cmd.OutOrStdout()

	if len(branches) == 0 {
		fmt.Fprintf(out, "no remote branches with tip author %s\n", email)

		return nil
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	deleted := 0

	for _, branch := range branches {
		if !yes && !confirmDelete(in, out, branch) {
			fmt.Fprintf(out, "kept %s\n", branch.Name)

			continue
		}

		err = gitlib.DeleteRemoteBranch(repo.Path(), branch.Name)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %s\n", color.RedString("deleted"), branch.Name)
		deleted++
	}

	fmt.Fprintf(out, "deleted %d of %d branches\n", deleted, len(branches))

	return nil
}

// confirmDelete asks for a per-branch confirmation, showing the tip
// commit's subject and age for context. Anything other than y or yes
// keeps the branch.
func confirmDelete(in *bufio.Scanner, out io.Writer, branch gitlib.RemoteBranch) bool {
	fmt.Fprintf(out, "delete %s (%q, %s)? [y/N] ",
		color.YellowString(branch.Name), branch.TipSubject, humanize.Time(branch.TipWhen))

	if !in.Scan() {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(in.Text()))

	return answer == "y" || answer == "yes"
}
