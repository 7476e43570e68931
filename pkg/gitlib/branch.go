package gitlib

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// remotePrefix is stripped from remote branch names for display.
const remotePrefix = "origin/"

// RemoteBranch describes a remote-tracking branch and its tip commit.
type RemoteBranch struct {
	Name       string // Short name without the origin/ prefix.
	TipAuthor  Signature
	TipSubject string    // First line of the tip commit message.
	TipWhen    time.Time // Committer time of the tip, when the branch last moved.
}

// RemoteBranches lists all remote-tracking branches with the author,
// subject and committer time of each branch tip. Symbolic refs (such as
// origin/HEAD) are skipped.
func (r *Repository) RemoteBranches() ([]RemoteBranch, error) {
	iter, err := r.repo.NewBranchIterator(git2go.BranchRemote)
	if err != nil {
		return nil, fmt.Errorf("list remote branches: %w", err)
	}
	defer iter.Free()

	var branches []RemoteBranch

	err = iter.ForEach(func(branch *git2go.Branch, _ git2go.BranchType) error {
		name, nameErr := branch.Name()
		if nameErr != nil {
			return nil
		}

		target := branch.Target()
		if target == nil {
			return nil
		}

		tip, lookupErr := r.LookupCommit(HashFromOid(target))
		if lookupErr != nil {
			return nil
		}
		defer tip.Free()

		branches = append(branches, RemoteBranch{
			Name:       strings.TrimPrefix(name, remotePrefix),
			TipAuthor:  tip.Author(),
			TipSubject: messageSubject(tip.Message()),
			TipWhen:    tip.Committer().When,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate remote branches: %w", err)
	}

	return branches, nil
}

// messageSubject returns the first line of a commit message.
func messageSubject(message string) string {
	subject, _, _ := strings.Cut(message, "\n")

	return strings.TrimSpace(subject)
}

// DeleteRemoteBranch deletes a branch on the origin remote by shelling out
// to git push. Libgit2 push requires credential plumbing the configured git
// binary already has, so the delete goes through it.
func DeleteRemoteBranch(repoPath, name string) error {
	cmd := exec.Command("git", "push", "origin", "--delete", name)
	cmd.Dir = repoPath

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("delete remote branch %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}

	return nil
}
