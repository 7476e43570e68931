package commands

import (
	"errors"
	"fmt"

	"github.com/githarvest/git-harvest/pkg/gitlib"
	"github.com/githarvest/git-harvest/pkg/record"
)

// ErrNoEmail is returned when no author email was given and the repository
// configuration has none either.
var ErrNoEmail = errors.New("no author email: pass --email or set user.email in git config")

// openRepo opens the repository at the global location flag.
func openRepo() (*gitlib.Repository, error) {
	repo, err := gitlib.OpenRepository(location)
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", location, err)
	}

	return repo, nil
}

// resolveEmail picks the author email to filter branches by: the explicit
// flag value if set, otherwise user.email from the repository configuration.
func resolveEmail(repo *gitlib.Repository, flagEmail string) (string, error) {
	if flagEmail != "" {
		return flagEmail, nil
	}

	email := repo.UserSignature().Email
	if email == "" {
		return "", ErrNoEmail
	}

	return email, nil
}

// branchesByAuthor returns the remote branches whose tip commit author
// matches the given email, using folded identity comparison.
func branchesByAuthor(repo *gitlib.Repository, email string) ([]gitlib.RemoteBranch, error) {
	branches, err := repo.RemoteBranches()
	if err != nil {
		return nil, err
	}

	want := record.CanonicalIdentity(gitlib.Signature{Email: email})

	var matched []gitlib.RemoteBranch

	for _, branch := range branches {
		if record.CanonicalIdentity(branch.TipAuthor) == want {
			matched = append(matched, branch)
		}
	}

	return matched, nil
}
