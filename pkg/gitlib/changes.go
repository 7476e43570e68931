package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// PathChange holds the line-level change counts for a single path in a commit.
type PathChange struct {
	Path    string
	Added   int
	Removed int
}

// CommitChanges computes per-path added/removed line counts for a commit,
// diffed against its first parent. Root commits are diffed against the
// empty tree, so every line counts as added.
func (r *Repository) CommitChanges(c *Commit) ([]PathChange, error) {
	currentTree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	defer currentTree.Free()

	parentTree, freeParent := firstParentTree(c)
	defer freeParent()

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	diff, err := r.repo.DiffTreeToTree(parentTree, currentTree.tree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	defer func() {
		_ = diff.Free()
	}()

	var changes []PathChange

	err = diff.ForEach(func(delta git2go.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		path := delta.NewFile.Path
		if path == "" {
			path = delta.OldFile.Path
		}

		changes = append(changes, PathChange{Path: path})
		current := &changes[len(changes)-1]

		return func(_ git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			return func(line git2go.DiffLine) error {
				switch line.Origin {
				case git2go.DiffLineAddition:
					current.Added++
				case git2go.DiffLineDeletion:
					current.Removed++
				}

				return nil
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
	if err != nil {
		return nil, fmt.Errorf("iterate diff: %w", err)
	}

	return changes, nil
}

// firstParentTree returns the first parent's tree, or nil for a root commit.
func firstParentTree(c *Commit) (tree *git2go.Tree, cleanup func()) {
	if c.NumParents() == 0 {
		return nil, func() {}
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, func() {}
	}
	defer parent.Free()

	parentTree, err := parent.Tree()
	if err != nil {
		return nil, func() {}
	}

	return parentTree.tree, parentTree.Free
}
