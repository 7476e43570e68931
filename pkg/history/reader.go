package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/githarvest/git-harvest/pkg/gitlib"
)

// Reader walks a repository's commit graph according to a Config.
type Reader struct {
	repo *gitlib.Repository
	cfg  Config
}

// NewReader creates a reader over an open repository.
func NewReader(repo *gitlib.Repository, cfg Config) *Reader {
	return &Reader{repo: repo, cfg: cfg}
}

// Start resolves the configured starting reference.
func (r *Reader) Start() (gitlib.Hash, error) {
	if r.cfg.Start == "" {
		head, err := r.repo.Head()
		if err != nil {
			return gitlib.Hash{}, fmt.Errorf("%w: %w", ErrRepositoryAccess, err)
		}

		return head, nil
	}

	hash, err := r.repo.ResolveRevision(r.cfg.Start)
	if err != nil {
		return gitlib.Hash{}, fmt.Errorf("%w: %w", ErrRepositoryAccess, err)
	}

	return hash, nil
}

// Commits returns a cursor over the configured traversal. The cursor honors
// ctx: an in-flight traversal stops within one step of cancellation. The
// caller must Close the cursor; stopping early does not leak the walk.
func (r *Reader) Commits(ctx context.Context) (*Cursor, error) {
	start, err := r.Start()
	if err != nil {
		return nil, err
	}

	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryAccess, err)
	}

	walk.Sorting(r.cfg.Order.sortMode())

	if r.cfg.FirstParent {
		walk.SimplifyFirstParent()
	}

	pushErr := walk.Push(start)
	if pushErr != nil {
		walk.Free()

		return nil, fmt.Errorf("%w: %w", ErrRepositoryAccess, pushErr)
	}

	cursor := &Cursor{ctx: ctx, repo: r.repo, walk: walk, cfg: r.cfg}

	if r.cfg.Order == OrderAuthorDate {
		collectErr := cursor.collectByAuthorDate()
		if collectErr != nil {
			cursor.Close()

			return nil, collectErr
		}
	}

	return cursor, nil
}

// Cursor is an explicit, cancellable iterator over commits. It is not safe
// for concurrent use; parallel harvests give each worker its own repository
// handle and cursor instead.
type Cursor struct {
	ctx      context.Context
	repo     *gitlib.Repository
	walk     *gitlib.RevWalk
	cfg      Config
	produced int

	// Author-date order cannot be expressed as a revwalk sort mode, so the
	// walk is drained up front and replayed from this buffer.
	buffered []gitlib.Hash
	idx      int
}

// Next returns the next commit in traversal order. It returns io.EOF when
// the traversal is exhausted, the context error when cancelled, and an
// ErrCorruptHistory-wrapped error in strict mode when the walk fails or a
// produced commit or recorded parent cannot be resolved. In lenient mode
// unresolvable commits and parents are skipped. The caller owns the
// returned commit and must Free it.
func (c *Cursor) Next() (*gitlib.Commit, error) {
	for {
		ctxErr := c.ctx.Err()
		if ctxErr != nil {
			return nil, ctxErr
		}

		if c.cfg.Limit > 0 && c.produced >= c.cfg.Limit {
			return nil, io.EOF
		}

		hash, err := c.nextHash()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		if err != nil {
			// The walk itself failed, typically on a missing object. It
			// cannot continue past the failure, so lenient mode ends the
			// traversal with what was produced so far.
			if c.cfg.Strict {
				return nil, fmt.Errorf("%w: %w", ErrCorruptHistory, err)
			}

			return nil, io.EOF
		}

		commit, lookupErr := c.repo.LookupCommit(hash)
		if lookupErr != nil {
			// The walk produced a hash the odb cannot resolve.
			if c.cfg.Strict {
				return nil, fmt.Errorf("%w: commit %s: %w", ErrCorruptHistory, hash, lookupErr)
			}

			continue
		}

		parentErr := c.checkParents(commit)
		if parentErr != nil {
			commit.Free()

			return nil, parentErr
		}

		c.produced++

		return commit, nil
	}
}

// nextHash pulls the next hash from the buffer or the live walk.
func (c *Cursor) nextHash() (gitlib.Hash, error) {
	if c.cfg.Order == OrderAuthorDate {
		if c.idx >= len(c.buffered) {
			return gitlib.Hash{}, io.EOF
		}

		hash := c.buffered[c.idx]
		c.idx++

		return hash, nil
	}

	return c.walk.Next()
}

// checkParents verifies each recorded parent resolves. Strict mode turns an
// unresolvable parent into a fatal ErrCorruptHistory; otherwise the parent
// is ignored and traversal continues.
func (c *Cursor) checkParents(commit *gitlib.Commit) error {
	for _, parentHash := range commit.ParentHashes() {
		parent, err := c.repo.LookupCommit(parentHash)
		if err != nil {
			if c.cfg.Strict {
				return fmt.Errorf("%w: commit %s parent %s: %w",
					ErrCorruptHistory, commit.Hash(), parentHash, err)
			}

			continue
		}

		parent.Free()
	}

	return nil
}

// collectByAuthorDate drains the walk and orders hashes newest first by
// author date, with the walk order breaking ties deterministically. It
// applies the same strict/lenient contract as Next: a failed walk step or
// unresolvable commit is fatal in strict mode and skipped otherwise.
func (c *Cursor) collectByAuthorDate() error {
	type dated struct {
		hash gitlib.Hash
		when int64
	}

	var commits []dated

	for {
		ctxErr := c.ctx.Err()
		if ctxErr != nil {
			return ctxErr
		}

		hash, err := c.walk.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if c.cfg.Strict {
				return fmt.Errorf("%w: %w", ErrCorruptHistory, err)
			}

			break
		}

		commit, lookupErr := c.repo.LookupCommit(hash)
		if lookupErr != nil {
			if c.cfg.Strict {
				return fmt.Errorf("%w: commit %s: %w", ErrCorruptHistory, hash, lookupErr)
			}

			continue
		}

		commits = append(commits, dated{hash: hash, when: commit.Author().When.Unix()})
		commit.Free()
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].when > commits[j].when
	})

	c.buffered = make([]gitlib.Hash, len(commits))
	for i, d := range commits {
		c.buffered[i] = d.hash
	}

	return nil
}

// Close releases the underlying walk. It is safe to call more than once
// and after exhaustion.
func (c *Cursor) Close() {
	if c.walk != nil {
		c.walk.Free()
		c.walk = nil
	}
}
