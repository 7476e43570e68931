// Package history produces lazy, cancellable sequences of commits from a
// repository in a caller-chosen traversal order.
package history

import (
	"errors"
	"fmt"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

// Sentinel errors for traversal failures.
var (
	// ErrRepositoryAccess means the repository handle is invalid or the
	// starting reference cannot be resolved. It always aborts the run.
	ErrRepositoryAccess = errors.New("repository access")
	// ErrCorruptHistory means a recorded parent cannot be resolved. It is
	// fatal in strict mode and skipped otherwise.
	ErrCorruptHistory = errors.New("corrupt history")
	// ErrUnknownOrder means the traversal order name is not recognized.
	ErrUnknownOrder = errors.New("unknown traversal order")
)

// Order is the commit traversal order.
type Order int

const (
	// OrderTopological visits every commit before any of its parents.
	OrderTopological Order = iota
	// OrderReverseChronological visits commits newest first by commit time.
	OrderReverseChronological
	// OrderAuthorDate visits commits newest first by author date.
	OrderAuthorDate
)

// String returns the config/flag spelling of the order.
func (o Order) String() string {
	switch o {
	case OrderTopological:
		return "topological"
	case OrderReverseChronological:
		return "reverse-chronological"
	case OrderAuthorDate:
		return "author-date"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// ParseOrder parses an order name as used in config files and flags.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "topological", "topo":
		return OrderTopological, nil
	case "reverse-chronological", "time":
		return OrderReverseChronological, nil
	case "author-date":
		return OrderAuthorDate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
	}
}

// sortMode maps the order onto libgit2 revwalk sorting. Author-date order
// has no revwalk equivalent; the cursor re-sorts those walks itself.
func (o Order) sortMode() git2go.SortType {
	if o == OrderTopological {
		return git2go.SortTime | git2go.SortTopological
	}

	return git2go.SortTime
}

// Config controls a traversal.
type Config struct {
	// Start is the starting reference (branch, tag, revision spec).
	// Empty means HEAD.
	Start string
	// Order is the traversal order.
	Order Order
	// Strict makes unresolvable parents fatal instead of skipped.
	Strict bool
	// FirstParent restricts the walk to first-parent history.
	FirstParent bool
	// Limit caps the number of commits produced. Zero means no limit.
	Limit int
}
