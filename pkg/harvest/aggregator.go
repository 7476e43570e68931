package harvest

import (
	"sync"

	"github.com/githarvest/git-harvest/pkg/gitlib"
	"github.com/githarvest/git-harvest/pkg/record"
)

// Aggregator consumes records and maintains per-author and per-path running
// totals. It is safe for concurrent producers: Ingest is the single
// serialization point, and Snapshot takes a consistent copy under a read
// lock. Instances are independent; tests and parallel runs each own one.
type Aggregator struct {
	mu sync.RWMutex

	seen       map[gitlib.Hash]struct{}
	authorIdx  map[string]int
	authors    []AuthorTotals
	pathIdx    map[string]int
	paths      []PathTotals
	ingested   int
	duplicates int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	agg := &Aggregator{}
	agg.init()

	return agg
}

func (a *Aggregator) init() {
	a.seen = make(map[gitlib.Hash]struct{})
	a.authorIdx = make(map[string]int)
	a.authors = nil
	a.pathIdx = make(map[string]int)
	a.paths = nil
	a.ingested = 0
	a.duplicates = 0
}

// Ingest folds one record into the aggregate. Records whose commit hash was
// already ingested are rejected silently, so replaying a commit never
// double-counts. It returns whether the record was actually applied.
func (a *Aggregator) Ingest(rec *record.Record) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, dup := a.seen[rec.Hash]; dup {
		a.duplicates++

		return false
	}

	a.seen[rec.Hash] = struct{}{}
	a.ingested++

	added, removed := 0, 0
	for _, p := range rec.Paths {
		added += p.Added
		removed += p.Removed
	}

	author := a.author(rec.Identity, rec.Author)
	author.absorb(rec.When, added, removed)

	if rec.Parents > 1 {
		author.Merges++
	}

	for _, p := range rec.Paths {
		pathTotals := a.path(p.Path, p.Language)
		pathTotals.absorb(rec.When, p.Added, p.Removed)
	}

	return true
}

// author returns the totals bucket for an identity, creating it in
// insertion order on first sight.
func (a *Aggregator) author(identity, name string) *AuthorTotals {
	idx, ok := a.authorIdx[identity]
	if !ok {
		idx = len(a.authors)
		a.authorIdx[identity] = idx
		a.authors = append(a.authors, AuthorTotals{Identity: identity, Name: name})
	}

	return &a.authors[idx]
}

// path returns the totals bucket for a path, creating it in insertion
// order on first sight.
func (a *Aggregator) path(path, language string) *Counters {
	idx, ok := a.pathIdx[path]
	if !ok {
		idx = len(a.paths)
		a.pathIdx[path] = idx
		a.paths = append(a.paths, PathTotals{Path: path, Language: language})
	}

	return &a.paths[idx].Counters
}

// Snapshot returns a consistent copy of the current state. It may run
// concurrently with Ingest and never observes a torn update.
func (a *Aggregator) Snapshot() *Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	summary := &Summary{
		Authors: make([]AuthorTotals, len(a.authors)),
		Paths:   make([]PathTotals, len(a.paths)),
	}

	copy(summary.Authors, a.authors)
	copy(summary.Paths, a.paths)

	return summary
}

// Ingested returns the number of records applied since the last Reset.
func (a *Aggregator) Ingested() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.ingested
}

// Duplicates returns the number of records rejected as already seen.
func (a *Aggregator) Duplicates() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.duplicates
}

// SeenHashes returns the ingested commit hashes in unspecified order,
// hex-encoded, for checkpoint persistence.
func (a *Aggregator) SeenHashes() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	hashes := make([]string, 0, len(a.seen))
	for h := range a.seen {
		hashes = append(hashes, h.String())
	}

	return hashes
}

// Reset clears all state, returning the aggregator to empty. Used between
// independent harvest runs.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.init()
}

// Restore seeds the aggregator from a previously saved summary and seen
// set, so a resumed run rejects commits that were already harvested.
func (a *Aggregator) Restore(summary *Summary, seenHashes []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.init()

	a.authors = make([]AuthorTotals, len(summary.Authors))
	copy(a.authors, summary.Authors)

	for i, author := range a.authors {
		a.authorIdx[author.Identity] = i
	}

	a.paths = make([]PathTotals, len(summary.Paths))
	copy(a.paths, summary.Paths)

	for i, p := range a.paths {
		a.pathIdx[p.Path] = i
	}

	for _, hex := range seenHashes {
		a.seen[gitlib.NewHash(hex)] = struct{}{}
	}
}
