// Package harvest folds normalized commit records into per-author and
// per-path summary statistics.
package harvest

import "time"

// Counters are the running totals kept per author and per path.
type Counters struct {
	Commits      int       `json:"commits"       yaml:"commits"`
	LinesAdded   int       `json:"lines_added"   yaml:"lines_added"`
	LinesRemoved int       `json:"lines_removed" yaml:"lines_removed"`
	FirstSeen    time.Time `json:"first_seen"    yaml:"first_seen"`
	LastSeen     time.Time `json:"last_seen"     yaml:"last_seen"`
}

// absorb updates the counters with one record's contribution. Ties on the
// timestamps resolve by arrival order: the first arrival keeps FirstSeen,
// the last arrival takes LastSeen.
func (c *Counters) absorb(when time.Time, added, removed int) {
	c.Commits++
	c.LinesAdded += added
	c.LinesRemoved += removed

	if c.FirstSeen.IsZero() || when.Before(c.FirstSeen) {
		c.FirstSeen = when
	}

	if !when.Before(c.LastSeen) {
		c.LastSeen = when
	}
}

// AuthorTotals are the aggregated statistics for one canonical author.
// Merges counts the ingested commits that had more than one parent.
type AuthorTotals struct {
	Identity string `json:"identity" yaml:"identity"`
	Name     string `json:"name"     yaml:"name"`
	Merges   int    `json:"merges"   yaml:"merges"`
	Counters `yaml:",inline"`
}

// PathTotals are the aggregated statistics for one path.
type PathTotals struct {
	Path     string `json:"path"     yaml:"path"`
	Language string `json:"language" yaml:"language"`
	Counters `yaml:",inline"`
}

// Summary is an immutable snapshot of the aggregate state. Authors and
// Paths keep insertion order so reports are deterministic.
type Summary struct {
	Authors []AuthorTotals `json:"authors" yaml:"authors"`
	Paths   []PathTotals   `json:"paths"   yaml:"paths"`
}

// Author returns the totals for a canonical identity, if present.
func (s *Summary) Author(identity string) (AuthorTotals, bool) {
	for _, a := range s.Authors {
		if a.Identity == identity {
			return a, true
		}
	}

	return AuthorTotals{}, false
}

// Path returns the totals for a path, if present.
func (s *Summary) Path(path string) (PathTotals, bool) {
	for _, p := range s.Paths {
		if p.Path == path {
			return p, true
		}
	}

	return PathTotals{}, false
}

// TotalLines returns the overall added and removed line counts.
func (s *Summary) TotalLines() (added, removed int) {
	for _, a := range s.Authors {
		added += a.LinesAdded
		removed += a.LinesRemoved
	}

	return added, removed
}

// TotalCommits returns the overall ingested commit count.
func (s *Summary) TotalCommits() int {
	total := 0
	for _, a := range s.Authors {
		total += a.Commits
	}

	return total
}
