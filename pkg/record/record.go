// Package record normalizes raw commits into the reduced representation the
// aggregator consumes. Extraction is a pure function: identity folding,
// delta clamping and path filtering only, no repository access.
package record

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/src-d/enry/v2"

	"github.com/githarvest/git-harvest/pkg/gitlib"
)

// ErrMalformedCommit is returned when a commit is missing its author
// identity or its timestamp.
var ErrMalformedCommit = errors.New("malformed commit")

// PathStat is the normalized per-path change of a record.
type PathStat struct {
	Path     string
	Language string
	Added    int
	Removed  int
}

// Record is the normalized, pipeline-internal view of a commit.
type Record struct {
	Hash     gitlib.Hash
	Identity string // Canonical author key (lowercased email, name fallback).
	Author   string // Display name as written in the commit.
	When     time.Time
	Parents  int
	Paths    []PathStat
}

// Extractor converts commits into records. The zero value extracts every
// path; PathPrefixes restricts records to the matching subtrees.
type Extractor struct {
	PathPrefixes []string
}

// Extract builds a Record from commit fields. Negative or missing line
// deltas are clamped to zero. Two author spellings that differ only in
// email case fold into one identity.
func (e *Extractor) Extract(
	hash gitlib.Hash, author gitlib.Signature, parents int, changes []gitlib.PathChange,
) (*Record, error) {
	identity := CanonicalIdentity(author)
	if identity == "" || author.When.IsZero() {
		return nil, ErrMalformedCommit
	}

	rec := &Record{
		Hash:     hash,
		Identity: identity,
		Author:   author.Name,
		When:     author.When,
		Parents:  parents,
		Paths:    make([]PathStat, 0, len(changes)),
	}

	for _, change := range changes {
		if !e.matches(change.Path) {
			continue
		}

		rec.Paths = append(rec.Paths, PathStat{
			Path:     change.Path,
			Language: enry.GetLanguage(filepath.Base(change.Path), nil),
			Added:    max(change.Added, 0),
			Removed:  max(change.Removed, 0),
		})
	}

	return rec, nil
}

// matches reports whether a path passes the prefix filter.
func (e *Extractor) matches(path string) bool {
	if len(e.PathPrefixes) == 0 {
		return true
	}

	for _, prefix := range e.PathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// CanonicalIdentity folds an author signature into its canonical key:
// the lowercased email, falling back to the lowercased name when the
// email is empty.
func CanonicalIdentity(author gitlib.Signature) string {
	email := strings.ToLower(strings.TrimSpace(author.Email))
	if email != "" {
		return email
	}

	return strings.ToLower(strings.TrimSpace(author.Name))
}
