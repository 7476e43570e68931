package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/githarvest/git-harvest/pkg/gitlib"
	"github.com/githarvest/git-harvest/pkg/history"
	"github.com/githarvest/git-harvest/pkg/record"
)

// RunSummary reports what a harvest run did, regardless of error mode.
type RunSummary struct {
	Seen       int           `json:"seen"       yaml:"seen"`
	Ingested   int           `json:"ingested"   yaml:"ingested"`
	Skipped    int           `json:"skipped"    yaml:"skipped"`
	Duplicates int           `json:"duplicates" yaml:"duplicates"`
	Elapsed    time.Duration `json:"elapsed"    yaml:"elapsed"`
}

// Runner wires the history reader and record extractor into an aggregator.
// With Workers > 1 the commit list is split into disjoint chunks processed
// by parallel workers, each with its own repository handle; the
// aggregator's Ingest is the only serialization point.
type Runner struct {
	RepoPath     string
	Workers      int
	History      history.Config
	PathPrefixes []string
	Logger       *slog.Logger
}

// Run harvests the configured history into agg. Per-commit failures are
// counted as skipped and do not stop the run; repository access failures
// and, in strict mode, corrupt history abort it. The returned summary is
// valid even when err is non-nil.
func (r *Runner) Run(ctx context.Context, agg *Aggregator) (*RunSummary, error) {
	startedAt := time.Now()

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	before := agg.Ingested()
	beforeDup := agg.Duplicates()

	summary := &RunSummary{}

	var err error
	if r.Workers > 1 {
		err = r.runParallel(ctx, agg, summary, logger)
	} else {
		err = r.runSequential(ctx, agg, summary)
	}

	summary.Ingested = agg.Ingested() - before
	summary.Duplicates = agg.Duplicates() - beforeDup
	summary.Elapsed = time.Since(startedAt)

	logger.Debug("harvest finished",
		"seen", summary.Seen,
		"ingested", summary.Ingested,
		"skipped", summary.Skipped,
		"duplicates", summary.Duplicates,
		"elapsed", summary.Elapsed,
	)

	return summary, err
}

// runSequential is the baseline single producer, single consumer fold.
func (r *Runner) runSequential(ctx context.Context, agg *Aggregator, summary *RunSummary) error {
	repo, err := gitlib.OpenRepository(r.RepoPath)
	if err != nil {
		return fmt.Errorf("%w: %w", history.ErrRepositoryAccess, err)
	}
	defer repo.Free()

	cursor, err := history.NewReader(repo, r.History).Commits(ctx)
	if err != nil {
		return err
	}
	defer cursor.Close()

	extractor := &record.Extractor{PathPrefixes: r.PathPrefixes}

	for {
		commit, nextErr := cursor.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}

		if nextErr != nil {
			return nextErr
		}

		summary.Seen++

		if !r.harvestCommit(repo, extractor, agg, commit) {
			summary.Skipped++
		}

		commit.Free()
	}
}

// runParallel collects the commit list up front, then processes disjoint
// chunks on worker goroutines, each with an isolated repository handle.
func (r *Runner) runParallel(
	ctx context.Context, agg *Aggregator, summary *RunSummary, logger *slog.Logger,
) error {
	hashes, err := r.collectHashes(ctx)
	if err != nil {
		return err
	}

	summary.Seen = len(hashes)

	if len(hashes) == 0 {
		return nil
	}

	workers := min(r.Workers, len(hashes))
	chunkSize := (len(hashes) + workers - 1) / workers

	logger.Debug("parallel harvest", "commits", len(hashes), "workers", workers)

	type workerResult struct {
		skipped int
		err     error
	}

	results := make(chan workerResult, workers)

	var wg sync.WaitGroup

	for i := range workers {
		start := i * chunkSize

		end := min(start+chunkSize, len(hashes))
		if start >= end {
			continue
		}

		wg.Add(1)

		go func(chunk []gitlib.Hash) {
			defer wg.Done()

			skipped, chunkErr := r.harvestChunk(ctx, agg, chunk)
			results <- workerResult{skipped: skipped, err: chunkErr}
		}(hashes[start:end])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		summary.Skipped += res.skipped

		if res.err != nil && err == nil {
			err = res.err
		}
	}

	return err
}

// collectHashes drains a traversal into a hash list, preserving order.
func (r *Runner) collectHashes(ctx context.Context) ([]gitlib.Hash, error) {
	repo, err := gitlib.OpenRepository(r.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", history.ErrRepositoryAccess, err)
	}
	defer repo.Free()

	cursor, err := history.NewReader(repo, r.History).Commits(ctx)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var hashes []gitlib.Hash

	for {
		commit, nextErr := cursor.Next()
		if errors.Is(nextErr, io.EOF) {
			return hashes, nil
		}

		if nextErr != nil {
			return nil, nextErr
		}

		hashes = append(hashes, commit.Hash())
		commit.Free()
	}
}

// harvestChunk processes one disjoint chunk of commits on its own
// repository handle.
func (r *Runner) harvestChunk(
	ctx context.Context, agg *Aggregator, chunk []gitlib.Hash,
) (skipped int, err error) {
	repo, err := gitlib.OpenRepository(r.RepoPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", history.ErrRepositoryAccess, err)
	}
	defer repo.Free()

	extractor := &record.Extractor{PathPrefixes: r.PathPrefixes}

	for _, hash := range chunk {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return skipped, ctxErr
		}

		commit, lookupErr := repo.LookupCommit(hash)
		if lookupErr != nil {
			skipped++

			continue
		}

		if !r.harvestCommit(repo, extractor, agg, commit) {
			skipped++
		}

		commit.Free()
	}

	return skipped, nil
}

// harvestCommit extracts one commit and ingests it. It reports false when
// the commit had to be skipped.
func (r *Runner) harvestCommit(
	repo *gitlib.Repository, extractor *record.Extractor, agg *Aggregator, commit *gitlib.Commit,
) bool {
	changes, err := repo.CommitChanges(commit)
	if err != nil {
		return false
	}

	rec, err := extractor.Extract(commit.Hash(), commit.Author(), commit.NumParents(), changes)
	if err != nil {
		return false
	}

	agg.Ingest(rec)

	return true
}
