package harvest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/git-harvest/pkg/harvest"
)

func TestCheckpointSaveLoad(t *testing.T) {
	baseDir := t.TempDir()

	agg := harvest.NewAggregator()
	agg.Ingest(rec(1, "alice@example.com", baseTime, "a.go", 10, 2))
	agg.Ingest(rec(2, "bob@example.com", baseTime.Add(time.Hour), "b.go", 3, 1))

	manager := harvest.NewCheckpointManager(baseDir, "/repo/path")
	assert.False(t, manager.Exists())

	require.NoError(t, manager.Save(agg))
	assert.True(t, manager.Exists())

	cp, err := manager.Load()
	require.NoError(t, err)
	assert.Equal(t, harvest.CheckpointVersion, cp.Version)
	assert.Equal(t, "/repo/path", cp.RepoPath)
	assert.Len(t, cp.Seen, 2)

	require.Len(t, cp.Summary.Authors, 2)

	alice, ok := cp.Summary.Author("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, 10, alice.LinesAdded)
}

func TestCheckpointRepoPathMismatch(t *testing.T) {
	baseDir := t.TempDir()

	agg := harvest.NewAggregator()
	agg.Ingest(rec(1, "alice@example.com", baseTime, "a.go", 1, 0))

	require.NoError(t, harvest.NewCheckpointManager(baseDir, "/repo/a").Save(agg))

	// A colliding manager for a different path never matches: the state
	// lives under a hash of the repo path.
	_, err := harvest.NewCheckpointManager(baseDir, "/repo/b").Load()
	require.ErrorIs(t, err, harvest.ErrNoCheckpoint)
}

func TestCheckpointMissing(t *testing.T) {
	manager := harvest.NewCheckpointManager(t.TempDir(), "/repo/path")

	_, err := manager.Load()
	require.ErrorIs(t, err, harvest.ErrNoCheckpoint)
}

func TestCheckpointClear(t *testing.T) {
	baseDir := t.TempDir()

	agg := harvest.NewAggregator()
	agg.Ingest(rec(1, "alice@example.com", baseTime, "a.go", 1, 0))

	manager := harvest.NewCheckpointManager(baseDir, "/repo/path")
	require.NoError(t, manager.Save(agg))
	require.NoError(t, manager.Clear())
	assert.False(t, manager.Exists())

	// Clearing a missing checkpoint is not an error.
	require.NoError(t, manager.Clear())
}

func TestRestoreKeepsRunsIdempotent(t *testing.T) {
	tr := mixedAuthorRepo(t)
	baseDir := t.TempDir()

	agg := harvest.NewAggregator()
	runner := &harvest.Runner{RepoPath: tr.Path}

	_, err := runner.Run(context.Background(), agg)
	require.NoError(t, err)

	manager := harvest.NewCheckpointManager(baseDir, tr.Path)
	require.NoError(t, manager.Save(agg))

	// A fresh aggregator restored from the checkpoint rejects everything
	// the first run already harvested.
	cp, err := manager.Load()
	require.NoError(t, err)

	resumed := harvest.NewAggregator()
	resumed.Restore(cp.Summary, cp.Seen)

	summary, err := runner.Run(context.Background(), resumed)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Ingested)
	assert.Equal(t, 3, summary.Duplicates)

	// JSON round-trips timestamps through different zone representations,
	// so compare totals rather than whole snapshots.
	want, got := agg.Snapshot(), resumed.Snapshot()
	require.Len(t, got.Authors, len(want.Authors))

	for _, author := range want.Authors {
		other, ok := got.Author(author.Identity)
		require.True(t, ok, author.Identity)
		assert.Equal(t, author.Commits, other.Commits)
		assert.Equal(t, author.LinesAdded, other.LinesAdded)
		assert.Equal(t, author.LinesRemoved, other.LinesRemoved)
		assert.True(t, author.FirstSeen.Equal(other.FirstSeen))
		assert.True(t, author.LastSeen.Equal(other.LastSeen))
	}
}
