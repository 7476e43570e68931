package history_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/git-harvest/pkg/gitlib"
	"github.com/githarvest/git-harvest/pkg/history"
)

// threeCommitRepo builds a linear history of three commits.
func threeCommitRepo(t *testing.T) (*gitlib.TestRepo, []gitlib.Hash) {
	t.Helper()

	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.txt", "a")
	first := tr.Commit("first")

	tr.WriteFile("b.txt", "b")
	second := tr.Commit("second")

	tr.WriteFile("c.txt", "c")
	third := tr.Commit("third")

	return tr, []gitlib.Hash{first, second, third}
}

// drain consumes the cursor until io.EOF, freeing every commit.
func drain(t *testing.T, cursor *history.Cursor) []gitlib.Hash {
	t.Helper()

	var got []gitlib.Hash

	for {
		commit, err := cursor.Next()
		if errors.Is(err, io.EOF) {
			return got
		}

		require.NoError(t, err)

		got = append(got, commit.Hash())
		commit.Free()
	}
}

func TestReaderReverseChronological(t *testing.T) {
	tr, hashes := threeCommitRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Order: history.OrderReverseChronological})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	got := drain(t, cursor)
	assert.Equal(t, []gitlib.Hash{hashes[2], hashes[1], hashes[0]}, got)
}

func TestReaderTopological(t *testing.T) {
	tr, hashes := threeCommitRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Order: history.OrderTopological})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	got := drain(t, cursor)
	require.Len(t, got, 3)

	// Linear history: topological and reverse-chronological agree.
	assert.Equal(t, hashes[2], got[0])
	assert.Equal(t, hashes[0], got[2])
}

func TestReaderAuthorDateOrder(t *testing.T) {
	tr, _ := threeCommitRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Order: history.OrderAuthorDate})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	var last int64

	for i, hash := range drain(t, cursor) {
		commit, lookupErr := repo.LookupCommit(hash)
		require.NoError(t, lookupErr)

		when := commit.Author().When.Unix()
		commit.Free()

		if i > 0 {
			assert.LessOrEqual(t, when, last, "author dates must be non-increasing")
		}

		last = when
	}
}

func TestReaderLimit(t *testing.T) {
	tr, hashes := threeCommitRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Limit: 2})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	got := drain(t, cursor)
	assert.Equal(t, []gitlib.Hash{hashes[2], hashes[1]}, got)
}

func TestReaderStartReference(t *testing.T) {
	tr, hashes := threeCommitRepo(t)
	tr.Branch("work", hashes[1])

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Start: "work"})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	got := drain(t, cursor)
	assert.Equal(t, []gitlib.Hash{hashes[1], hashes[0]}, got)
}

func TestReaderBadStartReference(t *testing.T) {
	tr, _ := threeCommitRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Start: "no-such-ref"})

	cursor, err := reader.Commits(context.Background())
	require.Nil(t, cursor)
	require.ErrorIs(t, err, history.ErrRepositoryAccess)
}

func TestReaderCancellation(t *testing.T) {
	tr, _ := threeCommitRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	ctx, cancel := context.WithCancel(context.Background())

	reader := history.NewReader(repo, history.Config{})

	cursor, err := reader.Commits(ctx)
	require.NoError(t, err)

	defer cursor.Close()

	commit, err := cursor.Next()
	require.NoError(t, err)
	commit.Free()

	cancel()

	_, err = cursor.Next()
	require.ErrorIs(t, err, context.Canceled)
}

func TestReaderEarlyClose(t *testing.T) {
	tr, _ := threeCommitRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	commit, err := cursor.Next()
	require.NoError(t, err)
	commit.Free()

	// Close before exhaustion, then again; both must be safe.
	cursor.Close()
	cursor.Close()
}

// danglingParentRepo builds a merge whose second parent object has been
// removed from the object database. A first-parent walk never visits the
// missing commit, but the merge still records it as a parent.
func danglingParentRepo(t *testing.T) *gitlib.TestRepo {
	t.Helper()

	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.txt", "a")
	base := tr.Commit("base")

	tr.WriteFile("side.txt", "s")
	side := tr.CommitFrom("side", base)

	tr.WriteFile("b.txt", "b")
	tr.MergeAs("merge", "Test User", "test@example.com", side)

	tr.RemoveObject(side)

	return tr
}

func TestReaderStrictCorruptParent(t *testing.T) {
	tr := danglingParentRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Strict: true, FirstParent: true})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	_, err = cursor.Next()
	require.ErrorIs(t, err, history.ErrCorruptHistory)
}

func TestReaderLenientCorruptParent(t *testing.T) {
	tr := danglingParentRepo(t)

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{FirstParent: true})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	// The merge and the base still come through; the dangling parent is
	// skipped.
	got := drain(t, cursor)
	assert.Len(t, got, 2)
}

func TestReaderStrictMissingObject(t *testing.T) {
	tr, hashes := threeCommitRepo(t)
	tr.RemoveObject(hashes[0])

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Strict: true})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	for {
		commit, nextErr := cursor.Next()
		if nextErr != nil {
			require.ErrorIs(t, nextErr, history.ErrCorruptHistory)

			return
		}

		commit.Free()
	}
}

func TestReaderLenientMissingObject(t *testing.T) {
	tr, hashes := threeCommitRepo(t)
	tr.RemoveObject(hashes[0])

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	got := drain(t, cursor)
	assert.NotContains(t, got, hashes[0])
	assert.LessOrEqual(t, len(got), 2)
}

func TestReaderAuthorDateStrictMissingObject(t *testing.T) {
	tr, hashes := threeCommitRepo(t)
	tr.RemoveObject(hashes[0])

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Order: history.OrderAuthorDate, Strict: true})

	// Author-date order drains the walk up front, so the corruption
	// surfaces from Commits already.
	cursor, err := reader.Commits(context.Background())
	require.Nil(t, cursor)
	require.ErrorIs(t, err, history.ErrCorruptHistory)
}

func TestReaderAuthorDateLenientMissingObject(t *testing.T) {
	tr, hashes := threeCommitRepo(t)
	tr.RemoveObject(hashes[0])

	repo, err := gitlib.OpenRepository(tr.Path)
	require.NoError(t, err)

	defer repo.Free()

	reader := history.NewReader(repo, history.Config{Order: history.OrderAuthorDate})

	cursor, err := reader.Commits(context.Background())
	require.NoError(t, err)

	defer cursor.Close()

	got := drain(t, cursor)
	assert.NotContains(t, got, hashes[0])
	assert.LessOrEqual(t, len(got), 2)
}

func TestParseOrder(t *testing.T) {
	cases := []struct {
		in   string
		want history.Order
	}{
		{"topological", history.OrderTopological},
		{"topo", history.OrderTopological},
		{"reverse-chronological", history.OrderReverseChronological},
		{"time", history.OrderReverseChronological},
		{"Author-Date", history.OrderAuthorDate},
	}

	for _, tc := range cases {
		got, err := history.ParseOrder(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := history.ParseOrder("alphabetical")
	require.ErrorIs(t, err, history.ErrUnknownOrder)
}

func TestOrderString(t *testing.T) {
	assert.Equal(t, "topological", history.OrderTopological.String())
	assert.Equal(t, "reverse-chronological", history.OrderReverseChronological.String())
	assert.Equal(t, "author-date", history.OrderAuthorDate.String())
}
