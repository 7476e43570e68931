package gitlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

// TestRepo builds throwaway repositories for tests without shelling out to
// the git binary. It is exported so the history, record and harvest test
// suites can share one fixture.
type TestRepo struct {
	T      *testing.T
	Path   string
	native *git2go.Repository
	clock  time.Time
}

// NewTestRepo initializes an empty repository under t.TempDir().
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &TestRepo{
		T:      t,
		Path:   dir,
		native: repo,
		clock:  time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
}

// WriteFile creates or overwrites a file in the working directory.
func (tr *TestRepo) WriteFile(name, content string) {
	tr.T.Helper()

	path := filepath.Join(tr.Path, name)

	dir := filepath.Dir(path)
	if dir != tr.Path {
		err := os.MkdirAll(dir, 0o755)
		require.NoError(tr.T, err)
	}

	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(tr.T, err)
}

// RemoveFile deletes a file from the working directory.
func (tr *TestRepo) RemoveFile(name string) {
	tr.T.Helper()

	err := os.Remove(filepath.Join(tr.Path, name))
	require.NoError(tr.T, err)
}

// Commit stages everything and commits as "Test User <test@example.com>".
func (tr *TestRepo) Commit(message string) Hash {
	tr.T.Helper()

	return tr.CommitAs(message, "Test User", "test@example.com")
}

// CommitAs stages everything and commits with the given author identity.
// Each commit advances the fixture clock by one minute so timestamps are
// distinct and deterministic.
func (tr *TestRepo) CommitAs(message, name, email string) Hash {
	tr.T.Helper()

	tree := tr.stageAll()
	defer tree.Free()

	sig := tr.nextSignature(name, email)

	var parents []*git2go.Commit

	head, headErr := tr.native.Head()
	if headErr == nil {
		headCommit, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.T, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.T, err)

	for _, parent := range parents {
		parent.Free()
	}

	return HashFromOid(oid)
}

// CommitFrom stages everything and writes a commit whose sole parent is
// at, without moving any reference. Used to build side histories for
// merge fixtures.
func (tr *TestRepo) CommitFrom(message string, at Hash) Hash {
	tr.T.Helper()

	tree := tr.stageAll()
	defer tree.Free()

	parent, err := tr.native.LookupCommit(at.ToOid())
	require.NoError(tr.T, err)

	defer parent.Free()

	sig := tr.nextSignature("Test User", "test@example.com")

	oid, err := tr.native.CreateCommit("", sig, sig, message, tree, parent)
	require.NoError(tr.T, err)

	return HashFromOid(oid)
}

// MergeAs stages everything and commits with two parents, the current
// HEAD and other. HEAD moves to the merge commit.
func (tr *TestRepo) MergeAs(message, name, email string, other Hash) Hash {
	tr.T.Helper()

	tree := tr.stageAll()
	defer tree.Free()

	head, err := tr.native.Head()
	require.NoError(tr.T, err)

	first, err := tr.native.LookupCommit(head.Target())
	require.NoError(tr.T, err)

	head.Free()
	defer first.Free()

	second, err := tr.native.LookupCommit(other.ToOid())
	require.NoError(tr.T, err)

	defer second.Free()

	sig := tr.nextSignature(name, email)

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, first, second)
	require.NoError(tr.T, err)

	return HashFromOid(oid)
}

// RemoveObject deletes a loose object file, leaving any references to it
// in the history dangling. Used to build corrupt fixtures.
func (tr *TestRepo) RemoveObject(at Hash) {
	tr.T.Helper()

	hex := at.String()
	path := filepath.Join(tr.Path, ".git", "objects", hex[:2], hex[2:])

	err := os.Remove(path)
	require.NoError(tr.T, err)
}

// stageAll stages the working directory and returns its tree. The caller
// must Free the tree.
func (tr *TestRepo) stageAll() *git2go.Tree {
	tr.T.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.T, err)

	defer index.Free()

	err = index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil)
	require.NoError(tr.T, err)

	err = index.Write()
	require.NoError(tr.T, err)

	treeID, err := index.WriteTree()
	require.NoError(tr.T, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.T, err)

	return tree
}

// nextSignature advances the fixture clock and builds the commit signature.
func (tr *TestRepo) nextSignature(name, email string) *git2go.Signature {
	tr.clock = tr.clock.Add(time.Minute)

	return &git2go.Signature{
		Name:  name,
		Email: email,
		When:  tr.clock,
	}
}

// Branch creates a local branch pointing at the given commit.
func (tr *TestRepo) Branch(name string, at Hash) {
	tr.T.Helper()

	commit, err := tr.native.LookupCommit(at.ToOid())
	require.NoError(tr.T, err)

	defer commit.Free()

	branch, err := tr.native.CreateBranch(name, commit, false)
	require.NoError(tr.T, err)

	branch.Free()
}

// RemoteBranchRef creates a remote-tracking ref (refs/remotes/origin/<name>)
// pointing at the given commit, simulating a fetched remote branch.
func (tr *TestRepo) RemoteBranchRef(name string, at Hash) {
	tr.T.Helper()

	ref, err := tr.native.References.Create(
		"refs/remotes/origin/"+name, at.ToOid(), false, "test remote branch",
	)
	require.NoError(tr.T, err)

	ref.Free()
}

// TestSignature creates a signature for tests.
func TestSignature(name, email string) Signature {
	return Signature{
		Name:  name,
		Email: email,
		When:  time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
}
