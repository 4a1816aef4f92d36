package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/arbor/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRepository(t *testing.T) {
	tmpDir := t.TempDir()
	gw := NewGateway()
	ctx := context.Background()

	assert.False(t, gw.IsRepository(ctx, tmpDir))

	testutil.InitGitRepo(t, tmpDir)
	assert.True(t, gw.IsRepository(ctx, tmpDir))
}

func TestBranchExists(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.InitGitRepo(t, tmpDir)
	testutil.Git(t, tmpDir, "branch", "feature/exists")

	gw := NewGateway()
	ctx := context.Background()

	assert.True(t, gw.BranchExists(ctx, tmpDir, "feature/exists"))
	assert.False(t, gw.BranchExists(ctx, tmpDir, "feature/missing"))
}

func TestIsCleanAndStatus(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.InitGitRepo(t, tmpDir)

	gw := NewGateway()
	ctx := context.Background()

	clean, err := gw.IsClean(ctx, tmpDir)
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "dirty.txt"), []byte("x"), 0644))

	clean, err = gw.IsClean(ctx, tmpDir)
	require.NoError(t, err)
	assert.False(t, clean)

	status, err := gw.StatusPorcelain(ctx, tmpDir)
	require.NoError(t, err)
	assert.Contains(t, status, "dirty.txt")
}

func TestCurrentBranch(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.InitGitRepo(t, tmpDir)

	gw := NewGateway()
	branch, err := gw.CurrentBranch(context.Background(), tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestDeleteBranch(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.InitGitRepo(t, tmpDir)
	testutil.Git(t, tmpDir, "branch", "doomed")

	gw := NewGateway()
	ctx := context.Background()

	require.NoError(t, gw.DeleteBranch(ctx, tmpDir, "doomed", true))
	assert.False(t, gw.BranchExists(ctx, tmpDir, "doomed"))

	// Invalid names are rejected before reaching git
	err := gw.DeleteBranch(ctx, tmpDir, "bad name", true)
	assert.Error(t, err)
}

func TestBaseBranchFromSymbolicRef(t *testing.T) {
	root := t.TempDir()
	_, clone := testutil.InitRemoteClone(t, root, "develop")

	gw := NewGateway()
	base, err := gw.BaseBranch(context.Background(), clone)
	require.NoError(t, err)

	// The remote's symbolic default ref wins; main/master are not hardcoded
	assert.Equal(t, "develop", base)
}

func TestBaseBranchUnresolved(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.InitGitRepo(t, tmpDir)

	gw := NewGateway()
	_, err := gw.BaseBranch(context.Background(), tmpDir)
	assert.ErrorIs(t, err, ErrBaseUnresolved)
}

func TestUnpushedCommitCountWithUpstream(t *testing.T) {
	root := t.TempDir()
	_, clone := testutil.InitRemoteClone(t, root, "main")

	gw := NewGateway()
	ctx := context.Background()

	count, err := gw.UnpushedCommitCount(ctx, clone)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	testutil.CommitFile(t, clone, "a.txt", "a", "local only")

	count, err = gw.UnpushedCommitCount(ctx, clone)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnpushedCommitCountFallsBackToBase(t *testing.T) {
	root := t.TempDir()
	_, clone := testutil.InitRemoteClone(t, root, "develop")

	// A new branch with no upstream: counting must diff against origin/develop
	testutil.Git(t, clone, "checkout", "-b", "feature/no-upstream")
	testutil.CommitFile(t, clone, "b.txt", "b", "ahead of develop")

	gw := NewGateway()
	count, err := gw.UnpushedCommitCount(context.Background(), clone)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDiffStatAndChangedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.InitGitRepo(t, tmpDir)
	testutil.CommitFile(t, tmpDir, "feature.go", "package feature\n", "add feature")

	gw := NewGateway()
	ctx := context.Background()

	stat, err := gw.DiffStat(ctx, tmpDir)
	require.NoError(t, err)
	assert.Contains(t, stat, "feature.go")

	files, err := gw.ChangedFiles(ctx, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"feature.go"}, files)
}

func TestMergeBranch(t *testing.T) {
	root := t.TempDir()
	_, clone := testutil.InitRemoteClone(t, root, "main")

	testutil.Git(t, clone, "checkout", "-b", "feature/merge-me")
	testutil.CommitFile(t, clone, "merged.txt", "content", "feature work")
	testutil.Git(t, clone, "push", "-u", "origin", "feature/merge-me")
	testutil.Git(t, clone, "checkout", "main")

	gw := NewGateway()
	err := gw.MergeBranch(context.Background(), clone, "main", "feature/merge-me", "Merge feature/merge-me")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(clone, "merged.txt"))
	assert.NoError(t, err)
}

func TestMainWorktreeRoot(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(repo, 0755))
	testutil.InitGitRepo(t, repo)

	gw := NewGateway()
	ctx := context.Background()

	wtPath := filepath.Join(root, "app-feat")
	require.NoError(t, gw.CreateWorktree(ctx, repo, "feature/x", wtPath))

	resolve := func(p string) string {
		resolved, err := filepath.EvalSymlinks(p)
		require.NoError(t, err)
		return resolved
	}

	// From inside the worktree the toplevel is the worktree itself
	top, err := gw.RepositoryRoot(ctx, wtPath)
	require.NoError(t, err)
	assert.Equal(t, resolve(wtPath), resolve(top))

	// but the main working copy resolves to the original checkout
	main, err := gw.MainWorktreeRoot(ctx, wtPath)
	require.NoError(t, err)
	assert.Equal(t, resolve(repo), resolve(main))

	main, err = gw.MainWorktreeRoot(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, resolve(repo), resolve(main))
}
