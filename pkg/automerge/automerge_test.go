package automerge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/arbor/config"
	"github.com/grovetools/arbor/git"
	"github.com/grovetools/arbor/pkg/analyze"
	"github.com/grovetools/arbor/pkg/sessions"
	"github.com/grovetools/arbor/pkg/worktree"
	"github.com/grovetools/arbor/testutil"
)

// scriptedRunner makes every probe fail to spawn except the scripted ones.
type scriptedRunner struct {
	results map[string]analyze.RunResult
}

func (r *scriptedRunner) Run(_ context.Context, _ string, argv []string, _ time.Duration) analyze.RunResult {
	key := ""
	for i, a := range argv {
		if i > 0 {
			key += " "
		}
		key += a
	}
	return r.results[key]
}

func newOrchestrator(t *testing.T, runner analyze.Runner) (*Orchestrator, *worktree.Manager, string) {
	t.Helper()

	root := t.TempDir()
	_, clone := testutil.InitRemoteClone(t, root, "main")

	backend := testutil.NewFakeBackend()
	backend.Current = backend.AddSession("@0", "main", clone)

	gateway := git.NewGateway()
	cfg := &config.Config{}
	cfg.Assistant.Binary = "claude"

	resolver := sessions.NewResolver(&sessions.ExplicitConfigStrategy{SessionID: "s1"})
	manager := worktree.NewManager(clone, gateway, backend, resolver, cfg)
	analyzer := analyze.NewWithRunner(gateway, runner)

	return New(clone, analyzer, gateway, manager, cfg), manager, clone
}

func TestHandleCompletionMergesAndTearsDown(t *testing.T) {
	runner := &scriptedRunner{results: map[string]analyze.RunResult{
		"make test": {Spawned: true, ExitCode: 0, Output: "ok"},
	}}
	o, manager, clone := newOrchestrator(t, runner)
	ctx := context.Background()

	_, err := manager.Create(ctx, worktree.CreateOptions{
		BranchName: "feature/auth",
		FolderName: "app-feat-auth",
	})
	require.NoError(t, err)

	path := manager.WorktreePath("app-feat-auth")
	testutil.CommitFile(t, path, "auth.go", "package auth\n", "add auth")

	result, err := o.HandleCompletion(ctx, "app-feat-auth", "auth implemented")
	require.NoError(t, err)

	assert.True(t, result.Merged)
	assert.Equal(t, analyze.RecommendationSafe, result.Recommendation)
	assert.Empty(t, result.FailedStep)
	require.NotNil(t, result.Teardown)
	assert.True(t, result.Teardown.Success)

	// The feature landed on main in the main working copy
	_, statErr := os.Stat(filepath.Join(clone, "auth.go"))
	assert.NoError(t, statErr)

	// The worktree is gone and its branch swept up
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	assert.False(t, git.NewGateway().BranchExists(ctx, clone, "feature/auth"))
}

func TestHandleCompletionRefusesOnBlocked(t *testing.T) {
	runner := &scriptedRunner{results: map[string]analyze.RunResult{
		"make test": {Spawned: true, ExitCode: 1, Output: "1 failed"},
	}}
	o, manager, clone := newOrchestrator(t, runner)
	ctx := context.Background()

	_, err := manager.Create(ctx, worktree.CreateOptions{
		BranchName: "feature/auth",
		FolderName: "app-feat-auth",
	})
	require.NoError(t, err)

	result, err := o.HandleCompletion(ctx, "app-feat-auth", "done")
	require.NoError(t, err)

	assert.False(t, result.Merged)
	assert.Equal(t, analyze.RecommendationBlocked, result.Recommendation)
	assert.NotNil(t, result.Report)

	// Nothing was merged or removed
	_, statErr := os.Stat(manager.WorktreePath("app-feat-auth"))
	assert.NoError(t, statErr)
	assert.True(t, git.NewGateway().BranchExists(ctx, clone, "feature/auth"))
}

func TestHandleCompletionCautionIsNotMergeable(t *testing.T) {
	// No probe spawns and no quality checks apply: caution, no merge
	runner := &scriptedRunner{results: map[string]analyze.RunResult{}}
	o, manager, _ := newOrchestrator(t, runner)
	ctx := context.Background()

	_, err := manager.Create(ctx, worktree.CreateOptions{
		BranchName: "feature/auth",
		FolderName: "app-feat-auth",
	})
	require.NoError(t, err)

	result, err := o.HandleCompletion(ctx, "app-feat-auth", "done")
	require.NoError(t, err)

	assert.False(t, result.Merged)
	assert.Equal(t, analyze.RecommendationCaution, result.Recommendation)
}

func TestHandleCompletionMissingWorktree(t *testing.T) {
	o, _, _ := newOrchestrator(t, &scriptedRunner{})

	_, err := o.HandleCompletion(context.Background(), "never-created", "done")
	assert.Error(t, err)
}

func TestHandleCompletionInvokedFromWorktree(t *testing.T) {
	runner := &scriptedRunner{results: map[string]analyze.RunResult{
		"make test": {Spawned: true, ExitCode: 0, Output: "ok"},
	}}

	root := t.TempDir()
	_, clone := testutil.InitRemoteClone(t, root, "main")

	backend := testutil.NewFakeBackend()
	backend.Current = backend.AddSession("@0", "main", clone)

	gateway := git.NewGateway()
	cfg := &config.Config{}
	cfg.Assistant.Binary = "claude"
	resolver := sessions.NewResolver(&sessions.ExplicitConfigStrategy{SessionID: "s1"})

	ctx := context.Background()
	seed := worktree.NewManager(clone, gateway, backend, resolver, cfg)
	_, err := seed.Create(ctx, worktree.CreateOptions{
		BranchName: "feature/auth",
		FolderName: "app-feat-auth",
	})
	require.NoError(t, err)

	path := seed.WorktreePath("app-feat-auth")
	testutil.CommitFile(t, path, "auth.go", "package auth\n", "add auth")

	// The CLI runs inside the worktree during the worker flow; the repo
	// anchor must still come out as the main working copy, never the
	// worktree itself.
	repoDir, err := gateway.MainWorktreeRoot(ctx, path)
	require.NoError(t, err)

	resolvedClone, err := filepath.EvalSymlinks(clone)
	require.NoError(t, err)
	resolvedRepoDir, err := filepath.EvalSymlinks(repoDir)
	require.NoError(t, err)
	require.Equal(t, resolvedClone, resolvedRepoDir)

	manager := worktree.NewManager(repoDir, gateway, backend, resolver, cfg)
	o := New(repoDir, analyze.NewWithRunner(gateway, runner), gateway, manager, cfg)

	result, err := o.HandleCompletion(ctx, "app-feat-auth", "auth implemented")
	require.NoError(t, err)

	assert.True(t, result.Merged)
	assert.Empty(t, result.FailedStep)

	_, statErr := os.Stat(filepath.Join(clone, "auth.go"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
