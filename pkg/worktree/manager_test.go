package worktree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/arbor/config"
	"github.com/grovetools/arbor/errors"
	"github.com/grovetools/arbor/git"
	"github.com/grovetools/arbor/pkg/sessions"
	"github.com/grovetools/arbor/pkg/terminal"
	"github.com/grovetools/arbor/testutil"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Assistant.Binary = "claude"
	return cfg
}

// newLocalManager sets up a manager over a repository with no remote.
func newLocalManager(t *testing.T) (*Manager, *testutil.FakeBackend, string) {
	t.Helper()

	root := t.TempDir()
	repo := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(repo, 0755))
	testutil.InitGitRepo(t, repo)

	backend := testutil.NewFakeBackend()
	backend.Current = backend.AddSession("@0", "main", repo)

	resolver := sessions.NewResolver(&sessions.ExplicitConfigStrategy{SessionID: "s1"})
	mgr := NewManager(repo, git.NewGateway(), backend, resolver, testConfig())
	return mgr, backend, repo
}

// newRemoteManager sets up a manager over a clone with a bare origin, so
// base-branch inference and unpushed-commit counting work end to end.
func newRemoteManager(t *testing.T) (*Manager, *testutil.FakeBackend, string) {
	t.Helper()

	root := t.TempDir()
	_, clone := testutil.InitRemoteClone(t, root, "main")

	backend := testutil.NewFakeBackend()
	backend.Current = backend.AddSession("@0", "main", clone)

	resolver := sessions.NewResolver(&sessions.ExplicitConfigStrategy{SessionID: "s1"})
	mgr := NewManager(clone, git.NewGateway(), backend, resolver, testConfig())
	return mgr, backend, clone
}

func TestCreateThenList(t *testing.T) {
	mgr, _, repo := newLocalManager(t)
	ctx := context.Background()

	result, err := mgr.Create(ctx, CreateOptions{
		BranchName: "feature/auth",
		FolderName: "app-feat-auth",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "app-feat-auth", result.WorktreeFolder)
	assert.Equal(t, "feature/auth", result.BranchName)
	assert.NotEmpty(t, result.TabID)

	path := mgr.WorktreePath("app-feat-auth")
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)

	// Creator registration: mapping persisted, marker stamped
	mapping, ok := mgr.Store().Get("app-feat-auth")
	require.True(t, ok)
	assert.Equal(t, "s1", mapping.CreatorSessionID)
	assert.Equal(t, "@0", mapping.CreatorTabID)

	marker, ok := sessions.ReadMarker(repo)
	require.True(t, ok)
	assert.Equal(t, "s1", marker)

	listings, err := mgr.List(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "app-feat-auth", listings[0].Folder)
	assert.Equal(t, "feature/auth", listings[0].Branch)
	assert.Equal(t, git.StateActive, listings[0].Status)
	assert.Equal(t, "s1", listings[0].CreatorSessionID)
	require.Len(t, listings[0].Tabs, 1)
	assert.Equal(t, result.TabID, listings[0].Tabs[0].TabID)
}

func TestCreatePreconditionOrder(t *testing.T) {
	mgr, _, repo := newLocalManager(t)
	ctx := context.Background()

	// Both violations at once: branch check runs before folder check
	testutil.Git(t, repo, "branch", "feature/dup")
	require.NoError(t, os.MkdirAll(mgr.WorktreePath("taken"), 0755))

	_, err := mgr.Create(ctx, CreateOptions{BranchName: "feature/dup", FolderName: "taken"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBranchExists, errors.GetCode(err))

	// Folder violation alone
	_, err = mgr.Create(ctx, CreateOptions{BranchName: "feature/fresh", FolderName: "taken"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFolderExists, errors.GetCode(err))

	// Nothing was mutated by the failed attempts
	assert.False(t, git.NewGateway().BranchExists(ctx, repo, "feature/fresh"))
}

func TestCreateRejectsBadNames(t *testing.T) {
	mgr, _, _ := newLocalManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, CreateOptions{BranchName: "feature/x", FolderName: "../escape"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))

	_, err = mgr.Create(ctx, CreateOptions{BranchName: "bad branch", FolderName: "ok"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestCreateMixedSuccess(t *testing.T) {
	mgr, backend, repo := newLocalManager(t)
	ctx := context.Background()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(repo))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	backend.Unreachable = true

	result, err := mgr.Create(ctx, CreateOptions{
		BranchName: "feature/auth",
		FolderName: "app-feat-auth",
	})
	require.NoError(t, err)

	// The worktree exists; the automation failure is reported, not rolled back
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.AutomationError)
	_, statErr := os.Stat(mgr.WorktreePath("app-feat-auth"))
	assert.NoError(t, statErr)
}

func TestCreateStartsAssistant(t *testing.T) {
	mgr, backend, _ := newLocalManager(t)
	ctx := context.Background()

	result, err := mgr.Create(ctx, CreateOptions{
		BranchName:      "feature/auth",
		FolderName:      "app-feat-auth",
		TaskDescription: "implement auth",
		StartAssistant:  true,
	})
	require.NoError(t, err)

	sent := backend.SentText[result.TabID]
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "claude")
	assert.Contains(t, sent[0], `"implement auth"`)
	assert.Contains(t, sent[0], "--disallowedTools")
}

func TestCloseMissingWorktreeIsValidationError(t *testing.T) {
	mgr, _, repo := newLocalManager(t)

	_, err := mgr.Close(context.Background(), "never-created")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWorktreeMissing, errors.GetCode(err))
	assert.True(t, errors.IsValidation(err))

	// No VCS mutation happened
	records, listErr := git.NewGateway().ListWorktrees(context.Background(), repo)
	require.NoError(t, listErr)
	assert.Len(t, records, 1)
}

func TestCloseHappyPathAndIdempotence(t *testing.T) {
	mgr, backend, clone := newRemoteManager(t)
	ctx := context.Background()

	created, err := mgr.Create(ctx, CreateOptions{
		BranchName: "feature/auth",
		FolderName: "app-feat-auth",
	})
	require.NoError(t, err)

	result, err := mgr.Close(ctx, "app-feat-auth")
	require.NoError(t, err)
	assert.True(t, result.Success)
	// Zero commits ahead of base: the empty branch is swept up
	assert.True(t, result.BranchDeleted)
	assert.True(t, result.TabClosed)
	assert.Contains(t, backend.ClosedTabs, created.TabID)

	_, statErr := os.Stat(mgr.WorktreePath("app-feat-auth"))
	assert.True(t, os.IsNotExist(statErr))
	assert.False(t, git.NewGateway().BranchExists(ctx, clone, "feature/auth"))

	_, ok := mgr.Store().Get("app-feat-auth")
	assert.False(t, ok)

	// Second close of the already-removed worktree: validation error, no crash
	_, err = mgr.Close(ctx, "app-feat-auth")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWorktreeMissing, errors.GetCode(err))
}

func TestCloseRefusesDirtyWorktree(t *testing.T) {
	mgr, _, _ := newRemoteManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, CreateOptions{BranchName: "feature/auth", FolderName: "app-feat-auth"})
	require.NoError(t, err)

	path := mgr.WorktreePath("app-feat-auth")
	require.NoError(t, os.WriteFile(filepath.Join(path, "wip.txt"), []byte("x"), 0644))

	_, err = mgr.Close(ctx, "app-feat-auth")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWorktreeDirty, errors.GetCode(err))

	// The worktree survives a refused close
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestCloseRefusesUnpushedCommits(t *testing.T) {
	mgr, _, _ := newRemoteManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, CreateOptions{BranchName: "feature/auth", FolderName: "app-feat-auth"})
	require.NoError(t, err)

	path := mgr.WorktreePath("app-feat-auth")
	testutil.CommitFile(t, path, "auth.go", "package auth\n", "add auth")

	_, err = mgr.Close(ctx, "app-feat-auth")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnpushedCommits, errors.GetCode(err))
}

func TestCloseRefusesWhenBaseUnresolvable(t *testing.T) {
	// No remote at all: neither upstream nor base branch can be determined.
	// Deleting in this state could lose commits, so close must refuse.
	mgr, _, _ := newLocalManager(t)
	ctx := context.Background()

	_, err := mgr.Create(ctx, CreateOptions{BranchName: "feature/auth", FolderName: "app-feat-auth"})
	require.NoError(t, err)

	_, err = mgr.Close(ctx, "app-feat-auth")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBaseUnresolved, errors.GetCode(err))
	assert.True(t, errors.IsValidation(err))

	_, statErr := os.Stat(mgr.WorktreePath("app-feat-auth"))
	assert.NoError(t, statErr)
}

func TestOpenRefusesWhenAlreadyOpen(t *testing.T) {
	mgr, _, _ := newLocalManager(t)
	ctx := context.Background()

	created, err := mgr.Create(ctx, CreateOptions{BranchName: "feature/auth", FolderName: "app-feat-auth"})
	require.NoError(t, err)

	_, err = mgr.Open(ctx, "app-feat-auth", terminal.LocationTab, false, false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlreadyOpen, errors.GetCode(err))

	// force overrides the refusal
	opened, err := mgr.Open(ctx, "app-feat-auth", terminal.LocationTab, true, false)
	require.NoError(t, err)
	assert.True(t, opened.Success)
	assert.NotEqual(t, created.TabID, opened.TabID)

	// Pane splits never refuse
	_, err = mgr.Open(ctx, "app-feat-auth", terminal.LocationPaneBelow, false, false)
	assert.NoError(t, err)
}

func TestOpenMissingWorktree(t *testing.T) {
	mgr, _, _ := newLocalManager(t)

	_, err := mgr.Open(context.Background(), "nope", terminal.LocationTab, false, false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWorktreeMissing, errors.GetCode(err))
}

func TestSwitchTo(t *testing.T) {
	mgr, backend, _ := newLocalManager(t)
	ctx := context.Background()

	created, err := mgr.Create(ctx, CreateOptions{BranchName: "feature/auth", FolderName: "app-feat-auth"})
	require.NoError(t, err)

	// Path lookup
	result, err := mgr.SwitchTo(ctx, "app-feat-auth", "")
	require.NoError(t, err)
	assert.Equal(t, created.TabID, result.TabID)
	assert.Contains(t, backend.SelectedTabs, created.TabID)

	// Explicit tab id is verified before switching
	_, err = mgr.SwitchTo(ctx, "app-feat-auth", "@404")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.GetCode(err))
}
