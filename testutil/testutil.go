// Package testutil provides shared helpers for tests that exercise real git
// repositories.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Git runs a git command in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, output)
	return string(output)
}

// InitGitRepo initializes a git repository with one commit in the given directory.
func InitGitRepo(t *testing.T, dir string) {
	t.Helper()

	Git(t, dir, "init", "-b", "main")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "config", "user.email", "test@example.com")

	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# Test Project\n"), 0644))

	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-m", "Initial commit")
}

// InitRemoteClone creates a bare origin with the given default branch and a
// clone of it, returning (originPath, clonePath). The clone's origin/HEAD
// symbolic ref points at the default branch.
func InitRemoteClone(t *testing.T, root, defaultBranch string) (string, string) {
	t.Helper()

	origin := filepath.Join(root, "origin.git")
	require.NoError(t, os.MkdirAll(origin, 0755))
	Git(t, origin, "init", "--bare", "-b", defaultBranch)

	seed := filepath.Join(root, "seed")
	require.NoError(t, os.MkdirAll(seed, 0755))
	Git(t, seed, "init", "-b", defaultBranch)
	Git(t, seed, "config", "user.name", "Test User")
	Git(t, seed, "config", "user.email", "test@example.com")
	require.NoError(t, os.WriteFile(filepath.Join(seed, "README.md"), []byte("# Seed\n"), 0644))
	Git(t, seed, "add", ".")
	Git(t, seed, "commit", "-m", "Initial commit")
	Git(t, seed, "remote", "add", "origin", origin)
	Git(t, seed, "push", "-u", "origin", defaultBranch)

	clone := filepath.Join(root, "clone")
	Git(t, root, "clone", origin, clone)
	Git(t, clone, "config", "user.name", "Test User")
	Git(t, clone, "config", "user.email", "test@example.com")
	Git(t, clone, "remote", "set-head", "origin", defaultBranch)

	return origin, clone
}

// CommitFile writes content to name in dir and commits it.
func CommitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	Git(t, dir, "add", name)
	Git(t, dir, "commit", "-m", message)
}
