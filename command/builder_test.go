package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGitRef(t *testing.T) {
	sb := NewSafeBuilder()

	valid := []string{"main", "feature/add-auth", "v1.2.3", "release-2024_01", "origin/develop"}
	for _, ref := range valid {
		assert.NoError(t, sb.Validate("gitRef", ref), "ref %q should be valid", ref)
	}

	invalid := []string{"", "feat branch", "refs/../heads/main", "a;rm -rf", "branch$name"}
	for _, ref := range invalid {
		assert.Error(t, sb.Validate("gitRef", ref), "ref %q should be rejected", ref)
	}
}

func TestValidateWorktreeName(t *testing.T) {
	sb := NewSafeBuilder()

	assert.NoError(t, sb.Validate("worktreeName", "app-feat-auth"))
	assert.NoError(t, sb.Validate("worktreeName", "proj.worktree_2"))

	assert.Error(t, sb.Validate("worktreeName", ""))
	assert.Error(t, sb.Validate("worktreeName", "../escape"))
	assert.Error(t, sb.Validate("worktreeName", "nested/name"))
	assert.Error(t, sb.Validate("worktreeName", "-leading-dash"))
}

func TestValidateFileName(t *testing.T) {
	sb := NewSafeBuilder()

	assert.NoError(t, sb.Validate("fileName", "/tmp/project/worktree"))
	assert.Error(t, sb.Validate("fileName", "/tmp/../etc/passwd"))
	assert.Error(t, sb.Validate("fileName", "/tmp/a;whoami"))
}

func TestValidateUnknownType(t *testing.T) {
	sb := NewSafeBuilder()
	assert.Error(t, sb.Validate("nope", "value"))
}

func TestBuildRequiresName(t *testing.T) {
	sb := NewSafeBuilder()
	_, err := sb.Build(context.Background(), "")
	assert.Error(t, err)
}

func TestWithTimeoutCapsAtMax(t *testing.T) {
	sb := NewSafeBuilder()
	cmd, err := sb.Build(context.Background(), "git", "status")
	require.NoError(t, err)

	cmd = cmd.WithTimeout(30 * time.Minute)
	assert.Equal(t, MaxTimeout, cmd.timeout)
}

func TestExecBuildsCommand(t *testing.T) {
	sb := NewSafeBuilder()
	cmd, err := sb.Build(context.Background(), "git", "rev-parse", "--git-dir")
	require.NoError(t, err)

	execCmd := cmd.Exec()
	require.NotNil(t, execCmd)
	assert.Contains(t, execCmd.Path, "git")
	assert.Equal(t, []string{"git", "rev-parse", "--git-dir"}, execCmd.Args)
}
