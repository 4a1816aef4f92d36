package errors

import (
	"fmt"
	"os/exec"
)

// BackendUnavailable creates an error for a missing terminal automation backend
func BackendUnavailable(backend string) *ArborError {
	return New(ErrCodeBackendUnavailable,
		fmt.Sprintf("terminal automation backend '%s' is not available", backend)).
		WithDetail("backend", backend)
}

// NotARepository creates a validation error for a directory outside any git repository
func NotARepository(dir string) *ArborError {
	return New(ErrCodeNotARepository, fmt.Sprintf("'%s' is not inside a git repository", dir)).
		WithDetail("dir", dir)
}

// BranchExists creates a validation error for an already-existing branch
func BranchExists(branch string) *ArborError {
	return New(ErrCodeBranchExists, fmt.Sprintf("branch '%s' already exists", branch)).
		WithDetail("branch", branch)
}

// FolderExists creates a validation error for an occupied worktree folder
func FolderExists(folder string) *ArborError {
	return New(ErrCodeFolderExists,
		fmt.Sprintf("folder '%s' already exists in the parent directory", folder)).
		WithDetail("folder", folder)
}

// WorktreeMissing creates a validation error for an unknown worktree
func WorktreeMissing(name string) *ArborError {
	return New(ErrCodeWorktreeMissing, fmt.Sprintf("worktree '%s' does not exist", name)).
		WithDetail("worktree", name)
}

// WorktreeDirty creates a validation error for uncommitted changes
func WorktreeDirty(name, status string) *ArborError {
	return New(ErrCodeWorktreeDirty,
		fmt.Sprintf("worktree '%s' has uncommitted changes", name)).
		WithDetail("worktree", name).
		WithDetail("status", status)
}

// UnpushedCommits creates a validation error for commits missing from the remote
func UnpushedCommits(name string, count int) *ArborError {
	return New(ErrCodeUnpushedCommits,
		fmt.Sprintf("worktree '%s' has %d unpushed commit(s); push before closing", name, count)).
		WithDetail("worktree", name).
		WithDetail("count", count)
}

// BaseUnresolved creates a validation error for an undeterminable base branch.
// Closing in this state could silently delete a branch whose commits cannot
// be verified as pushed, so the operation refuses instead.
func BaseUnresolved(name string) *ArborError {
	return New(ErrCodeBaseUnresolved,
		fmt.Sprintf("cannot determine the base branch for worktree '%s'; push the branch or set an upstream first", name)).
		WithDetail("worktree", name)
}

// AlreadyOpen creates a validation error for a worktree that already has live sessions
func AlreadyOpen(name string, tabIDs []string) *ArborError {
	return New(ErrCodeAlreadyOpen,
		fmt.Sprintf("worktree '%s' is already open; pass force to open another session", name)).
		WithDetail("worktree", name).
		WithDetail("tabs", tabIDs)
}

// VcsFailed wraps a git subprocess failure with its raw diagnostics
func VcsFailed(command string, err error, stderr string) *ArborError {
	arborErr := Wrap(err, ErrCodeVcsCommandFailed, fmt.Sprintf("git command failed: %s", command)).
		WithDetail("command", command).
		WithDetail("stderr", stderr)

	if exitErr, ok := err.(*exec.ExitError); ok {
		arborErr = arborErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return arborErr
}

// LocatorFailed creates an error for a failed tab closure
func LocatorFailed(tabID string, err error) *ArborError {
	return Wrap(err, ErrCodeLocatorFailed, fmt.Sprintf("could not close tab '%s'", tabID)).
		WithDetail("tabId", tabID)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *ArborError {
	arborErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	if exitErr, ok := err.(*exec.ExitError); ok {
		arborErr = arborErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return arborErr
}
