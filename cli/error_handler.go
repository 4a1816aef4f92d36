package cli

import (
	"fmt"
	"os"

	"github.com/grovetools/arbor/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeBackendUnavailable:
		fmt.Fprintf(os.Stderr, "❌ No terminal automation backend available. Arbor needs tmux on PATH.\n")
		return err

	case errors.ErrCodeNotARepository:
		fmt.Fprintf(os.Stderr, "❌ Not inside a git repository. Run arbor from the main working copy.\n")
		return err

	case errors.ErrCodeBranchExists:
		if arborErr, ok := err.(*errors.ArborError); ok {
			fmt.Fprintf(os.Stderr, "❌ Branch '%s' already exists\n", arborErr.Details["branch"])
			fmt.Fprintf(os.Stderr, "Pick a different branch name or delete the existing branch first.\n")
		}
		return err

	case errors.ErrCodeFolderExists:
		if arborErr, ok := err.(*errors.ArborError); ok {
			fmt.Fprintf(os.Stderr, "❌ Folder '%s' already exists in the parent directory\n", arborErr.Details["folder"])
		}
		return err

	case errors.ErrCodeWorktreeMissing:
		if arborErr, ok := err.(*errors.ArborError); ok {
			fmt.Fprintf(os.Stderr, "❌ Worktree '%s' does not exist\n", arborErr.Details["worktree"])
			fmt.Fprintf(os.Stderr, "Run 'arbor list' to see active worktrees.\n")
		}
		return err

	case errors.ErrCodeWorktreeDirty:
		if arborErr, ok := err.(*errors.ArborError); ok {
			fmt.Fprintf(os.Stderr, "❌ Worktree '%s' has uncommitted changes\n", arborErr.Details["worktree"])
			fmt.Fprintf(os.Stderr, "Commit or stash them before closing.\n")
		}
		return err

	case errors.ErrCodeUnpushedCommits:
		if arborErr, ok := err.(*errors.ArborError); ok {
			fmt.Fprintf(os.Stderr, "❌ Worktree '%s' has %v unpushed commit(s)\n",
				arborErr.Details["worktree"], arborErr.Details["count"])
			fmt.Fprintf(os.Stderr, "Push the branch before closing.\n")
		}
		return err

	case errors.ErrCodeBaseUnresolved:
		fmt.Fprintf(os.Stderr, "❌ Cannot determine the base branch, so unpushed commits cannot be counted.\n")
		fmt.Fprintf(os.Stderr, "Push the branch or configure an upstream before closing.\n")
		return err

	case errors.ErrCodeAlreadyOpen:
		if arborErr, ok := err.(*errors.ArborError); ok {
			fmt.Fprintf(os.Stderr, "❌ Worktree '%s' already has open sessions: %v\n",
				arborErr.Details["worktree"], arborErr.Details["tabs"])
			fmt.Fprintf(os.Stderr, "Pass --force to open another one anyway.\n")
		}
		return err

	case errors.ErrCodeVcsCommandFailed:
		if arborErr, ok := err.(*errors.ArborError); ok {
			fmt.Fprintf(os.Stderr, "❌ Git command failed: %s\n", arborErr.Details["command"])
			if stderr, ok := arborErr.Details["stderr"].(string); ok && stderr != "" {
				fmt.Fprintf(os.Stderr, "%s\n", stderr)
			}
		}
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if arborErr, ok := err.(*errors.ArborError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", arborErr.ToJSON())
			}
		}
		return err
	}
}
