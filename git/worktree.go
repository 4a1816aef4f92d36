package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/grovetools/arbor/errors"
)

// CreateWorktree adds a worktree at path on a new branch. The caller is
// expected to have validated branch and path availability already; a failure
// here still surfaces git's own diagnostics.
func (g *Gateway) CreateWorktree(ctx context.Context, dir, branch, path string) error {
	if err := g.cmdBuilder.Validate("gitRef", branch); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid branch name")
	}

	cmd, err := g.cmdBuilder.Build(ctx, "git", "worktree", "add", "-b", branch, path)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	execCmd := cmd.Exec()
	execCmd.Dir = dir

	output, err := execCmd.CombinedOutput()
	if err != nil {
		return errors.VcsFailed("git worktree add", err, strings.TrimSpace(string(output)))
	}

	return nil
}

// RemoveWorktree detaches the worktree at path from the repository.
func (g *Gateway) RemoveWorktree(ctx context.Context, dir, path string) error {
	cmd, err := g.cmdBuilder.Build(ctx, "git", "worktree", "remove", path)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	execCmd := cmd.Exec()
	execCmd.Dir = dir

	output, err := execCmd.CombinedOutput()
	if err != nil {
		return errors.VcsFailed("git worktree remove", err, strings.TrimSpace(string(output)))
	}

	return nil
}

// ListWorktrees returns all worktrees of the repository at dir.
func (g *Gateway) ListWorktrees(ctx context.Context, dir string) ([]WorktreeRecord, error) {
	cmd, err := g.cmdBuilder.Build(ctx, "git", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to build command: %w", err)
	}

	execCmd := cmd.Exec()
	execCmd.Dir = dir

	output, err := execCmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, errors.VcsFailed("git worktree list", err, stderr)
	}

	return ParseWorktreeList(string(output)), nil
}

// ParseWorktreeList parses `git worktree list --porcelain` output. Records
// are blank-line delimited; a record is only complete at a blank line or at
// end of stream.
func ParseWorktreeList(output string) []WorktreeRecord {
	var records []WorktreeRecord
	var current WorktreeRecord

	flush := func() {
		if current.Path != "" {
			current.Folder = filepath.Base(current.Path)
			current.Status = StateActive
			records = append(records, current)
		}
		current = WorktreeRecord{}
	}

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			flush()
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		switch parts[0] {
		case "worktree":
			if len(parts) == 2 {
				current.Path = parts[1]
			}
		case "HEAD":
			if len(parts) == 2 {
				current.Head = parts[1]
			}
		case "branch":
			if len(parts) == 2 {
				current.Branch = strings.TrimPrefix(parts[1], "refs/heads/")
			}
		case "bare":
			current.Bare = true
		}
	}
	flush()

	return records
}

// FindWorktree returns the record whose folder name matches, if any.
func (g *Gateway) FindWorktree(ctx context.Context, dir, folder string) (*WorktreeRecord, bool, error) {
	records, err := g.ListWorktrees(ctx, dir)
	if err != nil {
		return nil, false, err
	}
	for i := range records {
		if records[i].Folder == folder {
			return &records[i], true, nil
		}
	}
	return nil, false, nil
}
