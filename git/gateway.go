// Package git wraps the git CLI behind a typed gateway. Expected negative
// outcomes (dirty tree, missing branch) come back as booleans and counts;
// unexpected non-zero exits surface as structured errors carrying the raw
// diagnostics.
package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/grovetools/arbor/command"
	"github.com/grovetools/arbor/errors"
)

// ErrNoUpstream reports that a branch has no remote-tracking branch.
var ErrNoUpstream = stderrors.New("no upstream configured")

// ErrBaseUnresolved reports that neither an upstream nor a base branch could
// be determined. Callers decide whether this blocks the operation.
var ErrBaseUnresolved = stderrors.New("base branch could not be determined")

// Gateway executes git subprocess calls for one repository tree.
type Gateway struct {
	cmdBuilder *command.SafeBuilder
}

// NewGateway creates a gateway backed by real subprocess execution.
func NewGateway() *Gateway {
	return &Gateway{cmdBuilder: command.NewSafeBuilder()}
}

// NewGatewayWithExecutor creates a gateway with an injected executor for tests.
func NewGatewayWithExecutor(exec command.Executor) *Gateway {
	return &Gateway{cmdBuilder: command.NewSafeBuilderWithExecutor(exec)}
}

// run executes git with args in dir and returns trimmed stdout. Non-zero
// exits become VCS errors with stderr attached.
func (g *Gateway) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd, err := g.cmdBuilder.Build(ctx, "git", args...)
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}

	execCmd := cmd.Exec()
	execCmd.Dir = dir

	output, err := execCmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return "", errors.VcsFailed("git "+strings.Join(args, " "), err, stderr)
	}

	return strings.TrimSpace(string(output)), nil
}

// exitZero runs git and reports only whether it exited successfully.
func (g *Gateway) exitZero(ctx context.Context, dir string, args ...string) bool {
	cmd, err := g.cmdBuilder.Build(ctx, "git", args...)
	if err != nil {
		return false
	}
	execCmd := cmd.Exec()
	execCmd.Dir = dir
	return execCmd.Run() == nil
}

// IsRepository checks whether dir is inside a git repository.
func (g *Gateway) IsRepository(ctx context.Context, dir string) bool {
	return g.exitZero(ctx, dir, "rev-parse", "--git-dir")
}

// RepositoryRoot returns the top-level directory of the working tree
// containing dir. Inside a linked worktree that is the worktree itself,
// not the main working copy; use MainWorktreeRoot for the latter.
func (g *Gateway) RepositoryRoot(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "rev-parse", "--show-toplevel")
}

// MainWorktreeRoot returns the main working copy's path, regardless of
// whether dir sits in the main copy or in a linked worktree. The first
// record of `git worktree list` is always the main working copy.
func (g *Gateway) MainWorktreeRoot(ctx context.Context, dir string) (string, error) {
	records, err := g.ListWorktrees(ctx, dir)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", errors.NotARepository(dir)
	}
	return records[0].Path, nil
}

// BranchExists checks whether a local branch with the given name exists.
func (g *Gateway) BranchExists(ctx context.Context, dir, name string) bool {
	out, err := g.run(ctx, dir, "branch", "--list", name)
	return err == nil && out != ""
}

// CurrentBranch returns the branch checked out at path.
func (g *Gateway) CurrentBranch(ctx context.Context, path string) (string, error) {
	return g.run(ctx, path, "branch", "--show-current")
}

// StatusPorcelain returns the machine-readable status of the tree at path.
func (g *Gateway) StatusPorcelain(ctx context.Context, path string) (string, error) {
	return g.run(ctx, path, "status", "--porcelain")
}

// IsClean reports whether the tree at path has no tracked or untracked changes.
func (g *Gateway) IsClean(ctx context.Context, path string) (bool, error) {
	out, err := g.StatusPorcelain(ctx, path)
	if err != nil {
		return false, err
	}
	return out == "", nil
}

// HasUpstream reports whether the branch at path has a remote-tracking branch.
func (g *Gateway) HasUpstream(ctx context.Context, path string) bool {
	return g.exitZero(ctx, path, "rev-parse", "--abbrev-ref", "@{u}")
}

// DeleteBranch deletes a local branch. force uses -D, which discards commits
// not reachable elsewhere; callers gate this on the branch being merged or empty.
func (g *Gateway) DeleteBranch(ctx context.Context, dir, name string, force bool) error {
	if err := g.cmdBuilder.Validate("gitRef", name); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid branch name")
	}

	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := g.run(ctx, dir, "branch", flag, name)
	return err
}

// UnpushedCommitCount counts commits on HEAD that the upstream does not have.
// Without an upstream it counts commits ahead of the inferred base branch;
// without a resolvable base it returns ErrBaseUnresolved.
func (g *Gateway) UnpushedCommitCount(ctx context.Context, path string) (int, error) {
	if g.HasUpstream(ctx, path) {
		return g.revCount(ctx, path, "@{u}..HEAD")
	}

	base, err := g.BaseBranch(ctx, path)
	if err != nil {
		return 0, err
	}
	return g.revCount(ctx, path, fmt.Sprintf("origin/%s..HEAD", base))
}

// AheadOfBaseCount counts commits on HEAD not reachable from origin/<base>.
func (g *Gateway) AheadOfBaseCount(ctx context.Context, path, base string) (int, error) {
	return g.revCount(ctx, path, fmt.Sprintf("origin/%s..HEAD", base))
}

func (g *Gateway) revCount(ctx context.Context, path, rangeSpec string) (int, error) {
	out, err := g.run(ctx, path, "rev-list", "--count", rangeSpec)
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parse rev-list count %q: %w", out, err)
	}
	return count, nil
}

// BaseBranch infers the repository's base branch: the remote's symbolic
// default ref first, then origin/main, then origin/master.
func (g *Gateway) BaseBranch(ctx context.Context, path string) (string, error) {
	out, err := g.run(ctx, path, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err == nil && out != "" {
		parts := strings.Split(out, "/")
		return parts[len(parts)-1], nil
	}

	for _, branch := range []string{"main", "master"} {
		if g.exitZero(ctx, path, "rev-parse", "--verify", "origin/"+branch) {
			return branch, nil
		}
	}

	return "", ErrBaseUnresolved
}

// DiffStat returns the stat summary of the latest commit's changes. A repo
// with a single commit has no HEAD~1; that case yields an empty summary.
func (g *Gateway) DiffStat(ctx context.Context, path string) (string, error) {
	out, err := g.run(ctx, path, "diff", "--stat", "HEAD~1..HEAD")
	if err != nil {
		if errors.Is(err, errors.ErrCodeVcsCommandFailed) {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// ChangedFiles returns the files touched by the latest commit.
func (g *Gateway) ChangedFiles(ctx context.Context, path string) ([]string, error) {
	out, err := g.run(ctx, path, "diff", "--name-only", "HEAD~1..HEAD")
	if err != nil {
		if errors.Is(err, errors.ErrCodeVcsCommandFailed) {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
