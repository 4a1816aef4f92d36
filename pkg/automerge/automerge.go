// Package automerge consumes the analyzer's recommendation and, when it is
// favorable, lands the worktree's branch on the base branch and tears the
// worktree down.
package automerge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/arbor/config"
	"github.com/grovetools/arbor/git"
	"github.com/grovetools/arbor/logging"
	"github.com/grovetools/arbor/pkg/analyze"
	"github.com/grovetools/arbor/pkg/worktree"
)

// Result reports an auto-merge attempt. When Merged is false the report and
// recommendation are returned for manual action; FailedStep is set only when
// a favorable recommendation's merge sequence broke partway.
type Result struct {
	Merged         bool                   `json:"merged"`
	Recommendation analyze.Recommendation `json:"recommendation"`
	Report         *analyze.Report        `json:"report,omitempty"`
	FailedStep     string                 `json:"failed_step,omitempty"`
	Message        string                 `json:"message"`
	Teardown       *worktree.CloseResult  `json:"teardown,omitempty"`
}

// Orchestrator runs the analyze-then-merge-then-teardown sequence.
type Orchestrator struct {
	repoDir  string
	analyzer *analyze.Analyzer
	gateway  *git.Gateway
	manager  *worktree.Manager
	cfg      *config.Config
	log      *logrus.Entry
}

// New wires an Orchestrator for the repository rooted at repoDir.
func New(repoDir string, analyzer *analyze.Analyzer, gateway *git.Gateway, manager *worktree.Manager, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		repoDir:  repoDir,
		analyzer: analyzer,
		gateway:  gateway,
		manager:  manager,
		cfg:      cfg,
		log:      logging.NewLogger("automerge"),
	}
}

// HandleCompletion analyzes the worktree and, on a safe or recommended
// verdict, merges its branch into the base in the main working copy and
// runs the close-style teardown. The first failing step aborts the rest;
// completed steps are never undone, so a merge that landed locally but
// failed to push is left for the operator to finish by hand.
func (o *Orchestrator) HandleCompletion(ctx context.Context, worktreeName, taskSummary string) (*Result, error) {
	path := o.manager.WorktreePath(worktreeName)

	report, err := o.analyzer.Analyze(ctx, path, worktreeName)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Recommendation: report.Recommendation,
		Report:         report,
	}

	if !report.Recommendation.Mergeable() {
		result.Message = fmt.Sprintf("recommendation is '%s'; not merging", report.Recommendation)
		return result, nil
	}

	feature, err := o.gateway.CurrentBranch(ctx, path)
	if err != nil {
		result.FailedStep = "resolve_branch"
		result.Message = err.Error()
		return result, nil
	}

	base := o.cfg.Worktree.BaseBranch
	if base == "" {
		base, err = o.gateway.BaseBranch(ctx, o.repoDir)
		if err != nil {
			result.FailedStep = "resolve_base"
			result.Message = err.Error()
			return result, nil
		}
	}

	message := fmt.Sprintf("Merge branch '%s' (worktree %s): %s", feature, worktreeName, taskSummary)
	if err := o.gateway.MergeBranch(ctx, o.repoDir, base, feature, message); err != nil {
		result.FailedStep = "merge"
		result.Message = err.Error()
		o.log.Warnf("merge of '%s' into '%s' failed: %v", feature, base, err)
		return result, nil
	}

	teardown, err := o.manager.Teardown(ctx, worktreeName)
	if err != nil {
		// The merge already landed; only the cleanup is outstanding
		result.Merged = true
		result.FailedStep = "teardown"
		result.Message = fmt.Sprintf("merged '%s' into '%s' but teardown failed: %v", feature, base, err)
		return result, nil
	}

	result.Merged = true
	result.Teardown = teardown
	result.Message = fmt.Sprintf("merged '%s' into '%s' and removed worktree '%s'", feature, base, worktreeName)
	return result, nil
}
