// Package analyze inspects a worktree's diff, test, and lint signal and
// emits a merge recommendation.
package analyze

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/arbor/errors"
	"github.com/grovetools/arbor/git"
	"github.com/grovetools/arbor/logging"
)

// Recommendation is the analyzer's verdict on merging a worktree's branch.
type Recommendation string

const (
	RecommendationSafe         Recommendation = "safe"
	RecommendationBlocked      Recommendation = "blocked"
	RecommendationCaution      Recommendation = "caution"
	RecommendationRecommended  Recommendation = "recommended"
	RecommendationManualReview Recommendation = "manual_review"
)

// Mergeable reports whether the recommendation clears auto-merge.
func (r Recommendation) Mergeable() bool {
	return r == RecommendationSafe || r == RecommendationRecommended
}

// TestStatus describes the outcome of the test probe ladder.
type TestStatus string

const (
	TestsPassed   TestStatus = "passed"
	TestsFailed   TestStatus = "failed"
	TestsNotFound TestStatus = "no_tests_found"
)

// TestResult records which test command ran and how it exited.
type TestResult struct {
	Status  TestStatus `json:"status"`
	Command string     `json:"command,omitempty"`
	Output  string     `json:"output,omitempty"`
}

// QualityCheck is one linter/formatter/type-checker run.
type QualityCheck struct {
	Tool    string `json:"tool"`
	Command string `json:"command"`
	Passed  bool   `json:"passed"`
	Output  string `json:"output,omitempty"`
}

// QualityResult aggregates the applicable quality checks. An empty Checks
// slice means no check was applicable to the worktree's languages.
type QualityResult struct {
	Checks []QualityCheck `json:"checks"`
}

// Report is the full analysis of one worktree.
type Report struct {
	WorktreeName   string         `json:"worktree_name"`
	DiffStat       string         `json:"diff_stat"`
	ChangedFiles   []string       `json:"changed_files"`
	Tests          TestResult     `json:"tests"`
	Quality        QualityResult  `json:"quality"`
	Recommendation Recommendation `json:"recommendation"`
}

// Recommend applies the decision table. Precedence is exact: test signal
// dominates, and the three no-tests cases are mutually exclusive refinements.
func Recommend(tests TestResult, quality QualityResult) Recommendation {
	switch tests.Status {
	case TestsPassed:
		return RecommendationSafe
	case TestsFailed:
		return RecommendationBlocked
	}

	if len(quality.Checks) == 0 {
		return RecommendationCaution
	}
	for _, check := range quality.Checks {
		if !check.Passed {
			return RecommendationManualReview
		}
	}
	return RecommendationRecommended
}

// Analyzer runs the probes against a worktree.
type Analyzer struct {
	gateway *git.Gateway
	runner  Runner
	log     *logrus.Entry

	// TestTimeout bounds each test probe; QualityTimeout each quality check.
	TestTimeout    time.Duration
	QualityTimeout time.Duration
}

// New returns an Analyzer executing real subprocesses.
func New(gateway *git.Gateway) *Analyzer {
	return NewWithRunner(gateway, newExecRunner())
}

// NewWithRunner returns an Analyzer with an injected runner, for tests.
func NewWithRunner(gateway *git.Gateway, runner Runner) *Analyzer {
	return &Analyzer{
		gateway:        gateway,
		runner:         runner,
		log:            logging.NewLogger("analyze"),
		TestTimeout:    5 * time.Minute,
		QualityTimeout: time.Minute,
	}
}

// Analyze inspects the worktree at path and produces a report.
func (a *Analyzer) Analyze(ctx context.Context, path, worktreeName string) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WorktreeMissing(worktreeName)
	}

	diffStat, err := a.gateway.DiffStat(ctx, path)
	if err != nil {
		return nil, err
	}
	changedFiles, err := a.gateway.ChangedFiles(ctx, path)
	if err != nil {
		return nil, err
	}

	tests := a.runTests(ctx, path)
	quality := a.runQualityChecks(ctx, path)

	return &Report{
		WorktreeName:   worktreeName,
		DiffStat:       diffStat,
		ChangedFiles:   changedFiles,
		Tests:          tests,
		Quality:        quality,
		Recommendation: Recommend(tests, quality),
	}, nil
}

// runTests walks the probe ladder in order and uses the first command that
// actually spawns, regardless of its exit code. A command that cannot spawn
// or times out means "try the next one", never a fatal analysis error.
func (a *Analyzer) runTests(ctx context.Context, path string) TestResult {
	for _, probe := range testProbes {
		res := a.runner.Run(ctx, path, probe, a.TestTimeout)
		if !res.Spawned || res.TimedOut {
			continue
		}

		status := TestsFailed
		if res.ExitCode == 0 {
			status = TestsPassed
		}
		return TestResult{
			Status:  status,
			Command: joinArgv(probe),
			Output:  res.Output,
		}
	}
	return TestResult{Status: TestsNotFound}
}

// runQualityChecks runs every applicable check and records individual
// pass/fail. Checks that cannot spawn or time out are dropped silently.
func (a *Analyzer) runQualityChecks(ctx context.Context, path string) QualityResult {
	result := QualityResult{Checks: []QualityCheck{}}
	for _, probe := range qualityProbes(path) {
		res := a.runner.Run(ctx, path, probe.argv, a.QualityTimeout)
		if !res.Spawned || res.TimedOut {
			a.log.Debugf("quality check %s skipped", probe.tool)
			continue
		}
		result.Checks = append(result.Checks, QualityCheck{
			Tool:    probe.tool,
			Command: joinArgv(probe.argv),
			Passed:  res.ExitCode == 0,
			Output:  res.Output,
		})
	}
	return result
}
