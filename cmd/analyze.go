package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
	"github.com/grovetools/arbor/pkg/analyze"
)

// NewAnalyzeCmd creates the `analyze` command
func NewAnalyzeCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"analyze <worktree-name>",
		"Analyze a worktree's changes and report merge readiness",
	)
	cmd.Long = `Inspect a worktree's diff against its base, run its test suite through
the probe ladder, run the quality checks that apply to its languages,
and print a merge recommendation. Nothing is merged or removed.`
	cmd.Example = `  arbor analyze app-feat-auth
  arbor analyze app-feat-auth --json`
	cmd.Args = cobra.ExactArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return handleError(cmd, err)
		}

		analyzer := analyze.New(app.gateway)
		report, err := analyzer.Analyze(cmd.Context(), app.manager.WorktreePath(args[0]), args[0])
		if err != nil {
			return handleError(cmd, err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			return printJSON(report)
		}

		printReport(report)
		return nil
	}

	return cmd
}

func printReport(report *analyze.Report) {
	fmt.Printf("Worktree: %s\n", report.WorktreeName)
	fmt.Printf("Changed files: %d\n", len(report.ChangedFiles))
	if report.DiffStat != "" {
		fmt.Println(strings.TrimRight(report.DiffStat, "\n"))
	}

	switch report.Tests.Status {
	case analyze.TestsPassed:
		fmt.Printf("Tests: passed (%s)\n", report.Tests.Command)
	case analyze.TestsFailed:
		fmt.Printf("Tests: FAILED (%s)\n", report.Tests.Command)
	default:
		fmt.Println("Tests: none found")
	}

	for _, check := range report.Quality.Checks {
		status := "ok"
		if !check.Passed {
			status = "FAILED"
		}
		fmt.Printf("Quality: %s %s (%s)\n", check.Tool, status, check.Command)
	}

	fmt.Printf("Recommendation: %s\n", report.Recommendation)
	if report.Recommendation.Mergeable() {
		fmt.Println("This branch is clear for auto-merge.")
	}
}
