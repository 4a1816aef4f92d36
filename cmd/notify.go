package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
	"github.com/grovetools/arbor/errors"
	"github.com/grovetools/arbor/pkg/analyze"
	"github.com/grovetools/arbor/pkg/automerge"
	"github.com/grovetools/arbor/pkg/notify"
)

// NewNotifyCmd creates the `notify` command
func NewNotifyCmd() *cobra.Command {
	var (
		kind      string
		autoMerge bool
	)

	cmd := cli.NewStandardCommand(
		"notify <worktree-name> <summary>",
		"Notify the creating session that work in a worktree finished",
	)
	cmd.Long = `Send a completion or merge-ready notification from a worktree back to
the session that created it. Routing tries the recorded creator session
first, then its recorded tab, then any session in the parent directory,
then the main working copy.

For completion notifications, auto-merge analyzes the worktree and, when
the verdict is safe or recommended, merges the branch into the base and
tears the worktree down. Pass --auto-merge=false to only notify.`
	cmd.Example = `  # Report completion and let arbor merge if it is safe
  arbor notify app-feat-auth "login flow implemented, tests pass"

  # Only deliver the message, no merge
  arbor notify app-feat-auth "ready for review" --auto-merge=false

  # Ask for a manual merge instead
  arbor notify app-feat-auth "schema change, review carefully" --type merge_ready`
	cmd.Args = cobra.ExactArgs(2)

	cmd.Flags().StringVar(&kind, "type", string(notify.KindComplete),
		"Notification type: complete or merge_ready")
	cmd.Flags().BoolVar(&autoMerge, "auto-merge", true,
		"Attempt an automatic merge after a completion notification")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		worktreeName, summary := args[0], args[1]

		msgKind := notify.Kind(kind)
		if msgKind != notify.KindComplete && msgKind != notify.KindMergeReady {
			return handleError(cmd, errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("unknown notification type '%s'", kind)))
		}

		app, err := newApp(cmd)
		if err != nil {
			return handleError(cmd, err)
		}
		ctx := cmd.Context()

		notifier := notify.NewNotifier(app.repoDir, app.backend, app.manager.Store())
		delivery := notifier.Deliver(ctx, notify.Message{
			Kind:         msgKind,
			WorktreeName: worktreeName,
			Summary:      summary,
		})

		var mergeResult *automerge.Result
		if msgKind == notify.KindComplete && autoMerge {
			orchestrator := automerge.New(app.repoDir, analyze.New(app.gateway), app.gateway, app.manager, app.cfg)
			mergeResult, err = orchestrator.HandleCompletion(ctx, worktreeName, summary)
			if err != nil {
				return handleError(cmd, err)
			}
		}

		if cli.GetOptions(cmd).JSONOutput {
			out := map[string]interface{}{"notification": delivery}
			if mergeResult != nil {
				out["auto_merge"] = mergeResult
			}
			return printJSON(out)
		}

		if delivery.Delivered {
			fmt.Printf("✅ Notified %s via %s (tab %s)\n", worktreeName, delivery.Route, delivery.TabID)
		} else {
			fmt.Printf("⚠️  No session could be reached for '%s'\n", worktreeName)
		}

		if mergeResult != nil {
			if mergeResult.Merged {
				fmt.Printf("✅ %s\n", mergeResult.Message)
			} else {
				fmt.Printf("ℹ️  Not merged: %s\n", mergeResult.Message)
			}
		}
		return nil
	}

	return cmd
}
