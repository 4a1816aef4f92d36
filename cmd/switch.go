package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
)

// NewSwitchCmd creates the `switch` command
func NewSwitchCmd() *cobra.Command {
	var tabID string

	cmd := cli.NewStandardCommand(
		"switch <worktree-name>",
		"Focus a terminal session showing a worktree",
	)
	cmd.Long = `Switch terminal focus to a session rooted in the given worktree. With
--tab, the specific tab is verified to still exist and focused directly;
otherwise the first session whose working directory matches is used.`
	cmd.Example = `  arbor switch app-feat-auth
  arbor switch app-feat-auth --tab @3`
	cmd.Args = cobra.ExactArgs(1)

	cmd.Flags().StringVar(&tabID, "tab", "", "Focus this exact tab id instead of resolving by path")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return handleError(cmd, err)
		}

		result, err := app.manager.SwitchTo(cmd.Context(), args[0], tabID)
		if err != nil {
			return handleError(cmd, err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			return printJSON(result)
		}

		fmt.Printf("✅ %s\n", result.Message)
		return nil
	}

	return cmd
}
