package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
)

// NewCloseCmd creates the `close` command
func NewCloseCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"close <worktree-name>",
		"Close a worktree after verifying its work is preserved",
	)
	cmd.Long = `Remove a worktree, delete its branch if fully merged, and close its
terminal tab. Refuses when the working tree is dirty, when commits are
unpushed, or when unpushed commits cannot even be counted because no
base branch can be resolved.`
	cmd.Example = `  arbor close app-feat-auth`
	cmd.Args = cobra.ExactArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return handleError(cmd, err)
		}

		result, err := app.manager.Close(cmd.Context(), args[0])
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
