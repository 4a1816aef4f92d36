package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
	"github.com/grovetools/arbor/pkg/terminal"
)

// NewOpenCmd creates the `open` command
func NewOpenCmd() *cobra.Command {
	var (
		location   string
		force      bool
		switchBack bool
	)

	cmd := cli.NewStandardCommand(
		"open <worktree-name>",
		"Open a terminal session in an existing worktree",
	)
	cmd.Long = `Open a new terminal session rooted at an existing worktree. When the
worktree already has open sessions, a tab or window target refuses
unless --force is given; pane splits always proceed. No assistant is
started.`
	cmd.Example = `  arbor open app-feat-auth
  arbor open app-feat-auth --location new_pane_right
  arbor open app-feat-auth --force --switch-back`
	cmd.Args = cobra.ExactArgs(1)

	cmd.Flags().StringVar(&location, "location", string(terminal.LocationTab),
		"Where to open the session: new_tab, new_window, new_pane_right, new_pane_below")
	cmd.Flags().BoolVar(&force, "force", false, "Open even when sessions already show this worktree")
	cmd.Flags().BoolVar(&switchBack, "switch-back", false, "Return focus to the creating session afterwards")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return handleError(cmd, err)
		}

		result, err := app.manager.Open(cmd.Context(), args[0], terminal.Location(location), force, switchBack)
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
