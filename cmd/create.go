package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
	"github.com/grovetools/arbor/pkg/terminal"
	"github.com/grovetools/arbor/pkg/worktree"
)

// NewCreateCmd creates the `create` command
func NewCreateCmd() *cobra.Command {
	var (
		description    string
		startAssistant bool
		location       string
		switchBack     bool
	)

	cmd := cli.NewStandardCommand(
		"create <branch-name> <folder-name>",
		"Create a worktree and open a terminal session in it",
	)
	cmd.Long = `Create a new git worktree as a sibling of the main working copy and open
a terminal session rooted in it. The session that runs this command is
recorded as the worktree's creator, so completion notifications route
back to it later.`
	cmd.Example = `  # New worktree on a fresh branch, opened in a new tab
  arbor create feature/auth app-feat-auth

  # Start the assistant with a task and keep focus here
  arbor create feature/auth app-feat-auth \
    --description "implement login flow" --start-assistant --switch-back

  # Open as a pane split instead of a tab
  arbor create fix/typo app-fix-typo --location new_pane_below`
	cmd.Args = cobra.ExactArgs(2)

	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description passed to the assistant")
	cmd.Flags().BoolVar(&startAssistant, "start-assistant", false, "Launch the assistant in the new session")
	cmd.Flags().StringVar(&location, "location", string(terminal.LocationTab),
		"Where to open the session: new_tab, new_window, new_pane_right, new_pane_below")
	cmd.Flags().BoolVar(&switchBack, "switch-back", false, "Return focus to the creating session afterwards")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return handleError(cmd, err)
		}

		result, err := app.manager.Create(cmd.Context(), worktree.CreateOptions{
			BranchName:      args[0],
			FolderName:      args[1],
			TaskDescription: description,
			StartAssistant:  startAssistant,
			OpenLocation:    terminal.Location(location),
			SwitchBack:      switchBack,
		})
		if err != nil {
			return handleError(cmd, err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			return printJSON(result)
		}

		fmt.Printf("✅ %s\n", result.Message)
		if result.TabID != "" {
			fmt.Printf("   Tab: %s\n", result.TabID)
		}
		if result.AutomationError != "" {
			fmt.Printf("⚠️  Terminal automation failed: %s\n", result.AutomationError)
			fmt.Printf("   The worktree was created; open it manually at %s\n",
				app.manager.WorktreePath(result.WorktreeFolder))
		}
		return nil
	}

	return cmd
}
