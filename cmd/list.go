package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
	"github.com/grovetools/arbor/pkg/worktree"
)

// Styles for worktree display
var (
	listHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginTop(1).
		MarginBottom(0)

	listPathStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	listBranchStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("33")).
		Bold(true)

	listTabStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("34"))

	listNoTabStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("208"))

	listBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		MarginLeft(2)
)

// NewListCmd creates the `list` command
func NewListCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"list",
		"Show active worktrees with their sessions and creators",
	)
	cmd.Long = `Display every worktree of the current repository along with its branch,
any open terminal sessions showing it, and the session that created it.
The main working copy itself is not listed.`

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return handleError(cmd, err)
		}

		listings, err := app.manager.List(cmd.Context())
		if err != nil {
			return handleError(cmd, err)
		}

		sort.Slice(listings, func(i, j int) bool {
			return listings[i].Folder < listings[j].Folder
		})

		if cli.GetOptions(cmd).JSONOutput {
			return printJSON(map[string]interface{}{
				"worktrees":   listings,
				"total_count": len(listings),
			})
		}

		if len(listings) == 0 {
			fmt.Println("No active worktrees.")
			return nil
		}

		for _, listing := range listings {
			fmt.Println(listHeaderStyle.Render(listing.Folder))

			var lines []string
			lines = append(lines, fmt.Sprintf("%s %s",
				listBranchStyle.Render(listing.Branch),
				listPathStyle.Render(listing.Path)))
			lines = append(lines, formatTabsLine(listing))
			if listing.CreatorSessionID != "" {
				lines = append(lines, listPathStyle.Render("creator: "+listing.CreatorSessionID))
			}

			fmt.Println(listBoxStyle.Render(strings.Join(lines, "\n")))
		}
		fmt.Printf("\n%d worktree(s)\n", len(listings))
		return nil
	}

	return cmd
}

func formatTabsLine(listing worktree.Listing) string {
	if len(listing.Tabs) == 0 {
		return listNoTabStyle.Render("no open sessions")
	}

	parts := make([]string, len(listing.Tabs))
	for i, tab := range listing.Tabs {
		label := tab.TabID
		if tab.IsCurrentWindow {
			label += " (current)"
		}
		parts[i] = label
	}
	return listTabStyle.Render("tabs: " + strings.Join(parts, ", "))
}
