package main

import (
	"os"
	"runtime"

	"github.com/grovetools/arbor/cli"
	"github.com/grovetools/arbor/cmd"
	"github.com/grovetools/arbor/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"arbor",
		"Parallel git worktrees with terminal session routing",
	)
	rootCmd.Long = `Arbor pairs git worktrees with terminal sessions: create a worktree in
its own tab, hand it to an assistant, get notified in the session that
created it when the work is done, and auto-merge when the change is safe.`

	rootCmd.Version = version.Version
	cli.SetVersionTemplate(rootCmd, cli.VersionInfo{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		BuildArch: runtime.GOARCH,
	})

	// Add subcommands
	rootCmd.AddCommand(cmd.NewCreateCmd())
	rootCmd.AddCommand(cmd.NewCloseCmd())
	rootCmd.AddCommand(cmd.NewListCmd())
	rootCmd.AddCommand(cmd.NewOpenCmd())
	rootCmd.AddCommand(cmd.NewSwitchCmd())
	rootCmd.AddCommand(cmd.NewNotifyCmd())
	rootCmd.AddCommand(cmd.NewAnalyzeCmd())
	rootCmd.AddCommand(cmd.NewSchemaCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
