// Package cmd implements the arbor CLI surface. Each subcommand wires the
// gateway, backend, and manager through newApp and renders either styled
// text or JSON depending on the --json flag.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
	"github.com/grovetools/arbor/config"
	"github.com/grovetools/arbor/errors"
	"github.com/grovetools/arbor/git"
	"github.com/grovetools/arbor/pkg/sessions"
	"github.com/grovetools/arbor/pkg/terminal"
	"github.com/grovetools/arbor/pkg/tmux"
	"github.com/grovetools/arbor/pkg/worktree"
)

// app bundles the wired components every repository-scoped command needs.
type app struct {
	cfg     *config.Config
	gateway *git.Gateway
	backend terminal.Backend
	manager *worktree.Manager
	repoDir string
}

// newApp loads configuration, locates the repository from the working
// directory, and connects the terminal backend. Commands that only parse or
// print (schema, version) do not go through here.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	gateway := git.NewGateway()
	ctx := cmd.Context()
	if !gateway.IsRepository(ctx, cwd) {
		return nil, errors.NotARepository(cwd)
	}

	// Commands run from inside a worktree as much as from the main copy,
	// and merges, routing, and sibling paths all anchor on the main copy.
	repoDir, err := gateway.MainWorktreeRoot(ctx, cwd)
	if err != nil {
		return nil, err
	}

	backend, err := tmux.NewBackend(terminal.Detect())
	if err != nil {
		return nil, err
	}

	resolver := sessions.DefaultResolver(cfg)
	manager := worktree.NewManager(repoDir, gateway, backend, resolver, cfg)

	return &app{
		cfg:     cfg,
		gateway: gateway,
		backend: backend,
		manager: manager,
		repoDir: repoDir,
	}, nil
}

// printJSON renders a result struct as indented JSON on stdout.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// handleError routes an error through the friendly handler and keeps the
// cobra usage text out of error output.
func handleError(cmd *cobra.Command, err error) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	opts := cli.GetOptions(cmd)
	return cli.NewErrorHandler(opts.Verbose).Handle(err)
}
