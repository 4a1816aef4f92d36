// Package tmux implements the terminal automation backend on top of a tmux
// server. The mapping is: tab = tmux window, window = tmux session,
// pane = tmux pane. Tab ids are tmux window ids ("@1"), window ids are
// session names, pane ids are tmux pane ids ("%3").
package tmux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/grovetools/arbor/command"
	"github.com/grovetools/arbor/errors"
	"github.com/grovetools/arbor/pkg/terminal"
)

// Backend drives a tmux server through the safe command layer.
type Backend struct {
	builder *command.SafeBuilder
	socket  string // dedicated server socket (-L flag), empty for the default
}

// NewBackend returns a Backend for the default tmux server, or for the
// isolated server named by ARBOR_TMUX_SOCKET when tests set it.
func NewBackend(cap terminal.Capability) (*Backend, error) {
	if !cap.Available {
		return nil, errors.BackendUnavailable("tmux").WithDetail("reason", cap.Reason)
	}
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, errors.BackendUnavailable("tmux").WithDetail("reason", "tmux command not found in PATH")
	}

	socket := ""
	if testSocket := os.Getenv("ARBOR_TMUX_SOCKET"); testSocket != "" {
		socket = testSocket
	}

	return &Backend{
		builder: command.NewSafeBuilder(),
		socket:  socket,
	}, nil
}

// NewBackendWithSocket returns a Backend bound to a dedicated server socket,
// isolated from the user's default tmux server.
func NewBackendWithSocket(socket string) (*Backend, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, errors.BackendUnavailable("tmux").WithDetail("reason", "tmux command not found in PATH")
	}
	return &Backend{
		builder: command.NewSafeBuilder(),
		socket:  socket,
	}, nil
}

// Socket returns the socket name this backend uses, or empty for the default.
func (b *Backend) Socket() string {
	return b.socket
}

func (b *Backend) run(ctx context.Context, args ...string) (string, error) {
	if b.socket != "" {
		args = append([]string{"-L", b.socket}, args...)
	}

	cmd, err := b.builder.Build(ctx, "tmux", args...)
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}

	execCmd := cmd.Exec()
	output, err := execCmd.CombinedOutput()
	if err != nil {
		cmdStr := "tmux " + strings.Join(args, " ")
		return string(output), fmt.Errorf("tmux command failed: `%s`: %w, output: %s", cmdStr, err, string(output))
	}

	return string(output), nil
}

// CreateTab opens a new tmux window rooted at workingDir.
func (b *Backend) CreateTab(ctx context.Context, workingDir string) (terminal.Session, error) {
	output, err := b.run(ctx, "new-window", "-P", "-F", "#{window_id}|#{session_name}", "-c", workingDir)
	if err != nil {
		return terminal.Session{}, err
	}
	return parseHandle(output, workingDir)
}

// CreateWindow opens a new tmux session rooted at workingDir.
func (b *Backend) CreateWindow(ctx context.Context, name, workingDir string) (terminal.Session, error) {
	args := []string{"new-session", "-d", "-P", "-F", "#{window_id}|#{session_name}", "-c", workingDir}
	if name != "" {
		args = append(args, "-s", name)
	}
	output, err := b.run(ctx, args...)
	if err != nil {
		return terminal.Session{}, err
	}
	return parseHandle(output, workingDir)
}

// SplitPane splits the current pane. SplitRight produces side-by-side panes
// (tmux -h), SplitBelow stacks them.
func (b *Backend) SplitPane(ctx context.Context, direction terminal.SplitDirection, workingDir string) (terminal.Session, error) {
	args := []string{"split-window", "-P", "-F", "#{pane_id}|#{session_name}", "-c", workingDir}
	if direction == terminal.SplitRight {
		args = append(args, "-h")
	}
	output, err := b.run(ctx, args...)
	if err != nil {
		return terminal.Session{}, err
	}
	return parseHandle(output, workingDir)
}

func parseHandle(output, workingDir string) (terminal.Session, error) {
	parts := strings.SplitN(strings.TrimSpace(output), "|", 2)
	if len(parts) != 2 {
		return terminal.Session{}, fmt.Errorf("unexpected tmux handle output: %q", output)
	}
	return terminal.Session{
		TabID:      parts[0],
		WindowID:   parts[1],
		WorkingDir: workingDir,
	}, nil
}

// SendText types text into the target followed by Enter.
func (b *Backend) SendText(ctx context.Context, target, text string) error {
	_, err := b.run(ctx, "send-keys", "-t", target, text, "C-m")
	return err
}

// WorkingDirectory reports the current path of the target's active pane.
func (b *Backend) WorkingDirectory(ctx context.Context, target string) (string, error) {
	output, err := b.run(ctx, "display-message", "-p", "-t", target, "#{pane_current_path}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// CloseTab kills the tmux window with the given id.
func (b *Backend) CloseTab(ctx context.Context, tabID string) error {
	_, err := b.run(ctx, "kill-window", "-t", tabID)
	return err
}

// SelectTab focuses the window with the given id, switching the attached
// client to its session first so cross-session switches land.
func (b *Backend) SelectTab(ctx context.Context, tabID string) error {
	// switch-client fails when no client is attached; selecting the window
	// is still worthwhile so the next attach lands there.
	if _, err := b.run(ctx, "switch-client", "-t", tabID); err != nil {
		if !strings.Contains(err.Error(), "no current client") {
			return err
		}
	}
	_, err := b.run(ctx, "select-window", "-t", tabID)
	return err
}

// CurrentSession returns the handle of the session this process runs in.
func (b *Backend) CurrentSession(ctx context.Context) (terminal.Session, error) {
	output, err := b.run(ctx, "display-message", "-p", "#{window_id}|#{session_name}|#{pane_current_path}")
	if err != nil {
		return terminal.Session{}, err
	}
	parts := strings.SplitN(strings.TrimSpace(output), "|", 3)
	if len(parts) != 3 {
		return terminal.Session{}, fmt.Errorf("unexpected tmux handle output: %q", output)
	}
	return terminal.Session{TabID: parts[0], WindowID: parts[1], WorkingDir: parts[2]}, nil
}

// SessionVariable reads a session-scoped environment variable from the
// target's session. An unset variable returns empty, not an error.
func (b *Backend) SessionVariable(ctx context.Context, target, name string) (string, error) {
	output, err := b.run(ctx, "show-environment", "-t", target, name)
	if err != nil {
		// tmux exits 1 for unknown variables
		if strings.Contains(output, "unknown variable") {
			return "", nil
		}
		return "", err
	}

	line := strings.TrimSpace(output)
	if strings.HasPrefix(line, "-") {
		// "-NAME" marks a variable removed from the session environment
		return "", nil
	}
	if idx := strings.Index(line, "="); idx >= 0 {
		return line[idx+1:], nil
	}
	return "", nil
}

// SetSessionVariable stores a session-scoped environment variable on the
// target's session.
func (b *Backend) SetSessionVariable(ctx context.Context, target, name, value string) error {
	_, err := b.run(ctx, "set-environment", "-t", target, name, value)
	return err
}

// ListSessions enumerates every window across all tmux sessions, one handle
// per window carrying its active pane's working directory. A missing server
// yields an empty list.
func (b *Backend) ListSessions(ctx context.Context) ([]terminal.Session, error) {
	output, err := b.run(ctx, "list-windows", "-a", "-F", "#{window_id}|#{session_name}|#{pane_current_path}")
	if err != nil {
		if strings.Contains(err.Error(), "no server running") || strings.Contains(err.Error(), "exit status 1") {
			return []terminal.Session{}, nil
		}
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	sessions := make([]terminal.Session, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue
		}
		sessions = append(sessions, terminal.Session{
			TabID:      parts[0],
			WindowID:   parts[1],
			WorkingDir: parts[2],
		})
	}
	return sessions, nil
}
