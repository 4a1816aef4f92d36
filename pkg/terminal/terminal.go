// Package terminal defines the automation backend boundary. Arbor drives
// terminal tabs, windows, and panes only through the Backend interface; the
// one production implementation lives in pkg/tmux.
package terminal

import (
	"context"
	"os/exec"
)

// SplitDirection selects where a new pane opens relative to the current one.
type SplitDirection string

const (
	SplitRight SplitDirection = "right"
	SplitBelow SplitDirection = "below"
)

// Location names where a new session should open.
type Location string

const (
	LocationTab       Location = "new_tab"
	LocationWindow    Location = "new_window"
	LocationPaneRight Location = "new_pane_right"
	LocationPaneBelow Location = "new_pane_below"
)

// IsPane reports whether the location is a pane split rather than a full
// tab or window. Pane splits have no top-level focus target, so switch-back
// never applies to them.
func (l Location) IsPane() bool {
	return l == LocationPaneRight || l == LocationPaneBelow
}

// Valid reports whether l is one of the recognized locations.
func (l Location) Valid() bool {
	switch l {
	case LocationTab, LocationWindow, LocationPaneRight, LocationPaneBelow:
		return true
	}
	return false
}

// SessionIDVariable is the session-scoped variable that carries a session's
// identity. Stamped at worktree-creation time, read back by the locator.
const SessionIDVariable = "ARBOR_SESSION_ID"

// Session is a handle to one terminal session. TabID identifies the tab the
// session lives in, WindowID the containing top-level window. For pane
// splits, TabID is the pane's own identifier.
type Session struct {
	TabID      string `json:"tab_id"`
	WindowID   string `json:"window_id"`
	WorkingDir string `json:"working_dir,omitempty"`
}

// Backend is the terminal automation capability Arbor consumes. All methods
// return an error when the backend rejects the request; callers that can
// degrade gracefully (the locator) are responsible for doing so.
type Backend interface {
	// CreateTab opens a new tab rooted at workingDir and returns its handle.
	CreateTab(ctx context.Context, workingDir string) (Session, error)
	// CreateWindow opens a new top-level window rooted at workingDir.
	CreateWindow(ctx context.Context, name, workingDir string) (Session, error)
	// SplitPane splits the current pane in the given direction.
	SplitPane(ctx context.Context, direction SplitDirection, workingDir string) (Session, error)
	// SendText types text into the target session followed by a newline.
	SendText(ctx context.Context, target, text string) error
	// WorkingDirectory reports the target session's current directory.
	WorkingDirectory(ctx context.Context, target string) (string, error)
	// CloseTab closes the tab with the given id.
	CloseTab(ctx context.Context, tabID string) error
	// SelectTab focuses the tab with the given id.
	SelectTab(ctx context.Context, tabID string) error
	// CurrentSession returns the handle of the session running this process.
	CurrentSession(ctx context.Context) (Session, error)
	// SessionVariable reads a session-scoped variable from the target.
	SessionVariable(ctx context.Context, target, name string) (string, error)
	// SetSessionVariable stores a session-scoped variable on the target.
	SetSessionVariable(ctx context.Context, target, name, value string) error
	// ListSessions enumerates every open session across all windows.
	ListSessions(ctx context.Context) ([]Session, error)
}

// Capability is the result of the one-time backend probe. It is computed at
// process start and passed into constructors; components never re-probe.
type Capability struct {
	Available bool
	Reason    string
}

// Detect probes for a usable automation backend. Currently this means a tmux
// binary on PATH; whether a server is actually running is discovered on first
// use, since tmux starts one on demand.
func Detect() Capability {
	if _, err := exec.LookPath("tmux"); err != nil {
		return Capability{Available: false, Reason: "tmux not found in PATH"}
	}
	return Capability{Available: true}
}
