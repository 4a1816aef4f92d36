// Package locator finds live terminal sessions by working directory, session
// id, or tab id. Lookups are soft: a single session's failing attribute read
// is skipped, and a fully unreachable backend yields empty results rather
// than errors, because sessions legitimately come and go.
package locator

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/arbor/errors"
	"github.com/grovetools/arbor/logging"
	"github.com/grovetools/arbor/pkg/sessions"
	"github.com/grovetools/arbor/pkg/terminal"
)

// TabInfo describes one live tab matched by a lookup.
type TabInfo struct {
	TabID           string `json:"tab_id"`
	WindowID        string `json:"window_id"`
	IsCurrentWindow bool   `json:"is_current_window"`
	StillExists     bool   `json:"still_exists"`
}

// Locator scans sessions through the automation backend.
type Locator struct {
	backend terminal.Backend
	log     *logrus.Entry
}

// New returns a Locator over the given backend.
func New(backend terminal.Backend) *Locator {
	return &Locator{
		backend: backend,
		log:     logging.NewLogger("locator"),
	}
}

// normalizePath resolves a path for exact-match comparison. Symlink
// resolution is best-effort; a path that cannot be resolved still compares
// in its cleaned absolute form.
func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// listSessions enumerates sessions, filling in missing working directories
// per session. Per-session failures are skipped; an unreachable backend
// yields an empty slice.
func (l *Locator) listSessions(ctx context.Context) []terminal.Session {
	all, err := l.backend.ListSessions(ctx)
	if err != nil {
		l.log.Debugf("backend enumeration failed: %v", err)
		return nil
	}

	result := make([]terminal.Session, 0, len(all))
	for _, s := range all {
		if s.WorkingDir == "" {
			dir, err := l.backend.WorkingDirectory(ctx, s.TabID)
			if err != nil {
				l.log.Debugf("skipping session %s: working directory lookup failed: %v", s.TabID, err)
				continue
			}
			s.WorkingDir = dir
		}
		result = append(result, s)
	}
	return result
}

// FindByWorkingDirectory returns the first session rooted at path, in
// backend enumeration order. Callers needing disambiguation should use
// FindAllByWorkingDirectory.
func (l *Locator) FindByWorkingDirectory(ctx context.Context, path string) (terminal.Session, bool) {
	target := normalizePath(path)
	for _, s := range l.listSessions(ctx) {
		if normalizePath(s.WorkingDir) == target {
			return s, true
		}
	}
	return terminal.Session{}, false
}

// FindAllByWorkingDirectory returns every session rooted at path.
func (l *Locator) FindAllByWorkingDirectory(ctx context.Context, path string) []TabInfo {
	target := normalizePath(path)

	currentWindow := ""
	if current, err := l.backend.CurrentSession(ctx); err == nil {
		currentWindow = current.WindowID
	}

	var tabs []TabInfo
	for _, s := range l.listSessions(ctx) {
		if normalizePath(s.WorkingDir) != target {
			continue
		}
		tabs = append(tabs, TabInfo{
			TabID:           s.TabID,
			WindowID:        s.WindowID,
			IsCurrentWindow: currentWindow != "" && s.WindowID == currentWindow,
			StillExists:     true,
		})
	}
	return tabs
}

// FindBySessionID returns the session carrying the given identity. Two-tier
// lookup per session: the session-scoped variable first, then the identity
// marker file in the session's working directory. The variable short-circuits
// when it matches.
func (l *Locator) FindBySessionID(ctx context.Context, sessionID string) (terminal.Session, bool) {
	if sessionID == "" {
		return terminal.Session{}, false
	}

	for _, s := range l.listSessions(ctx) {
		value, err := l.backend.SessionVariable(ctx, s.TabID, terminal.SessionIDVariable)
		if err != nil {
			l.log.Debugf("variable lookup failed for session %s: %v", s.TabID, err)
		} else if value == sessionID {
			return s, true
		}

		if marker, ok := sessions.ReadMarker(s.WorkingDir); ok && marker == sessionID {
			return s, true
		}
	}
	return terminal.Session{}, false
}

// Exists reports whether a tab with the given id is still open.
func (l *Locator) Exists(ctx context.Context, tabID string) bool {
	all, err := l.backend.ListSessions(ctx)
	if err != nil {
		return false
	}
	for _, s := range all {
		if s.TabID == tabID {
			return true
		}
	}
	return false
}

// Close closes the tab with the given id.
func (l *Locator) Close(ctx context.Context, tabID string) error {
	if err := l.backend.CloseTab(ctx, tabID); err != nil {
		return errors.LocatorFailed(tabID, err)
	}
	return nil
}
