package sessions

import (
	"os"
	"path/filepath"
	"strings"
)

// MarkerFileName is the per-directory session identity marker. It holds one
// line, the session id, and is written into the creator's working directory
// at worktree-creation time. The locator's file-fallback tier reads it when
// a session-scoped variable lookup comes up empty.
const MarkerFileName = ".arbor-session-id"

// WriteMarker stamps dir with the given session id.
func WriteMarker(dir, sessionID string) error {
	path := filepath.Join(dir, MarkerFileName)
	return os.WriteFile(path, []byte(sessionID+"\n"), 0644)
}

// ReadMarker returns the session id recorded in dir, or false when no marker
// exists or it is unreadable.
func ReadMarker(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFileName))
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", false
	}
	return id, true
}

// RemoveMarker deletes the marker in dir if present.
func RemoveMarker(dir string) {
	_ = os.Remove(filepath.Join(dir, MarkerFileName))
}
