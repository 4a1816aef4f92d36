// Package sessions persists the mapping between worktrees and the terminal
// sessions that created them, and resolves the current session's identity.
package sessions

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/grovetools/arbor/logging"
	"github.com/sirupsen/logrus"
)

// MappingFileName is the per-repository-parent store of creator mappings.
const MappingFileName = ".arbor-session-mappings.json"

// Mapping records which session created a worktree. One entry per worktree,
// keyed by worktree folder name; mutated only by full replacement.
type Mapping struct {
	WorktreeName      string    `json:"worktree_name"`
	CreatorSessionID  string    `json:"creator_session_id"`
	CreatedAt         time.Time `json:"created_at"`
	CreatorTabID      string    `json:"creator_tab_id,omitempty"`
	CreatorWorkingDir string    `json:"creator_working_dir"`
}

// Store reads and writes the mapping file in the parent directory of the
// managed repository. Writes are load-merge-save; there is no file locking,
// so concurrent writers race with last-write-wins (single-operator cadence
// makes this acceptable).
type Store struct {
	path string
	log  *logrus.Entry
}

// NewStore returns a Store for the repository whose parent directory is
// parentDir.
func NewStore(parentDir string) *Store {
	return &Store{
		path: filepath.Join(parentDir, MappingFileName),
		log:  logging.NewLogger("sessions"),
	}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() map[string]Mapping {
	mappings := make(map[string]Mapping)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("could not read session mappings from %s: %v", s.path, err)
		}
		return mappings
	}

	if err := json.Unmarshal(data, &mappings); err != nil {
		s.log.Warnf("session mapping file %s is corrupt, starting fresh: %v", s.path, err)
		return make(map[string]Mapping)
	}
	return mappings
}

func (s *Store) write(mappings map[string]Mapping) bool {
	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		s.log.Warnf("could not encode session mappings: %v", err)
		return false
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.log.Warnf("could not write session mappings to %s: %v", s.path, err)
		return false
	}
	return true
}

// Save stores the mapping, replacing any existing entry for the same
// worktree. Unrelated entries are preserved: the file is always loaded,
// merged, and rewritten, never constructed from scratch. Returns false on
// I/O failure; persistence is best-effort and never aborts the caller.
func (s *Store) Save(m Mapping) bool {
	mappings := s.load()
	mappings[m.WorktreeName] = m
	return s.write(mappings)
}

// Get returns the mapping for a worktree. A missing key means "no known
// creator", not an error.
func (s *Store) Get(worktreeName string) (Mapping, bool) {
	mappings := s.load()
	m, ok := mappings[worktreeName]
	return m, ok
}

// Remove deletes the entry for a worktree. Returns true when the entry
// existed and the file was rewritten.
func (s *Store) Remove(worktreeName string) bool {
	mappings := s.load()
	if _, ok := mappings[worktreeName]; !ok {
		return false
	}
	delete(mappings, worktreeName)
	return s.write(mappings)
}

// All returns every stored mapping, for listing enrichment.
func (s *Store) All() map[string]Mapping {
	return s.load()
}
