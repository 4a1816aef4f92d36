package git

// WorktreeState describes where a worktree sits in its lifecycle.
type WorktreeState string

const (
	StateActive     WorktreeState = "active"
	StateDeveloping WorktreeState = "developing"
	StateReady      WorktreeState = "ready"
	StateMerged     WorktreeState = "merged"
)

// WorktreeRecord describes one entry of `git worktree list`. Records are
// derived fresh on every listing call and never persisted; folder names are
// unique by filesystem construction.
type WorktreeRecord struct {
	// Folder is the basename of Path and the name worktrees are addressed by.
	Folder string        `json:"folder"`
	Branch string        `json:"branch"`
	Path   string        `json:"path"`
	Head   string        `json:"head,omitempty"`
	Bare   bool          `json:"bare,omitempty"`
	Status WorktreeState `json:"status"`
}
