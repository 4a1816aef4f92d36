// Package worktree orchestrates the create/validate/close lifecycle of
// worktrees, combining the VCS gateway, the session directory, and the
// terminal session locator.
package worktree

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/arbor/command"
	"github.com/grovetools/arbor/config"
	"github.com/grovetools/arbor/errors"
	"github.com/grovetools/arbor/git"
	"github.com/grovetools/arbor/logging"
	"github.com/grovetools/arbor/pkg/assistant"
	"github.com/grovetools/arbor/pkg/locator"
	"github.com/grovetools/arbor/pkg/sessions"
	"github.com/grovetools/arbor/pkg/terminal"
)

// Manager drives one repository's worktrees. repoDir is the main working
// copy; worktrees live as siblings in its parent directory.
type Manager struct {
	repoDir   string
	parentDir string

	gateway  *git.Gateway
	backend  terminal.Backend
	locator  *locator.Locator
	store    *sessions.Store
	resolver *sessions.Resolver
	builder  *command.SafeBuilder
	cfg      *config.Config
	log      *logrus.Entry
}

// NewManager wires a Manager for the repository rooted at repoDir.
func NewManager(repoDir string, gateway *git.Gateway, backend terminal.Backend, resolver *sessions.Resolver, cfg *config.Config) *Manager {
	parentDir := filepath.Dir(repoDir)
	return &Manager{
		repoDir:   repoDir,
		parentDir: parentDir,
		gateway:   gateway,
		backend:   backend,
		locator:   locator.New(backend),
		store:     sessions.NewStore(parentDir),
		resolver:  resolver,
		builder:   command.NewSafeBuilder(),
		cfg:       cfg,
		log:       logging.NewLogger("worktree"),
	}
}

// Store exposes the session directory for listing enrichment and routing.
func (m *Manager) Store() *sessions.Store {
	return m.store
}

// WorktreePath returns where a worktree with the given folder name lives.
func (m *Manager) WorktreePath(folder string) string {
	return filepath.Join(m.parentDir, folder)
}

// CreateOptions carries the create operation's inputs.
type CreateOptions struct {
	BranchName      string
	FolderName      string
	TaskDescription string
	StartAssistant  bool
	OpenLocation    terminal.Location
	SwitchBack      bool
}

// CreateResult reports the outcome. AutomationError is set on mixed success:
// the worktree exists but the terminal automation step failed; the worktree
// is never rolled back in that case.
type CreateResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	WorktreeFolder  string `json:"worktree_folder"`
	BranchName      string `json:"branch_name"`
	TabID           string `json:"tab_id,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	AutomationError string `json:"automation_error,omitempty"`
}

// Create validates preconditions in order (repository, branch free, folder
// free; first failure wins, no mutation before all pass), creates the
// worktree, registers the creator session, and opens a terminal session in
// the new worktree.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*CreateResult, error) {
	if opts.OpenLocation == "" {
		opts.OpenLocation = terminal.LocationTab
	}
	if !opts.OpenLocation.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown open location '%s'", opts.OpenLocation))
	}
	if err := m.builder.Validate("worktreeName", opts.FolderName); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid worktree folder name")
	}
	if err := m.builder.Validate("gitRef", opts.BranchName); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid branch name")
	}

	if !m.gateway.IsRepository(ctx, m.repoDir) {
		return nil, errors.NotARepository(m.repoDir)
	}
	if m.gateway.BranchExists(ctx, m.repoDir, opts.BranchName) {
		return nil, errors.BranchExists(opts.BranchName)
	}
	path := m.WorktreePath(opts.FolderName)
	if _, err := os.Stat(path); err == nil {
		return nil, errors.FolderExists(opts.FolderName)
	}

	if err := m.gateway.CreateWorktree(ctx, m.repoDir, opts.BranchName, path); err != nil {
		return nil, err
	}

	sessionID := m.registerCreator(ctx, opts.FolderName)

	result := &CreateResult{
		Success:        true,
		WorktreeFolder: opts.FolderName,
		BranchName:     opts.BranchName,
		SessionID:      sessionID,
		Message:        fmt.Sprintf("worktree '%s' created on branch '%s'", opts.FolderName, opts.BranchName),
	}

	session, err := m.openSession(ctx, opts.OpenLocation, opts.FolderName, path)
	if err != nil {
		result.AutomationError = err.Error()
		result.Message += "; terminal automation failed, open a session manually"
		m.log.Warnf("worktree '%s' created but automation failed: %v", opts.FolderName, err)
		return result, nil
	}
	result.TabID = session.TabID

	if opts.StartAssistant {
		launch := assistant.BuildCommand(m.cfg.Assistant, sessionID, opts.TaskDescription)
		if err := m.backend.SendText(ctx, session.TabID, launch); err != nil {
			result.AutomationError = err.Error()
			result.Message += "; could not start the assistant"
			return result, nil
		}
	}

	if opts.SwitchBack && !opts.OpenLocation.IsPane() {
		m.switchBackToCreator(ctx, opts.FolderName)
	}

	return result, nil
}

// registerCreator resolves the current session's identity, minting a fresh
// id when no strategy succeeds, and stamps it onto the creator session
// (session variable, marker file, persisted mapping). All of this is
// best-effort: registration failure never fails the create.
func (m *Manager) registerCreator(ctx context.Context, folderName string) string {
	resolution := m.resolver.Resolve(ctx)
	sessionID := resolution.SessionID
	if !resolution.Success {
		sessionID = sessions.MintSessionID()
		m.log.Debugf("no session id resolved, minted %s", sessionID)
	}

	creatorTab := ""
	creatorDir := ""
	if current, err := m.backend.CurrentSession(ctx); err == nil {
		creatorTab = current.TabID
		creatorDir = current.WorkingDir
		if err := m.backend.SetSessionVariable(ctx, current.TabID, terminal.SessionIDVariable, sessionID); err != nil {
			m.log.Debugf("could not stamp session variable: %v", err)
		}
	}
	if creatorDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			creatorDir = cwd
		}
	}

	if creatorDir != "" {
		if err := sessions.WriteMarker(creatorDir, sessionID); err != nil {
			m.log.Warnf("could not write session marker in %s: %v", creatorDir, err)
		}
	}

	m.store.Save(sessions.Mapping{
		WorktreeName:      folderName,
		CreatorSessionID:  sessionID,
		CreatedAt:         time.Now().UTC(),
		CreatorTabID:      creatorTab,
		CreatorWorkingDir: creatorDir,
	})

	return sessionID
}

func (m *Manager) openSession(ctx context.Context, location terminal.Location, name, path string) (terminal.Session, error) {
	switch location {
	case terminal.LocationWindow:
		return m.backend.CreateWindow(ctx, name, path)
	case terminal.LocationPaneRight:
		return m.backend.SplitPane(ctx, terminal.SplitRight, path)
	case terminal.LocationPaneBelow:
		return m.backend.SplitPane(ctx, terminal.SplitBelow, path)
	default:
		return m.backend.CreateTab(ctx, path)
	}
}

// switchBackToCreator refocuses the tab recorded for the creator session.
// Best-effort; losing focus is not worth failing the operation.
func (m *Manager) switchBackToCreator(ctx context.Context, folderName string) {
	mapping, ok := m.store.Get(folderName)
	if !ok || mapping.CreatorTabID == "" {
		return
	}
	if err := m.backend.SelectTab(ctx, mapping.CreatorTabID); err != nil {
		m.log.Debugf("switch back to %s failed: %v", mapping.CreatorTabID, err)
	}
}

// CloseResult reports a close. BranchDeleted and TabClosed are independent
// sub-results; either failing does not revert the worktree removal.
type CloseResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	BranchDeleted bool   `json:"branch_deleted"`
	TabClosed     bool   `json:"tab_closed"`
}

// Close validates that the worktree is safe to discard, then removes it.
// Preconditions, in order: the worktree path exists; the working tree is
// clean; every commit is pushed to the upstream, or, with no upstream, the
// branch is not ahead of the inferred base. An unresolvable base is a hard
// validation failure: a branch whose unpushed commits cannot be counted is
// never silently discarded.
func (m *Manager) Close(ctx context.Context, worktreeName string) (*CloseResult, error) {
	path := m.WorktreePath(worktreeName)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WorktreeMissing(worktreeName)
	}

	clean, err := m.gateway.IsClean(ctx, path)
	if err != nil {
		return nil, err
	}
	if !clean {
		status, _ := m.gateway.StatusPorcelain(ctx, path)
		return nil, errors.WorktreeDirty(worktreeName, status)
	}

	unpushed, err := m.gateway.UnpushedCommitCount(ctx, path)
	if err != nil {
		if stderrors.Is(err, git.ErrBaseUnresolved) {
			return nil, errors.BaseUnresolved(worktreeName)
		}
		return nil, err
	}
	if unpushed > 0 {
		return nil, errors.UnpushedCommits(worktreeName, unpushed)
	}

	return m.teardown(ctx, worktreeName, path)
}

// Teardown runs the close-style teardown without Close's safety
// preconditions. The auto-merge path calls it right after landing a branch,
// when the merge itself already proved the commits are preserved.
func (m *Manager) Teardown(ctx context.Context, worktreeName string) (*CloseResult, error) {
	path := m.WorktreePath(worktreeName)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WorktreeMissing(worktreeName)
	}
	return m.teardown(ctx, worktreeName, path)
}

// teardown is the destructive tail shared by Close and the auto-merge path.
// Worktree removal is the single point of no return; branch deletion and
// tab closure are attempted independently afterwards and recorded in the
// result, never blocking each other.
func (m *Manager) teardown(ctx context.Context, worktreeName, path string) (*CloseResult, error) {
	branch, err := m.gateway.CurrentBranch(ctx, path)
	if err != nil {
		return nil, err
	}

	// An empty branch (zero commits ahead of base) is throwaway; mark it so
	// it does not linger after the worktree goes away.
	deleteBranch := false
	if base, baseErr := m.gateway.BaseBranch(ctx, path); baseErr == nil {
		if ahead, aheadErr := m.gateway.AheadOfBaseCount(ctx, path, base); aheadErr == nil && ahead == 0 {
			deleteBranch = true
		}
	}

	tab, tabFound := m.locator.FindByWorkingDirectory(ctx, path)

	if err := m.gateway.RemoveWorktree(ctx, m.repoDir, path); err != nil {
		return nil, err
	}

	result := &CloseResult{
		Success: true,
		Message: fmt.Sprintf("worktree '%s' removed", worktreeName),
	}

	if deleteBranch && branch != "" {
		if err := m.gateway.DeleteBranch(ctx, m.repoDir, branch, true); err != nil {
			m.log.Warnf("could not delete branch '%s': %v", branch, err)
			result.Message += fmt.Sprintf("; branch '%s' could not be deleted", branch)
		} else {
			result.BranchDeleted = true
		}
	}

	if tabFound {
		if err := m.locator.Close(ctx, tab.TabID); err != nil {
			m.log.Warnf("could not close tab %s: %v", tab.TabID, err)
			result.Message += "; its tab could not be closed"
		} else {
			result.TabClosed = true
		}
	}

	m.store.Remove(worktreeName)

	return result, nil
}

// OpenResult reports an open or switch operation.
type OpenResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TabID   string `json:"tab_id,omitempty"`
}

// Open opens a new terminal session rooted at an existing worktree. When the
// target is a full tab or window and live sessions already sit in the
// worktree, it refuses with the matches unless force is set. Pane splits
// always proceed. No assistant is started.
func (m *Manager) Open(ctx context.Context, worktreeName string, location terminal.Location, force, switchBack bool) (*OpenResult, error) {
	if location == "" {
		location = terminal.LocationTab
	}
	if !location.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown open location '%s'", location))
	}

	path := m.WorktreePath(worktreeName)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WorktreeMissing(worktreeName)
	}

	if !location.IsPane() && !force {
		if matches := m.locator.FindAllByWorkingDirectory(ctx, path); len(matches) > 0 {
			tabIDs := make([]string, len(matches))
			for i, t := range matches {
				tabIDs[i] = t.TabID
			}
			return nil, errors.AlreadyOpen(worktreeName, tabIDs)
		}
	}

	session, err := m.openSession(ctx, location, worktreeName, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBackendUnavailable, "could not open a terminal session")
	}

	if switchBack && !location.IsPane() {
		m.switchBackToCreator(ctx, worktreeName)
	}

	return &OpenResult{
		Success: true,
		Message: fmt.Sprintf("opened '%s' in %s", worktreeName, location),
		TabID:   session.TabID,
	}, nil
}

// SwitchTo focuses a session showing the worktree. An explicit tab id is
// verified to still exist before switching; otherwise the target is resolved
// by path lookup.
func (m *Manager) SwitchTo(ctx context.Context, worktreeName, explicitTabID string) (*OpenResult, error) {
	tabID := explicitTabID
	if tabID != "" {
		if !m.locator.Exists(ctx, tabID) {
			return nil, errors.New(errors.ErrCodeSessionNotFound,
				fmt.Sprintf("tab '%s' no longer exists", tabID)).
				WithDetail("tabId", tabID)
		}
	} else {
		path := m.WorktreePath(worktreeName)
		session, found := m.locator.FindByWorkingDirectory(ctx, path)
		if !found {
			return nil, errors.New(errors.ErrCodeSessionNotFound,
				fmt.Sprintf("no open session found for worktree '%s'", worktreeName)).
				WithDetail("worktree", worktreeName)
		}
		tabID = session.TabID
	}

	if err := m.backend.SelectTab(ctx, tabID); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSessionNotFound,
			fmt.Sprintf("could not switch to tab '%s'", tabID))
	}

	return &OpenResult{
		Success: true,
		Message: fmt.Sprintf("switched to worktree '%s'", worktreeName),
		TabID:   tabID,
	}, nil
}

// Listing is one worktree enriched with its live sessions and creator.
type Listing struct {
	git.WorktreeRecord
	Tabs             []locator.TabInfo `json:"tabs"`
	CreatorSessionID string            `json:"creator_session_id,omitempty"`
}

// List returns every worktree of the repository, each enriched with its
// live tabs and recorded creator session. The main working copy itself is
// excluded.
func (m *Manager) List(ctx context.Context) ([]Listing, error) {
	records, err := m.gateway.ListWorktrees(ctx, m.repoDir)
	if err != nil {
		return nil, err
	}

	mainPath := normalize(m.repoDir)
	listings := make([]Listing, 0, len(records))
	for _, rec := range records {
		if normalize(rec.Path) == mainPath || rec.Bare {
			continue
		}

		listing := Listing{WorktreeRecord: rec}
		listing.Tabs = m.locator.FindAllByWorkingDirectory(ctx, rec.Path)
		if listing.Tabs == nil {
			listing.Tabs = []locator.TabInfo{}
		}
		if mapping, ok := m.store.Get(rec.Folder); ok {
			listing.CreatorSessionID = mapping.CreatorSessionID
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
