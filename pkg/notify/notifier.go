package notify

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/arbor/logging"
	"github.com/grovetools/arbor/pkg/locator"
	"github.com/grovetools/arbor/pkg/sessions"
	"github.com/grovetools/arbor/pkg/terminal"
)

// Route names how a notification reached its target, most precise first.
type Route string

const (
	RouteCreatorSession  Route = "creator_session"
	RouteCreatorTab      Route = "creator_tab"
	RouteParentDirectory Route = "parent_directory"
	RouteMainWorktree    Route = "main_worktree"
	RouteNone            Route = "none"
)

// DeliveryResult reports where a notification landed.
type DeliveryResult struct {
	Delivered bool   `json:"delivered"`
	Route     Route  `json:"route"`
	TabID     string `json:"tab_id,omitempty"`
	Message   string `json:"message"`
}

// Notifier routes notification lines back to the session that created the
// worktree. Precision first: the creator's live session by id, then its
// recorded tab. Only when neither resolves does it fall back to any session
// rooted at the repository's parent directory (or the main working copy),
// which cannot distinguish between concurrent creators.
type Notifier struct {
	backend   terminal.Backend
	locator   *locator.Locator
	store     *sessions.Store
	repoDir   string
	parentDir string
	log       *logrus.Entry
}

// NewNotifier wires a Notifier for the repository rooted at repoDir.
func NewNotifier(repoDir string, backend terminal.Backend, store *sessions.Store) *Notifier {
	return &Notifier{
		backend:   backend,
		locator:   locator.New(backend),
		store:     store,
		repoDir:   repoDir,
		parentDir: filepath.Dir(repoDir),
		log:       logging.NewLogger("notify"),
	}
}

// Deliver sends the message into the best-matching terminal session. A
// failed send on one tier degrades to the next; exhausting every tier
// reports non-delivery, not an error.
func (n *Notifier) Deliver(ctx context.Context, msg Message) DeliveryResult {
	line := Format(msg)

	if mapping, ok := n.store.Get(msg.WorktreeName); ok {
		if session, found := n.locator.FindBySessionID(ctx, mapping.CreatorSessionID); found {
			if err := n.backend.SendText(ctx, session.TabID, line); err == nil {
				return DeliveryResult{
					Delivered: true,
					Route:     RouteCreatorSession,
					TabID:     session.TabID,
					Message:   "delivered to creator session " + mapping.CreatorSessionID,
				}
			}
		}

		if mapping.CreatorTabID != "" && n.locator.Exists(ctx, mapping.CreatorTabID) {
			if err := n.backend.SendText(ctx, mapping.CreatorTabID, line); err == nil {
				return DeliveryResult{
					Delivered: true,
					Route:     RouteCreatorTab,
					TabID:     mapping.CreatorTabID,
					Message:   "delivered to recorded creator tab",
				}
			}
		}
	}

	if session, found := n.locator.FindByWorkingDirectory(ctx, n.parentDir); found {
		if err := n.backend.SendText(ctx, session.TabID, line); err == nil {
			return DeliveryResult{
				Delivered: true,
				Route:     RouteParentDirectory,
				TabID:     session.TabID,
				Message:   "delivered to a session in the parent directory",
			}
		}
	}

	if session, found := n.locator.FindByWorkingDirectory(ctx, n.repoDir); found {
		if err := n.backend.SendText(ctx, session.TabID, line); err == nil {
			return DeliveryResult{
				Delivered: true,
				Route:     RouteMainWorktree,
				TabID:     session.TabID,
				Message:   "delivered to a session in the main working copy",
			}
		}
	}

	n.log.Warnf("no target session found for worktree '%s'", msg.WorktreeName)
	return DeliveryResult{
		Delivered: false,
		Route:     RouteNone,
		Message:   "no target session found",
	}
}
