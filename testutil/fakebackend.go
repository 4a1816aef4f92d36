package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/grovetools/arbor/pkg/terminal"
)

// FakeBackend is an in-memory terminal.Backend for tests. State is
// scriptable: seed Sessions and Variables, flip Unreachable to simulate a
// missing server, and inspect SentText/ClosedTabs/SelectedTabs afterwards.
type FakeBackend struct {
	mu sync.Mutex

	Sessions  []terminal.Session
	Variables map[string]map[string]string // tab id -> variable -> value
	Current   terminal.Session

	// Unreachable makes every call fail, as if no server were running.
	Unreachable bool
	// FailWorkingDirFor simulates stale sessions whose attribute reads fail.
	FailWorkingDirFor map[string]bool
	// FailVariableFor simulates per-session variable lookup failures.
	FailVariableFor map[string]bool

	SentText     map[string][]string
	ClosedTabs   []string
	SelectedTabs []string

	nextTab  int
	nextWin  int
	nextPane int
}

// NewFakeBackend returns an empty, reachable backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Variables:         make(map[string]map[string]string),
		FailWorkingDirFor: make(map[string]bool),
		FailVariableFor:   make(map[string]bool),
		SentText:          make(map[string][]string),
	}
}

// AddSession seeds a live session and returns it.
func (f *FakeBackend) AddSession(tabID, windowID, workingDir string) terminal.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := terminal.Session{TabID: tabID, WindowID: windowID, WorkingDir: workingDir}
	f.Sessions = append(f.Sessions, s)
	return s
}

func (f *FakeBackend) unreachableErr() error {
	return fmt.Errorf("no server running")
}

func (f *FakeBackend) CreateTab(_ context.Context, workingDir string) (terminal.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return terminal.Session{}, f.unreachableErr()
	}
	f.nextTab++
	s := terminal.Session{
		TabID:      fmt.Sprintf("@%d", f.nextTab),
		WindowID:   f.Current.WindowID,
		WorkingDir: workingDir,
	}
	f.Sessions = append(f.Sessions, s)
	return s, nil
}

func (f *FakeBackend) CreateWindow(_ context.Context, name, workingDir string) (terminal.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return terminal.Session{}, f.unreachableErr()
	}
	f.nextTab++
	f.nextWin++
	windowID := name
	if windowID == "" {
		windowID = fmt.Sprintf("win%d", f.nextWin)
	}
	s := terminal.Session{
		TabID:      fmt.Sprintf("@%d", f.nextTab),
		WindowID:   windowID,
		WorkingDir: workingDir,
	}
	f.Sessions = append(f.Sessions, s)
	return s, nil
}

func (f *FakeBackend) SplitPane(_ context.Context, _ terminal.SplitDirection, workingDir string) (terminal.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return terminal.Session{}, f.unreachableErr()
	}
	f.nextPane++
	s := terminal.Session{
		TabID:      fmt.Sprintf("%%%d", f.nextPane),
		WindowID:   f.Current.WindowID,
		WorkingDir: workingDir,
	}
	f.Sessions = append(f.Sessions, s)
	return s, nil
}

func (f *FakeBackend) SendText(_ context.Context, target, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return f.unreachableErr()
	}
	f.SentText[target] = append(f.SentText[target], text)
	return nil
}

func (f *FakeBackend) WorkingDirectory(_ context.Context, target string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return "", f.unreachableErr()
	}
	if f.FailWorkingDirFor[target] {
		return "", fmt.Errorf("session %s not responding", target)
	}
	for _, s := range f.Sessions {
		if s.TabID == target {
			return s.WorkingDir, nil
		}
	}
	return "", fmt.Errorf("no such session: %s", target)
}

func (f *FakeBackend) CloseTab(_ context.Context, tabID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return f.unreachableErr()
	}
	for i, s := range f.Sessions {
		if s.TabID == tabID {
			f.Sessions = append(f.Sessions[:i], f.Sessions[i+1:]...)
			f.ClosedTabs = append(f.ClosedTabs, tabID)
			return nil
		}
	}
	return fmt.Errorf("no such tab: %s", tabID)
}

func (f *FakeBackend) SelectTab(_ context.Context, tabID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return f.unreachableErr()
	}
	f.SelectedTabs = append(f.SelectedTabs, tabID)
	return nil
}

func (f *FakeBackend) CurrentSession(_ context.Context) (terminal.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return terminal.Session{}, f.unreachableErr()
	}
	return f.Current, nil
}

func (f *FakeBackend) SessionVariable(_ context.Context, target, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return "", f.unreachableErr()
	}
	if f.FailVariableFor[target] {
		return "", fmt.Errorf("session %s not responding", target)
	}
	return f.Variables[target][name], nil
}

func (f *FakeBackend) SetSessionVariable(_ context.Context, target, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return f.unreachableErr()
	}
	if f.Variables[target] == nil {
		f.Variables[target] = make(map[string]string)
	}
	f.Variables[target][name] = value
	return nil
}

func (f *FakeBackend) ListSessions(_ context.Context) ([]terminal.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable {
		return nil, f.unreachableErr()
	}
	out := make([]terminal.Session, len(f.Sessions))
	copy(out, f.Sessions)
	return out, nil
}
