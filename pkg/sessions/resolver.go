package sessions

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/arbor/command"
	"github.com/grovetools/arbor/config"
	"github.com/grovetools/arbor/logging"
	"github.com/grovetools/arbor/pkg/process"
)

// Source identifies which strategy produced a session id.
type Source string

const (
	SourceExplicitConfig Source = "explicit_config"
	SourceProcessScan    Source = "process_tree_scan"
	SourceEnvironment    Source = "environment_heuristic"
	SourceNone           Source = "none"
)

// Resolution is the outcome of attempting to identify the current session.
type Resolution struct {
	SessionID string `json:"session_id,omitempty"`
	Source    Source `json:"source"`
	Success   bool   `json:"success"`
}

// Strategy is one way of discovering the current session id. Strategies are
// best-effort: a false return means "try the next one".
type Strategy interface {
	Source() Source
	Resolve(ctx context.Context) (string, bool)
}

// Resolver runs strategies in registration order and returns the first hit.
// Explicit configuration is authoritative and must be registered first; the
// inference strategies are trust-ranked fallbacks. A platform without
// process introspection simply registers fewer strategies.
type Resolver struct {
	strategies []Strategy
	log        *logrus.Entry
}

// NewResolver builds a resolver over the given strategies, in order.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		log:        logging.NewLogger("sessions"),
	}
}

// DefaultResolver wires the standard chain: explicit config, process-table
// scan, environment heuristic.
func DefaultResolver(cfg *config.Config) *Resolver {
	return NewResolver(
		&ExplicitConfigStrategy{SessionID: cfg.Assistant.SessionID},
		NewProcessScanStrategy(),
		&EnvironmentStrategy{},
	)
}

// Resolve returns the first successful strategy's id. When every strategy
// misses, the resolution carries SourceNone and Success=false.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	for _, s := range r.strategies {
		if id, ok := s.Resolve(ctx); ok {
			r.log.Debugf("session id resolved via %s", s.Source())
			return Resolution{SessionID: id, Source: s.Source(), Success: true}
		}
	}
	return Resolution{Source: SourceNone, Success: false}
}

// MintSessionID generates a fresh session id for sessions that register
// without one. The caller is expected to stamp it onto the live session
// (variable and marker file) so later lookups can find it.
func MintSessionID() string {
	return uuid.NewString()
}

// ExplicitConfigStrategy returns a configured session id verbatim.
type ExplicitConfigStrategy struct {
	SessionID string
}

func (s *ExplicitConfigStrategy) Source() Source { return SourceExplicitConfig }

func (s *ExplicitConfigStrategy) Resolve(_ context.Context) (string, bool) {
	if s.SessionID == "" {
		return "", false
	}
	return s.SessionID, true
}

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// ProcessScanStrategy walks the ancestor process chain looking for a command
// line carrying a session id (assistant processes embed one as a UUID
// argument). Platform-specific: it shells out to ps and is registered only
// where that works.
type ProcessScanStrategy struct {
	builder  *command.SafeBuilder
	maxDepth int
}

func NewProcessScanStrategy() *ProcessScanStrategy {
	return &ProcessScanStrategy{
		builder:  command.NewSafeBuilder(),
		maxDepth: 10,
	}
}

func (s *ProcessScanStrategy) Source() Source { return SourceProcessScan }

func (s *ProcessScanStrategy) Resolve(ctx context.Context) (string, bool) {
	pid := os.Getpid()
	for depth := 0; depth < s.maxDepth && pid > 1; depth++ {
		if !process.IsProcessAlive(pid) {
			return "", false
		}

		cmdline, err := s.ps(ctx, "command=", pid)
		if err != nil {
			return "", false
		}
		if candidate := uuidPattern.FindString(cmdline); candidate != "" {
			if _, err := uuid.Parse(candidate); err == nil {
				return candidate, true
			}
		}

		parent, err := s.ps(ctx, "ppid=", pid)
		if err != nil {
			return "", false
		}
		next, err := strconv.Atoi(strings.TrimSpace(parent))
		if err != nil || next == pid {
			return "", false
		}
		pid = next
	}
	return "", false
}

func (s *ProcessScanStrategy) ps(ctx context.Context, column string, pid int) (string, error) {
	cmd, err := s.builder.Build(ctx, "ps", "-o", column, "-p", strconv.Itoa(pid))
	if err != nil {
		return "", err
	}
	output, err := cmd.Exec().Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// EnvironmentStrategy reads terminal-emulator-provided identity variables.
// Less trustworthy than the other strategies: these identify the terminal
// pane, not necessarily the assistant session, so it runs last.
type EnvironmentStrategy struct{}

func (s *EnvironmentStrategy) Source() Source { return SourceEnvironment }

func (s *EnvironmentStrategy) Resolve(_ context.Context) (string, bool) {
	for _, name := range []string{"TERM_SESSION_ID", "ITERM_SESSION_ID", "TMUX_PANE"} {
		if value := os.Getenv(name); value != "" {
			return value, true
		}
	}
	return "", false
}
