// Package assistant builds the launch command typed into a freshly created
// worktree session to start the coding assistant there.
package assistant

import (
	"fmt"
	"strings"

	"github.com/grovetools/arbor/config"
)

// disallowedTools blocks the spawned assistant from calling the worktree
// management surface itself. Without this a worker session could recursively
// spawn worktrees of its own.
var disallowedTools = []string{
	"mcp__arbor__createWorktree",
	"mcp__arbor__closeWorktree",
	"mcp__arbor__activeWorktrees",
	"mcp__arbor__switchToWorktree",
	"mcp__arbor__openWorktree",
}

// BuildCommand assembles the shell command that starts the assistant with
// the given task description. sessionID enables --resume when session
// sharing is on; pass empty to skip. All other knobs come from settings.
func BuildCommand(settings config.AssistantSettings, sessionID, description string) string {
	parts := []string{settings.Binary}

	if settings.EnableResume && sessionID != "" {
		parts = append(parts, "--resume", sessionID)
	}

	escaped := strings.ReplaceAll(description, `"`, `\"`)
	parts = append(parts, fmt.Sprintf(`"%s"`, escaped))

	if settings.SkipPermissions {
		parts = append(parts, "--dangerously-skip-permissions")
	}

	parts = append(parts, "--disallowedTools "+strings.Join(disallowedTools, ","))

	if settings.ConfigPath != "" {
		parts = append(parts, "--mcp-config", fmt.Sprintf(`"%s"`, settings.ConfigPath))
	}

	if settings.AdditionalArgs != "" {
		parts = append(parts, settings.AdditionalArgs)
	}

	return strings.Join(parts, " ")
}
