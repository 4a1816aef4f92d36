// Package notify implements the cross-session notification protocol: a
// one-line wire format typed into terminals, and precision routing of those
// lines back to the session that created the worktree.
package notify

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two notification types.
type Kind string

const (
	KindComplete   Kind = "complete"
	KindMergeReady Kind = "merge_ready"
)

const (
	completePrefix   = "#WORKTREE_COMPLETE:"
	mergeReadyPrefix = "#WORKTREE_MERGE_READY:"
)

// Message is one notification. The summary is free-form and may itself
// contain the separator character.
type Message struct {
	Kind         Kind   `json:"kind"`
	WorktreeName string `json:"worktree_name"`
	Summary      string `json:"summary"`
}

// Format renders the single-line wire form: prefix, worktree name, one `|`,
// then the summary verbatim.
func Format(m Message) string {
	prefix := completePrefix
	if m.Kind == KindMergeReady {
		prefix = mergeReadyPrefix
	}
	return fmt.Sprintf("%s%s|%s", prefix, m.WorktreeName, m.Summary)
}

// Parse decodes one line. Only the first `|` splits name from summary, so
// summaries keep embedded separators intact. A line without a recognized
// prefix parses to absent, never an error.
func Parse(line string) (Message, bool) {
	line = strings.TrimSpace(line)

	var kind Kind
	var rest string
	switch {
	case strings.HasPrefix(line, completePrefix):
		kind = KindComplete
		rest = strings.TrimPrefix(line, completePrefix)
	case strings.HasPrefix(line, mergeReadyPrefix):
		kind = KindMergeReady
		rest = strings.TrimPrefix(line, mergeReadyPrefix)
	default:
		return Message{}, false
	}

	name, summary := rest, ""
	if idx := strings.Index(rest, "|"); idx >= 0 {
		name, summary = rest[:idx], rest[idx+1:]
	}

	return Message{Kind: kind, WorktreeName: name, Summary: summary}, true
}
