package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Config is the root of arbor.yml. Tool-specific sections beyond the known
// ones are kept raw and decoded on demand with UnmarshalExtension.
type Config struct {
	// Assistant configures the command typed into newly opened worker sessions.
	Assistant AssistantSettings `yaml:"assistant" json:"assistant,omitempty" jsonschema:"description=Assistant launch settings for worker sessions"`

	// Worktree configures worktree lifecycle behavior.
	Worktree WorktreeSettings `yaml:"worktree" json:"worktree,omitempty" jsonschema:"description=Worktree lifecycle settings"`

	// raw holds the full decoded document for extension lookups.
	raw map[string]interface{}
}

// AssistantSettings mirror the launch flags passed through verbatim into the
// generated assistant command.
type AssistantSettings struct {
	// Binary is the assistant executable name.
	Binary string `yaml:"binary,omitempty" json:"binary,omitempty" jsonschema:"description=Assistant executable name,default=claude"`

	// SessionID, when set, is the authoritative id of the current session.
	// All inference strategies defer to it.
	SessionID string `yaml:"session_id,omitempty" json:"session_id,omitempty" jsonschema:"description=Explicit session id override"`

	// SkipPermissions adds the assistant's skip-permission-prompts flag.
	SkipPermissions bool `yaml:"skip_permissions,omitempty" json:"skip_permissions,omitempty" jsonschema:"description=Skip permission prompts when launching the assistant"`

	// EnableResume adds --resume <session-id> so worker sessions share context.
	EnableResume bool `yaml:"enable_resume,omitempty" json:"enable_resume,omitempty" jsonschema:"description=Resume the creator session in workers"`

	// ConfigPath is passed through as the assistant's own config file.
	ConfigPath string `yaml:"config_path,omitempty" json:"config_path,omitempty" jsonschema:"description=Path to an assistant configuration file"`

	// AdditionalArgs is appended verbatim to the launch command.
	AdditionalArgs string `yaml:"additional_args,omitempty" json:"additional_args,omitempty" jsonschema:"description=Extra arguments appended to the launch command"`
}

// WorktreeSettings tune lifecycle behavior.
type WorktreeSettings struct {
	// BaseBranch overrides base-branch inference when set.
	BaseBranch string `yaml:"base_branch,omitempty" json:"base_branch,omitempty" jsonschema:"description=Base branch override; inferred from origin when empty"`
}

// UnmarshalExtension decodes a top-level config section into out. A missing
// key is not an error; out is left untouched.
func (c *Config) UnmarshalExtension(key string, out interface{}) error {
	if c.raw == nil {
		return nil
	}

	section, ok := c.raw[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("create decoder for '%s': %w", key, err)
	}

	if err := decoder.Decode(section); err != nil {
		return fmt.Errorf("decode '%s' section: %w", key, err)
	}

	return nil
}
