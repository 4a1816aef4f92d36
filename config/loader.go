package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/grovetools/arbor/pkg/paths"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project-level configuration file searched for
// upward from the working directory.
const ConfigFileName = "arbor.yml"

// FindConfigFile walks up from dir looking for arbor.yml.
func FindConfigFile(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(current, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	// Fall back to the user-level config directory.
	if cfgDir := paths.ConfigDir(); cfgDir != "" {
		candidate := filepath.Join(cfgDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no %s found from %s upward", ConfigFileName, dir)
}

// Load reads and validates a config file, then applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := ValidateDocument(data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg.raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadDefault discovers and loads the nearest config. A missing file is not
// an error: every knob has a default and environment overrides still apply.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	path, err := FindConfigFile(cwd)
	if err != nil {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	return Load(path)
}

func (c *Config) applyDefaults() {
	if c.Assistant.Binary == "" {
		c.Assistant.Binary = "claude"
	}
}

// applyEnvOverrides lets the environment win over the file for every
// assistant knob. All values are passed through verbatim downstream.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ARBOR_ASSISTANT_BINARY"); v != "" {
		c.Assistant.Binary = v
	}
	if v := os.Getenv("ARBOR_SESSION_ID"); v != "" {
		c.Assistant.SessionID = v
	}
	if v := os.Getenv("ARBOR_SKIP_PERMISSIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Assistant.SkipPermissions = b
		}
	}
	if v := os.Getenv("ARBOR_ENABLE_RESUME"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Assistant.EnableResume = b
		}
	}
	if v := os.Getenv("ARBOR_ASSISTANT_CONFIG"); v != "" {
		c.Assistant.ConfigPath = v
	}
	if v := os.Getenv("ARBOR_ASSISTANT_ARGS"); v != "" {
		c.Assistant.AdditionalArgs = v
	}
	if v := os.Getenv("ARBOR_BASE_BRANCH"); v != "" {
		c.Worktree.BaseBranch = v
	}
}
