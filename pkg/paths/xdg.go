// Package paths provides XDG-compliant path resolution for Arbor.
//
// Resolution order:
// 1. ARBOR_HOME (portable root) → $ARBOR_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/arbor
// 3. Platform defaults → ~/.config/arbor, ~/.local/state/arbor, etc.
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if arborHome := os.Getenv("ARBOR_HOME"); arborHome != "" {
		return filepath.Join(arborHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if arborHome := os.Getenv("ARBOR_HOME"); arborHome != "" {
		return filepath.Join(arborHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// getCacheHome returns the base cache home directory.
func getCacheHome() string {
	if arborHome := os.Getenv("ARBOR_HOME"); arborHome != "" {
		return filepath.Join(arborHome, "cache")
	}
	if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
		return xdgCacheHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache")
	}
	return ""
}

// ConfigDir returns the Arbor configuration directory.
// Used for the user-level arbor.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "arbor")
}

// StateDir returns the Arbor state directory.
// Used for runtime state and fallback logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "arbor")
}

// CacheDir returns the Arbor cache directory.
// Used for temporary/regenerable data.
func CacheDir() string {
	base := getCacheHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "arbor")
}

// EnsureDirs creates all Arbor directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		CacheDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
