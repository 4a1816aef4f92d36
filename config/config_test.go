package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
assistant:
  skip_permissions: true
  enable_resume: true
  session_id: claude-code-1722000000-abc123
worktree:
  base_branch: develop
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.Assistant.Binary, "binary should default")
	assert.True(t, cfg.Assistant.SkipPermissions)
	assert.True(t, cfg.Assistant.EnableResume)
	assert.Equal(t, "claude-code-1722000000-abc123", cfg.Assistant.SessionID)
	assert.Equal(t, "develop", cfg.Worktree.BaseBranch)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
assistant:
  binary: claude
  skip_permissions: false
`)

	t.Setenv("ARBOR_ASSISTANT_BINARY", "claude-dev")
	t.Setenv("ARBOR_SKIP_PERMISSIONS", "true")
	t.Setenv("ARBOR_SESSION_ID", "explicit-session")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude-dev", cfg.Assistant.Binary)
	assert.True(t, cfg.Assistant.SkipPermissions)
	assert.Equal(t, "explicit-session", cfg.Assistant.SessionID)
}

func TestFindConfigFileWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "repo", "worktree")
	require.NoError(t, os.MkdirAll(nested, 0755))
	expected := writeConfig(t, root, "assistant:\n  binary: claude\n")

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, expected, found)
}

func TestUnmarshalExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
assistant:
  binary: claude
logging:
  level: debug
  report_caller: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	var logCfg struct {
		Level        string `yaml:"level"`
		ReportCaller bool   `yaml:"report_caller"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.True(t, logCfg.ReportCaller)

	// Missing sections are not an error
	var other struct{ X string }
	assert.NoError(t, cfg.UnmarshalExtension("missing", &other))
}

func TestValidateDocumentRejectsWrongTypes(t *testing.T) {
	err := ValidateDocument([]byte("assistant:\n  skip_permissions: \"yes please\"\n"))
	assert.Error(t, err)

	assert.NoError(t, ValidateDocument([]byte("")))
	assert.NoError(t, ValidateDocument([]byte("assistant:\n  skip_permissions: true\n")))
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(oldWd)
	require.NoError(t, os.Chdir(dir))
	t.Setenv("ARBOR_HOME", filepath.Join(dir, "arbor-home"))

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.Assistant.Binary)
}
