package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, ".retree.yaml", `
exclude:
  - "vendor/**"
  - "*.lock"
threads: 4
backup: true
progress: never
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**", "*.lock"}, cfg.Exclude)
	assert.Equal(t, 4, cfg.Threads)
	assert.True(t, cfg.Backup)
	assert.Equal(t, "never", cfg.Progress)
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, ".retree.yaml", "exclued: [typo]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing YAML")
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, ".retree.json", `{"include": ["*.go"], "max_depth": 3}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.go"}, cfg.Include)
	assert.Equal(t, 3, cfg.MaxDepth)
}

func TestLoadJSONRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, ".retree.json", `{"bogus": 1}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadHCL(t *testing.T) {
	path := writeConfig(t, ".retree.hcl", `
exclude = ["vendor/**"]
threads = 8
include_hidden = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**"}, cfg.Exclude)
	assert.Equal(t, 8, cfg.Threads)
	assert.True(t, cfg.IncludeHidden)
}

func TestLoadHCLEnvInterpolation(t *testing.T) {
	t.Setenv("RETREE_TEST_SKIP", "node_modules")
	path := writeConfig(t, ".retree.hcl", `
exclude = [env.RETREE_TEST_SKIP]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"node_modules"}, cfg.Exclude)
}

func TestLoadMissingFileIsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ".retree.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeConfig(t, ".retree.yaml", "progress: sometimes\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "progress must be")
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeConfig(t, ".retree.toml", "x = 1")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config extension")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", Discover(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".retree.json"), []byte("{}"), 0o644))
	assert.Equal(t, filepath.Join(dir, ".retree.json"), Discover(dir))

	// Earlier names in the probe order win.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".retree.yaml"), []byte(""), 0o644))
	assert.Equal(t, filepath.Join(dir, ".retree.yaml"), Discover(dir))
}
