// pkg/config/config_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Environment variables, temporary files
// PURPOSE: Test configuration layering: defaults, files, environment

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/gonda/pkg/config"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []string{"conda-forge"}, cfg.Channels)
	assert.Equal(t, 120, cfg.Solver.TimeoutSeconds)
	assert.Equal(t, 2*time.Minute, cfg.Solver.Timeout())
	assert.Equal(t, 8, cfg.Link.Concurrency)
	assert.NotEmpty(t, cfg.Cache.Dir)
}

func TestFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `channels = ["internal", "conda-forge"]

[solver]
timeout_seconds = 300

[cache]
dir = "/var/cache/gonda"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gonda.toml"), []byte(content), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"internal", "conda-forge"}, cfg.Channels)
	assert.Equal(t, 300, cfg.Solver.TimeoutSeconds)
	assert.Equal(t, "/var/cache/gonda", cfg.Cache.Dir)
	assert.Equal(t, filepath.Join("/var/cache/gonda", "repodata.db"), cfg.Cache.RecordDBPath())
	assert.Equal(t, filepath.Join("/var/cache/gonda", "pkgs"), cfg.Cache.PackagesDir())

	// Unset keys keep their defaults.
	assert.Equal(t, 8, cfg.Link.Concurrency)
}

func TestHiddenFilePreferred(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gonda.toml"),
		[]byte("[link]\nconcurrency = 2\n"), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Link.Concurrency)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gonda.toml"),
		[]byte("[solver]\ntimeout_seconds = 300\n"), 0o644))

	t.Setenv("GONDA_SOLVER__TIMEOUT_SECONDS", "45")
	t.Setenv("GONDA_LINK__CONCURRENCY", "3")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Solver.TimeoutSeconds)
	assert.Equal(t, 3, cfg.Link.Concurrency)
}

func TestInvalidTomlFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gonda.toml"),
		[]byte("not valid toml ["), 0o644))

	_, err := config.Load(dir)
	require.Error(t, err)
}

func TestNegativeValuesClamped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gonda.toml"),
		[]byte("[solver]\ntimeout_seconds = -1\n\n[link]\nconcurrency = 0\n"), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Solver.TimeoutSeconds)
	assert.Equal(t, 8, cfg.Link.Concurrency)
}

func TestDefaultConfigContentParses(t *testing.T) {
	assert.Contains(t, config.GetDefaultConfigContent(), "[solver]")
}
