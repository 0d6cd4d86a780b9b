package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves the test into dir so Load never picks up a stray
// rankcli.yaml from the working tree.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("failed to restore working directory: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "exports", cfg.Paths.ExportsDir)
	assert.Equal(t, 30*time.Minute, cfg.Paths.ExportMaxAge)
	assert.Equal(t, int64(10*1024*1024), cfg.Limits.MaxUploadBytes())
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RANK_SERVER_PORT", "9090")
	t.Setenv("RANK_LOGGING_LEVEL", "debug")
	t.Setenv("RANK_LIMITS_MAX_UPLOAD_SIZE_MB", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, int64(5*1024*1024), cfg.Limits.MaxUploadBytes())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
server:
  port: 9191
logging:
  level: warn
paths:
  exports_dir: out
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rankcli.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "out", cfg.Paths.ExportsDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := "server:\n  port: 9191\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rankcli.yaml"), []byte(yaml), 0o600))
	t.Setenv("RANK_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfigFileOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	alt := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(alt, []byte("server:\n  port: 9292\n"), 0o600))
	t.Setenv("RANK_CONFIG_FILE", alt)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9292, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port too low", key: "RANK_SERVER_PORT", value: "0"},
		{name: "port too high", key: "RANK_SERVER_PORT", value: "70000"},
		{name: "zero upload limit", key: "RANK_LIMITS_MAX_UPLOAD_SIZE_MB", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	cfg.Paths.ExportsDir = filepath.Join(dir, "exports")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Paths.ExportsDir)
}
