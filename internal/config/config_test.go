package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "singularity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
log_level: debug
max_conditions: 8
concurrency: 2
shutdown_timeout: 3s
`), 0o600))

	t.Setenv("SINGULARITY_CONCURRENCY", "6")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 8, cfg.MaxConditions)
	assert.Equal(t, 6, cfg.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("concurrency: [1"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SINGULARITY_ADDR", "127.0.0.1:7000")
	t.Setenv("SINGULARITY_MAX_BODY_BYTES", "4096")
	t.Setenv("SINGULARITY_LOG_LEVEL", "WARN")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, int64(4096), cfg.MaxBodyBytes)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"SINGULARITY_MAX_CONDITIONS":   "many",
		"SINGULARITY_CONCURRENCY":      "0",
		"SINGULARITY_LOG_LEVEL":        "loud",
		"SINGULARITY_SHUTDOWN_TIMEOUT": "soon",
		"SINGULARITY_MAX_BODY_BYTES":   "-1",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
