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

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxyanim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tick_rate: 30
workers: 8
idle_timeout: 250ms
log_level: debug
definitions: ./anims
watch: true
metrics_addr: ":9090"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.TickRate)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 256, cfg.QueueSize, "unset fields keep their defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.IdleTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "./anims", cfg.Definitions)
	assert.True(t, cfg.Watch)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.False(t, cfg.Profiling)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero tick rate", "tick_rate: 0"},
		{"negative workers", "workers: -1"},
		{"zero queue", "queue_size: 0"},
		{"negative idle", "idle_timeout: -1s"},
		{"bad level", "log_level: loud"},
		{"bad yaml", "tick_rate: [1"},
		{"bad duration", "idle_timeout: soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
