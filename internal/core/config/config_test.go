package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, DefaultConfig().Player.Command, cfg.Player.Command)
	assert.Equal(t, DefaultLabels, cfg.Scale.Labels)
	assert.Equal(t, 100.0, cfg.Scale.Max)
	assert.Equal(t, filepath.Join(dataDir, "results"), cfg.ResultsPath())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
results_dir: /srv/results
player:
  command: [mpv, --really-quiet, "{{ .Path }}"]
  stall_timeout: 90s
scale:
  min: 1
  max: 5
  step: 0.5
database:
  busy_timeout: 250
instructions: |
  # Welcome
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/srv/results", cfg.ResultsPath())
	assert.Equal(t, []string{"mpv", "--really-quiet", "{{ .Path }}"}, cfg.Player.Command)
	assert.Equal(t, 90*time.Second, cfg.Player.StallTimeout)
	assert.Equal(t, ScaleConfig{Min: 1, Max: 5, Step: 0.5, Labels: DefaultLabels}, cfg.Scale)
	assert.Equal(t, DatabaseConfig{MaxOpenConns: 4, MaxIdleConns: 2, BusyTimeout: 250}, cfg.Database)
	assert.Equal(t, "# Welcome\n", cfg.Instructions)
	assert.Equal(t, "tokyo-night", cfg.Theme)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			body:    "player: [",
			wantErr: "parse config file",
		},
		{
			name:    "inverted scale",
			body:    "scale: {min: 10, max: 5}",
			wantErr: "scale.max",
		},
		{
			name:    "step too large",
			body:    "scale: {min: 0, max: 10, step: 20}",
			wantErr: "scale.step",
		},
		{
			name:    "negative stall timeout",
			body:    "player: {stall_timeout: -1s}",
			wantErr: "stall_timeout",
		},
		{
			name:    "idle above open",
			body:    "database: {max_open_conns: 1, max_idle_conns: 3}",
			wantErr: "max_idle_conns",
		},
		{
			name:    "unknown theme",
			body:    "theme: neon",
			wantErr: "unknown theme",
		},
		{
			name:    "empty label",
			body:    `scale: {labels: ["Good", ""]}`,
			wantErr: "scale.labels[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_RequiresDataDir(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorContains(t, cfg.Validate(), "data directory")
}
