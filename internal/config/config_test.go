package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyor/internal/game"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_directory: /games/chatlogs
batch_size: 3
zone: Eltibule
player_pos: [0.25, 0.75]
encoding: windows-1252
observer:
  enabled: true
theme: telix
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/games/chatlogs", cfg.LogDirectory)
	assert.Equal(t, 3, cfg.BatchSize)
	assert.Equal(t, "Eltibule", cfg.Zone)
	assert.Equal(t, [2]float64{0.25, 0.75}, cfg.PlayerPos)
	assert.Equal(t, "windows-1252", cfg.Encoding)
	assert.True(t, cfg.Observer.Enabled)
	assert.Equal(t, "127.0.0.1:7777", cfg.Observer.Addr)
	assert.Equal(t, 750.0, cfg.MapWidth)
	assert.Equal(t, "Chat-", cfg.LogPattern.Prefix)
	assert.Equal(t, "telix", cfg.Theme)
}

func TestParse_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero batch", "batch_size: 0"},
		{"fractional batch", "batch_size: 2.5"},
		{"position out of range", "player_pos: [0.5, 1.5]"},
		{"position too short", "player_pos: [0.5]"},
		{"unknown encoding", "encoding: ebcdic"},
		{"unknown key", "colour: red"},
		{"unknown level", "log_level: loud"},
		{"negative map", "map_width: -3"},
		{"unknown theme", "theme: neon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Parse([]byte("# nothing here\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("batch_size: [1,"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestApply(t *testing.T) {
	cfg := Default()
	cfg.BatchSize = 2
	cfg.Zone = "Ilmari"
	cfg.PlayerPos = [2]float64{0.1, 0.9}
	cfg.MapWidth = 300

	s := game.NewState()
	Apply(cfg, s)

	assert.Equal(t, 2, s.BatchSize())
	assert.Equal(t, "Ilmari", s.Zone)
	assert.Equal(t, [2]float64{0.1, 0.9}, s.PlayerPos)
	assert.Equal(t, 300.0, s.MapWidth)
	assert.Equal(t, 750.0, s.MapHeight)
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "surveyor", "config.yaml"), DefaultPath())
}

func TestDecoder(t *testing.T) {
	cfg := Default()
	d, err := cfg.Decoder()
	require.NoError(t, err)
	assert.Equal(t, "utf-8", d.Name())
}
