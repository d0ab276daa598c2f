package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-judim/internal/disk"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "judim-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
geometry: plus3
checksum_policy: strict
output: json
workers: 2
timeout: 2m
geometry_override:
  tracks_per_side: 80
  sides: 2
  side_mode: successive
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "plus3", cfg.Geometry)
	assert.True(t, cfg.Strict())
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, disk.FormatDetected, cfg.DiskFormat())

	g, err := cfg.DiskGeometry()
	require.NoError(t, err)
	assert.Equal(t, 80, g.Params().TracksPerSide)
	assert.Equal(t, 2, g.Params().Sides)
	assert.Equal(t, disk.SideSuccessive, g.Params().SideMode)
	assert.Equal(t, 512, g.SectorSize())
}

func TestLoadOverrideZeroReservedTracks(t *testing.T) {
	path := writeConfig(t, `
geometry: junior
geometry_override:
  reserved_tracks: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.GeometryOverride.ReservedTracks)
	assert.Nil(t, cfg.GeometryOverride.TracksPerSide)

	g, err := cfg.DiskGeometry()
	require.NoError(t, err)
	assert.Zero(t, g.Params().ReservedTracks)
	assert.Equal(t, 80, g.Params().TracksPerSide)

	preset, err := disk.PresetGeometry("junior")
	require.NoError(t, err)
	assert.Greater(t, g.TotalBlocks(), preset.TotalBlocks())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("JUDIM_GEOMETRY", "cpc-data")
	path := writeConfig(t, "output: yaml\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cpc-data", cfg.Geometry)
	assert.Equal(t, "yaml", cfg.Output)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", Config{ChecksumPolicy: "warn", ImageFormat: "auto", Workers: 1}, false},
		{"edsk", Config{ChecksumPolicy: "strict", ImageFormat: "edsk", Workers: 8}, false},
		{"bad policy", Config{ChecksumPolicy: "lenient", Workers: 1}, true},
		{"bad format", Config{ChecksumPolicy: "warn", ImageFormat: "adf", Workers: 1}, true},
		{"no workers", Config{ChecksumPolicy: "warn"}, true},
		{"negative timeout", Config{ChecksumPolicy: "warn", Workers: 1, Timeout: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDiskGeometryUnknownPreset(t *testing.T) {
	cfg := Config{Geometry: "amiga"}
	_, err := cfg.DiskGeometry()
	assert.ErrorIs(t, err, disk.ErrInvalidGeometry)
}
