package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "judim-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("geometry: plus3\ntimeout: 1m\n"), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"config", "show", "--config", path, "-o", "json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())

	var view configView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, "plus3", view.Geometry)
	assert.Equal(t, time.Minute, view.Timeout)
	require.Len(t, view.Services, 2)
	assert.Equal(t, "tape", view.Services[0].Name)
	assert.True(t, view.Services[1].Available)

	require.NotNil(t, active)
	assert.Equal(t, time.Minute, active.DefaultTimeout)
	assert.NoError(t, active.Close())
}
