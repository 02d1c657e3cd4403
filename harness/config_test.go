package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/deferbench/result"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "deferbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 500, cfg.Trials)
	assert.Equal(t, 1000, cfg.Callbacks)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "trials: 50\nmetrics_file: out.prom\ntrace: true\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Trials)
	assert.Equal(t, 1000, cfg.Callbacks, "unset keys keep their defaults")
	assert.Equal(t, "out.prom", cfg.MetricsFile)
	assert.True(t, cfg.Trace)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "trials: [1, 2\n"))
		assert.ErrorIs(t, err, result.ErrConfiguration)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "callbacks: 0\n"))
		assert.ErrorIs(t, err, result.ErrConfiguration)
	})
}
