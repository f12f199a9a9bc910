package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/code"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, code.LevelMedium, cfg.Level())
	assert.Equal(t, 30*time.Second, cfg.DefaultTimeout())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
security_level: strict
max_rounds: 3
logging:
  level: debug
  format: text
`))
	require.NoError(t, err)
	assert.Equal(t, code.LevelStrict, cfg.Level())
	assert.Equal(t, 3, cfg.MaxRounds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10000, cfg.MaxOutputChars)
	assert.Equal(t, "python3", cfg.PythonBin)
}

func TestParseRejectsBadValues(t *testing.T) {
	for name, src := range map[string]string{
		"unknown level":    "security_level: paranoid",
		"zero timeout":     "default_timeout_seconds: 0",
		"negative rounds":  "max_rounds: -1",
		"empty python bin": `python_bin: ""`,
		"bad log format":   "logging:\n  format: xml",
		"invalid yaml":     ":\n  - [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_rounds: 12\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MaxRounds)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
