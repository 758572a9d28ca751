package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/tolledger/config"
	"github.com/tolelom/tolledger/logger"
)

func TestLoadConfig_MissingFileWarnsThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	lg, err := logger.NewWithWriter(&buf, "tolledger", "info", false)
	require.NoError(t, err)
	prev := bootLog
	bootLog = lg
	t.Cleanup(func() { bootLog = prev })

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().ChainID, cfg.ChainID)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "config file not found, using defaults")
}
