package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-jsonrpc2/tcp/rpc"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaultsForMissingFields(t *testing.T) {
	path := writeTempConfig(t, "server:\n  address: \":9000\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 256, cfg.Server.Backlog)
	assert.Equal(t, "newline", cfg.Transport.Framing)
	assert.Equal(t, rpc.DefaultTimeout, time.Duration(cfg.Transport.Timeout))
}

func TestLoadParsesFullDocument(t *testing.T) {
	path := writeTempConfig(t, `
server:
  address: "127.0.0.1:7777"
  backlog: 10
transport:
  framing: jsonpos
  timeout: 30s
  no_delay: false
  reuse_addr: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7777", cfg.Server.Address)
	assert.Equal(t, 10, cfg.Server.Backlog)
	assert.Equal(t, "jsonpos", cfg.Transport.Framing)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Transport.Timeout))
	assert.False(t, cfg.Transport.NoDelay)
	assert.False(t, cfg.Transport.ReuseAddr)

	mode, err := cfg.FramingMode()
	require.NoError(t, err)
	assert.Equal(t, rpc.FramingJsonPos, mode)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestFramingModeRejectsUnknownValue(t *testing.T) {
	path := writeTempConfig(t, "transport:\n  framing: carrier-pigeon\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.FramingMode()
	assert.Error(t, err)
}
