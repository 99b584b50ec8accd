package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Flags(t *testing.T) {
	require.NotNil(t, serveCmd.Flags().Lookup("addr"))
	require.NotNil(t, serveCmd.Flags().Lookup("no-watch"))
}

func TestServeCmd_ServicesNotConfigured(t *testing.T) {
	_, err := executeCommand("serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "services not configured")
}

func TestServeCmd_NoAddress(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	runtime.serverAddr = ""

	_, err := executeCommand("serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no listen address")
}

func TestWarmCache_LoadsSnapshot(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	warmCache(ctx)

	assert.Equal(t, 1, testSvcs.cache.loads)
}

func TestMCPServeCmd_HasPortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}
