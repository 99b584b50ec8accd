package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/mcp"
)

func runVersion(t *testing.T, v string, args ...string) string {
	t.Helper()

	originalVersion := version
	version = v
	t.Cleanup(func() {
		version = originalVersion
		jsonOutput = false
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(append([]string{"version"}, args...))

	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"build version", "test-version-1.0.0", "sercha-kb version test-version-1.0.0"},
		{"dev by default", "dev", "sercha-kb version dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runVersion(t, tt.version)
			assert.Contains(t, out, tt.want)
			assert.Contains(t, out, "mcp server "+mcp.Version)
		})
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	out := runVersion(t, "1.2.3", "--json")

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, mcp.Version, info.MCPVersion)
}
