package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestStatusCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("status")

	require.NoError(t, err)
	assert.Contains(t, out, "Data dir:    /tmp/sercha-kb-test")
	assert.Contains(t, out, "Search mode: hybrid")
	assert.Contains(t, out, "Embedding:   disabled")
	assert.Contains(t, out, "Files:       2")
	assert.Contains(t, out, "Chunks:      3 (1 embedded)")
	assert.NotContains(t, out, "Warning")
}

func TestStatusCmd_ReportsPartialLoad(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testSvcs.cache.stats.Report.FilesSkipped = []domain.FileFailure{{FileID: "file-9", Reason: "corrupt chunk data"}}

	out, err := executeCommand("status")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: 1 files skipped, 0 embedding batches failed")
}

func TestStatusCmd_ShowsConfiguredProvider(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	require.NoError(t, testSvcs.settings.SetEmbeddingProvider(domain.AIProviderOllama, "nomic-embed-text", ""))

	out, err := executeCommand("status", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"embedding": "ollama (nomic-embed-text)"`)
	assert.Contains(t, out, `"chunks": 3`)
}
