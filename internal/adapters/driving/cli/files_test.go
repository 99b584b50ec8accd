package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestFilesCmd_HasSubcommands(t *testing.T) {
	commands := filesCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "get", "delete", "rechunk", "assign", "chunks"}, names)
}

func TestUploadCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommand("upload")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestUploadCmd_SendsFileContent(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "policy.md")
	require.NoError(t, os.WriteFile(path, []byte("# Leave\n\nBook it early."), 0o600))

	out, err := executeCommand("upload", "--stage", "stage-1", "--type", "text", path)

	require.NoError(t, err)
	req := testSvcs.document.lastUpload
	require.NotNil(t, req)
	assert.Equal(t, "policy.md", req.Name)
	assert.Equal(t, "# Leave\n\nBook it early.", string(req.Content))
	assert.Equal(t, domain.FileTypeText, req.DeclaredType)
	require.NotNil(t, req.StageID)
	assert.Equal(t, "stage-1", *req.StageID)

	assert.Contains(t, out, "Uploaded policy.md")
	assert.Contains(t, out, "file-new")
	assert.Contains(t, out, "Chunks: 3")
}

func TestUploadCmd_WithoutStage(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("notes"), 0o600))

	_, err := executeCommand("upload", path)

	require.NoError(t, err)
	require.NotNil(t, testSvcs.document.lastUpload)
	assert.Nil(t, testSvcs.document.lastUpload.StageID)
	assert.Empty(t, testSvcs.document.lastUpload.DeclaredType)
}

func TestUploadCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("upload", filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
	assert.Nil(t, testSvcs.document.lastUpload)
}

func TestUploadCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testSvcs.document.err = domain.ErrDuplicateFile

	path := filepath.Join(t.TempDir(), "dup.txt")
	require.NoError(t, os.WriteFile(path, []byte("same"), 0o600))

	_, err := executeCommand("upload", path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateFile))
}

func TestFilesListCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "file-1")
	assert.Contains(t, out, "handbook.md")
	assert.Contains(t, out, "Stage:  (none)")
	assert.Contains(t, out, "Stage:  stage-1")
	assert.Contains(t, out, "Total: 2 files")
}

func TestFilesListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testSvcs.document.files = nil

	out, err := executeCommand("files", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No files uploaded.")
}

func TestFilesListCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "list", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"OriginalName": "faq.txt"`)
}

func TestFilesGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "get", "file-1")

	require.NoError(t, err)
	assert.Contains(t, out, "File: file-1")
	assert.Contains(t, out, "text (.md)")
	assert.Contains(t, out, "2048 bytes")
	assert.Contains(t, out, "2026-03-14 09:30:00")
}

func TestFilesGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("files", "get", "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFilesDeleteCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "delete", "file-1")
	require.NoError(t, err)
	assert.Contains(t, out, "File file-1 deleted.")

	out, err = executeCommand("files", "delete", "gone")
	require.NoError(t, err)
	assert.Contains(t, out, "not found, nothing deleted")
}

func TestFilesRechunkCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "rechunk", "file-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Rechunked handbook.md into 2 chunks.")
}

func TestFilesAssignCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "assign", "file-1", "--stage", "stage-2")

	require.NoError(t, err)
	require.NotNil(t, testSvcs.document.lastAssign)
	assert.Equal(t, "stage-2", *testSvcs.document.lastAssign)
	assert.Contains(t, out, "now in stage stage-2")
}

func TestFilesAssignCmd_None(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "assign", "file-2", "--stage", "none")

	require.NoError(t, err)
	assert.Nil(t, testSvcs.document.lastAssign)
	assert.Contains(t, out, "now in stage (none)")
}

func TestFilesChunksCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "chunks", "file-1")

	require.NoError(t, err)
	assert.Contains(t, out, "[#0] chunk-1")
	assert.Contains(t, out, "[#1 q&a embedded] chunk-2")
	assert.Contains(t, out, "Who approves leave?")
}

func TestFilesChunksCmd_NoChunks(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("files", "chunks", "file-2")

	require.NoError(t, err)
	assert.Contains(t, out, "File has no chunks.")
}

func TestFilesCmds_ServiceNotConfigured(t *testing.T) {
	for _, args := range [][]string{
		{"files", "list"},
		{"files", "get", "x"},
		{"files", "delete", "x"},
		{"files", "rechunk", "x"},
		{"files", "chunks", "x"},
	} {
		_, err := executeCommand(args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "document service not configured")
	}
}
